package handlers

import (
	"net/http"

	"github.com/wonny/tradelens/internal/analysis"
	"github.com/wonny/tradelens/pkg/logger"
)

// Handler serves the analysis API
// ⭐ SSOT: 분석 API 핸들러는 이 구조체에서만
type Handler struct {
	svc    *analysis.Service
	logger *logger.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(svc *analysis.Service, log *logger.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger.OrNop(log),
	}
}

// fail replies with the mapped status. Server-side failures are logged and
// answered with the status text only, so storage details stay in the logs.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("Analysis request failed")
		respondError(w, status, http.StatusText(status))
		return
	}
	respondError(w, status, err.Error())
}

// tableRequest decodes a single-table body into a service request
func (h *Handler) tableRequest(w http.ResponseWriter, r *http.Request, body *TableRequest, dest interface{}) (analysis.Request, bool) {
	fp, err := decode(w, r, dest)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return analysis.Request{}, false
	}
	t, err := body.Records.Table(body.Columns)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return analysis.Request{}, false
	}
	return analysis.Request{Table: t, StartingCapital: body.StartingCapital, Fingerprint: fp}, true
}
