package handlers

import (
	"net/http"

	"github.com/wonny/tradelens/internal/analysis"
)

// Features ranks feature columns by impact score
// POST /api/features
func (h *Handler) Features(w http.ResponseWriter, r *http.Request) {
	var body FeaturesRequest
	req, ok := h.tableRequest(w, r, &body.TableRequest, &body)
	if !ok {
		return
	}

	report, err := h.svc.RankFeatures(r.Context(), analysis.FeatureRequest{
		Request:    req,
		SourceFile: body.SourceFile,
		GainColumn: body.GainColumn,
		Exclude:    body.Exclude,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Metrics computes the single-curve portfolio report
// POST /api/metrics
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	var body TableRequest
	req, ok := h.tableRequest(w, r, &body, &body)
	if !ok {
		return
	}

	m, err := h.svc.PortfolioReport(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// Compare measures a strategy against a baseline portfolio
// POST /api/compare
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var body CompareRequest
	fp, err := decode(w, r, &body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	baseline, err := body.Baseline.Table(body.BaselineColumns)
	if err != nil {
		respondError(w, http.StatusBadRequest, "baseline: "+err.Error())
		return
	}
	combined, err := body.Combined.Table(body.CombinedColumns)
	if err != nil {
		respondError(w, http.StatusBadRequest, "combined: "+err.Error())
		return
	}

	c, err := h.svc.Compare(r.Context(), analysis.CompareRequest{
		Baseline:        baseline,
		Combined:        combined,
		StartingCapital: body.StartingCapital,
		Fingerprint:     fp,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Yearly summarizes each calendar year
// POST /api/breakdown/yearly
func (h *Handler) Yearly(w http.ResponseWriter, r *http.Request) {
	var body TableRequest
	req, ok := h.tableRequest(w, r, &body, &body)
	if !ok {
		return
	}

	summaries, err := h.svc.Yearly(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

// Monthly summarizes each month of one year
// POST /api/breakdown/monthly
func (h *Handler) Monthly(w http.ResponseWriter, r *http.Request) {
	var body MonthlyRequest
	req, ok := h.tableRequest(w, r, &body.TableRequest, &body)
	if !ok {
		return
	}
	if body.Year == 0 {
		respondError(w, http.StatusBadRequest, "year is required")
		return
	}

	summaries, err := h.svc.Monthly(r.Context(), req, body.Year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

// Years lists the years present in a table
// POST /api/breakdown/years
func (h *Handler) Years(w http.ResponseWriter, r *http.Request) {
	var body TableRequest
	req, ok := h.tableRequest(w, r, &body, &body)
	if !ok {
		return
	}

	years, err := h.svc.Years(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, YearsResponse{Years: years})
}
