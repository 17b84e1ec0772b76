package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/tradelens/internal/analysis"
	"github.com/wonny/tradelens/internal/table"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrNoTable),
		errors.Is(err, analysis.ErrNoSource),
		errors.Is(err, table.ErrColumnNotFound),
		errors.Is(err, table.ErrWrongKind),
		errors.Is(err, table.ErrLengthMismatch):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrNoExclusionStore):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
