package handlers

import (
	"net/http"
)

// GetExclusions returns the saved exclusions of a source file
// GET /api/exclusions?source=<path>
func (h *Handler) GetExclusions(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		respondError(w, http.StatusBadRequest, "source is required")
		return
	}

	names, err := h.svc.Exclusions(r.Context(), source)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ExclusionsResponse{SourceFile: source, Exclusions: names})
}

// PutExclusions replaces the saved exclusions of a source file
// PUT /api/exclusions
func (h *Handler) PutExclusions(w http.ResponseWriter, r *http.Request) {
	var body ExclusionsRequest
	if _, err := decode(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.SourceFile == "" {
		respondError(w, http.StatusBadRequest, "source_file is required")
		return
	}

	if err := h.svc.SaveExclusions(r.Context(), body.SourceFile, body.Exclusions); err != nil {
		h.fail(w, r, err)
		return
	}

	names, err := h.svc.Exclusions(r.Context(), body.SourceFile)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ExclusionsResponse{SourceFile: body.SourceFile, Exclusions: names})
}

// DeleteExclusions clears the saved exclusions of a source file
// DELETE /api/exclusions?source=<path>
func (h *Handler) DeleteExclusions(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		respondError(w, http.StatusBadRequest, "source is required")
		return
	}

	if err := h.svc.ClearExclusions(r.Context(), source); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
