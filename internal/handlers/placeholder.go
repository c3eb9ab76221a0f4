package handlers

import (
	"encoding/json"
	"net/http"

	"photo-index/internal/logging"
	"photo-index/internal/placeholder"
)

// ExpandPlaceholders resolves placeholder tokens (dates and locations)
// for a batch of files. POST /api/expand-placeholder.
func (h *Handlers) ExpandPlaceholders(w http.ResponseWriter, r *http.Request) {
	var req placeholder.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.expander.Expand(r.Context(), req)
	if err != nil {
		logging.Error("Placeholder expansion failed: %v", err)
		writeJSONError(w, "Placeholder expansion failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}
