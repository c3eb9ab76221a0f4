package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"photo-index/internal/database"
	"photo-index/internal/filter"
	"photo-index/internal/logging"
)

// SearchRequest is the body of POST /api/files/search: a filter chain
// plus paging and ordering options.
type SearchRequest struct {
	Chain   filter.Chain           `json:"chain"`
	Options database.SearchOptions `json:"options"`
}

// Search runs a filter chain against the library and returns one page
// of matching files.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := req.Chain.Validate(); err != nil {
		var ve *filter.ValidationError
		if errors.As(err, &ve) {
			writeValidationError(w, "Invalid filter chain", ve.Problems)
			return
		}
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.db.SearchFiles(r.Context(), req.Chain, req.Options)
	if err != nil {
		logging.Error("Search failed: %v", err)
		writeJSONError(w, "Search failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, result)
}

// AggregateRequest is the body of POST /api/tags/aggregate. Scope
// "selection" counts tags over the files a chain selects; scope
// "source" counts tags under a directory prefix.
type AggregateRequest struct {
	Scope  string        `json:"scope"`
	Chain  *filter.Chain `json:"chain,omitempty"`
	Source string        `json:"source,omitempty"`
}

// AggregateTags returns per-tag file counts for the requested scope.
func (h *Handlers) AggregateTags(w http.ResponseWriter, r *http.Request) {
	var req AggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var counts []database.TagCount
	var err error

	switch req.Scope {
	case "selection":
		if req.Chain == nil {
			writeJSONError(w, "Selection scope requires a chain", http.StatusBadRequest)
			return
		}
		if err := req.Chain.Validate(); err != nil {
			var ve *filter.ValidationError
			if errors.As(err, &ve) {
				writeValidationError(w, "Invalid filter chain", ve.Problems)
				return
			}
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		counts, err = h.db.AggregateSelection(r.Context(), *req.Chain)
	case "source":
		counts, err = h.db.AggregateSource(r.Context(), req.Source)
	default:
		writeJSONError(w, "Unknown aggregation scope", http.StatusBadRequest)
		return
	}

	if err != nil {
		logging.Error("Aggregation failed: %v", err)
		writeJSONError(w, "Aggregation failed", http.StatusInternalServerError)
		return
	}

	if counts == nil {
		counts = []database.TagCount{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, counts)
}
