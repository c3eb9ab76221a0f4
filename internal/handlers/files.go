package handlers

import (
	"net/http"
	"strings"

	"photo-index/internal/logging"
)

// GetFile returns the index record for a single file
func (h *Handlers) GetFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := fileIDFromRequest(r)
	if !ok {
		writeJSONError(w, "Invalid file id", http.StatusBadRequest)
		return
	}

	file, err := h.db.GetFileByID(r.Context(), fileID)
	if err != nil {
		writeJSONError(w, "File not found", http.StatusNotFound)
		return
	}

	tags, err := h.db.GetFileTags(r.Context(), fileID)
	if err == nil {
		file.Tags = tags
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, file)
}

// GetThumbnail serves a cached JPEG thumbnail for a file
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	if !h.thumbGen.IsEnabled() {
		writeJSONError(w, "Thumbnails disabled", http.StatusNotFound)
		return
	}

	fileID, ok := fileIDFromRequest(r)
	if !ok {
		writeJSONError(w, "Invalid file id", http.StatusBadRequest)
		return
	}

	file, err := h.db.GetFileByID(r.Context(), fileID)
	if err != nil {
		writeJSONError(w, "File not found", http.StatusNotFound)
		return
	}

	// Index records always live under the photos root; reject anything
	// else in case the database was tampered with.
	if !strings.HasPrefix(file.Path, h.photosDir) {
		writeJSONError(w, "File not found", http.StatusNotFound)
		return
	}

	data, err := h.thumbGen.GetThumbnail(file.Path)
	if err != nil {
		logging.Debug("Thumbnail failed for %s: %v", file.Path, err)
		writeJSONError(w, "Thumbnail unavailable", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write thumbnail response: %v", err)
	}
}

// GetStats returns library statistics from the last index run
func (h *Handlers) GetStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.db.IndexStats()
	live := h.db.GetStats()
	stats.TotalFiles = live.TotalFiles
	stats.TotalTags = live.TotalTags

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats)
}

// TriggerReindex starts a background re-index
func (h *Handlers) TriggerReindex(w http.ResponseWriter, _ *http.Request) {
	if h.indexer.IsIndexing() {
		writeJSONStatus(w, "already_running")
		return
	}

	h.indexer.TriggerIndex()
	writeJSONStatus(w, "started")
}
