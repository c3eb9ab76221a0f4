package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"photo-index/internal/database"
	"photo-index/internal/logging"

	"github.com/gorilla/mux"
)

// TagRequest represents a request to manage tags for a file
type TagRequest struct {
	Tag     string   `json:"tag,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	NewName string   `json:"newName,omitempty"`
}

// fileIDFromRequest parses the {id} route variable.
func fileIDFromRequest(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

// GetAllTags returns all tags with their file counts
func (h *Handlers) GetAllTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.db.GetAllTags(r.Context())
	if err != nil {
		logging.Error("Failed to get tags: %v", err)
		writeJSONError(w, "Failed to get tags", http.StatusInternalServerError)
		return
	}

	if tags == nil {
		tags = []database.Tag{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, tags)
}

// GetFileTags returns tags for a specific file
func (h *Handlers) GetFileTags(w http.ResponseWriter, r *http.Request) {
	fileID, ok := fileIDFromRequest(r)
	if !ok {
		writeJSONError(w, "Invalid file id", http.StatusBadRequest)
		return
	}

	tags, err := h.db.GetFileTags(r.Context(), fileID)
	if err != nil {
		logging.Error("Failed to get tags for file %d: %v", fileID, err)
		writeJSONError(w, "Failed to get tags", http.StatusInternalServerError)
		return
	}

	if tags == nil {
		tags = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, tags)
}

// AddTagToFile adds a tag to a file
func (h *Handlers) AddTagToFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := fileIDFromRequest(r)
	if !ok {
		writeJSONError(w, "Invalid file id", http.StatusBadRequest)
		return
	}

	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Tag == "" {
		writeJSONError(w, "Tag is required", http.StatusBadRequest)
		return
	}

	if err := h.db.AddTagToFile(r.Context(), fileID, req.Tag); err != nil {
		logging.Error("Failed to add tag %q to file %d: %v", req.Tag, fileID, err)
		writeJSONError(w, "Failed to add tag", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// RemoveTagFromFile removes a tag from a file
func (h *Handlers) RemoveTagFromFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := fileIDFromRequest(r)
	if !ok {
		writeJSONError(w, "Invalid file id", http.StatusBadRequest)
		return
	}

	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Tag == "" {
		writeJSONError(w, "Tag is required", http.StatusBadRequest)
		return
	}

	if err := h.db.RemoveTagFromFile(r.Context(), fileID, req.Tag); err != nil {
		logging.Error("Failed to remove tag %q from file %d: %v", req.Tag, fileID, err)
		writeJSONError(w, "Failed to remove tag", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// SetFileTags replaces all tags for a file
func (h *Handlers) SetFileTags(w http.ResponseWriter, r *http.Request) {
	fileID, ok := fileIDFromRequest(r)
	if !ok {
		writeJSONError(w, "Invalid file id", http.StatusBadRequest)
		return
	}

	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.db.SetFileTags(r.Context(), fileID, req.Tags); err != nil {
		logging.Error("Failed to set tags for file %d: %v", fileID, err)
		writeJSONError(w, "Failed to set tags", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// RenameTag renames a tag across the whole library
func (h *Handlers) RenameTag(w http.ResponseWriter, r *http.Request) {
	tagName := mux.Vars(r)["tag"]

	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if tagName == "" || req.NewName == "" {
		writeJSONError(w, "Tag name and new name are required", http.StatusBadRequest)
		return
	}

	if err := h.db.RenameTag(r.Context(), tagName, req.NewName); err != nil {
		logging.Error("Failed to rename tag %q: %v", tagName, err)
		writeJSONError(w, "Failed to rename tag", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// DeleteTag removes a tag and all its assignments
func (h *Handlers) DeleteTag(w http.ResponseWriter, r *http.Request) {
	tagName := mux.Vars(r)["tag"]
	if tagName == "" {
		writeJSONError(w, "Tag name is required", http.StatusBadRequest)
		return
	}

	affected, err := h.db.DeleteTag(r.Context(), tagName)
	if err != nil {
		logging.Error("Failed to delete tag %q: %v", tagName, err)
		writeJSONError(w, "Failed to delete tag", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"status":        "ok",
		"filesAffected": affected,
	})
}
