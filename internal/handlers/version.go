package handlers

import (
	"net/http"

	"photo-index/internal/startup"
)

// GetVersion reports the version, commit, and toolchain the binary was
// built with. Responses are never cached so deployments are visible
// immediately.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, startup.GetBuildInfo())
}
