package server

import (
	"net/http"
)

// handleSync reconciles the catalog against the object store on demand.
func (ms *MediaServer) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	added, removed, err := ms.SyncLibrary(r.Context())
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Library sync failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"success": true,
		"added":   added,
		"removed": removed,
	})
}
