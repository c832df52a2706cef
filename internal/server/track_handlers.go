package server

import (
	"errors"
	"net/http"
	"strings"

	"cadenza/internal/catalog"
	"cadenza/internal/storage"
	"cadenza/pkg/models"

	"github.com/sirupsen/logrus"
)

// handleGetTracks returns tracks optionally filtered (search) or sorted.
func (ms *MediaServer) handleGetTracks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	searchQuery := r.URL.Query().Get("search")
	sortBy := r.URL.Query().Get("sort")

	if len(searchQuery) > 1000 || strings.Contains(searchQuery, "\x00") {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid search query", nil)
		return
	}

	var tracks []models.Track
	var err error

	if searchQuery != "" {
		tracks, err = ms.catalog.SearchTracks(searchQuery)
	} else if sortBy == "album" {
		tracks, err = ms.catalog.GetTracksSortedByAlbum()
	} else {
		tracks, err = ms.catalog.GetAllTracks()
	}

	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving tracks", err)
		return
	}

	if tracks == nil {
		tracks = []models.Track{}
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, tracks)
}

// handleGetTrackCount responds with a JSON count of all tracks.
func (ms *MediaServer) handleGetTrackCount(w http.ResponseWriter, r *http.Request) {
	count, err := ms.catalog.CountTracks()
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving track count", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]int{"count": count})
}

// handleTrackByFile routes /api/tracks/{file}. Only deletion is supported;
// track listings go through /api/tracks.
func (ms *MediaServer) handleTrackByFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	pathParts := strings.Split(r.URL.EscapedPath(), "/")
	if len(pathParts) < 4 || pathParts[3] == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "No file specified", nil)
		return
	}

	file, err := identifierFromSegment(pathParts[3])
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	track, err := ms.catalog.GetTrackByFile(file)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			ms.respondWithError(w, r, http.StatusNotFound, "Track not found", nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving track", err)
		return
	}

	// Owned tracks are invisible to other users
	principal := principalFrom(r)
	if ms.authService.IsEnabled() && track.Owner != "" && track.Owner != principal {
		ms.respondWithError(w, r, http.StatusNotFound, "Track not found", nil)
		return
	}

	if err := ms.store.Delete(r.Context(), file); err != nil && !errors.Is(err, storage.ErrNotFound) {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error deleting file", err)
		return
	}

	if err := ms.catalog.RemoveTrackByFile(file); err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error removing track", err)
		return
	}

	ms.logger.WithFields(logrus.Fields{
		"file":  file,
		"owner": principal,
	}).Info("Track deleted")

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"success": true,
		"message": "Track deleted",
	})
}
