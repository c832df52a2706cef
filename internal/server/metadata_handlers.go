package server

import (
	"encoding/base64"
	"errors"
	"net/http"

	"cadenza/internal/storage"
	"cadenza/pkg/models"
)

// handleGetMetadata returns the parsed tag metadata of a stored file as
// JSON, with the cover art inlined as a data URL when present.
func (ms *MediaServer) handleGetMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	file, err := normalizeIdentifier(r.URL.Query().Get("file"))
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	obj, err := ms.store.Resolve(r.Context(), file)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ms.respondWithError(w, r, http.StatusNotFound, "File not found: "+file, nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error accessing file", err)
		return
	}

	data, err := obj.ReadAll(r.Context())
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error reading file", err)
		return
	}

	tags, err := ms.extractor.Extract(data)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error parsing file metadata: "+err.Error(), err)
		return
	}

	duration, err := ms.extractor.Duration(file, data)
	if err != nil {
		duration = 0
	}

	meta := models.TrackMetadata{
		Title:    tags.Title,
		Artist:   tags.Artist,
		Album:    tags.Album,
		Duration: duration,
	}

	if len(tags.Pictures) > 0 {
		pic := tags.Pictures[0]
		dataURL := "data:" + pic.Format + ";base64," + base64.StdEncoding.EncodeToString(pic.Data)
		meta.Picture = &dataURL
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, meta)
}
