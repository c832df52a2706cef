package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"cadenza/internal/metadata"
	"cadenza/internal/storage"

	"github.com/sirupsen/logrus"
)

// handleUpload accepts a multipart audio upload, stores the object and
// catalogs it.
func (ms *MediaServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	if !ms.config.Library.AllowUploads {
		ms.respondWithError(w, r, http.StatusForbidden, "File uploads are disabled", nil)
		return
	}

	maxSize := ms.config.Library.MaxUploadSizeMB << 20
	if err := r.ParseMultipartForm(maxSize); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Failed to parse upload form", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "No file provided", err)
		return
	}
	defer file.Close()

	filename := header.Filename
	if !ms.extractor.IsAudioFile(filename) {
		ms.respondWithError(w, r, http.StatusBadRequest,
			"Invalid file type. Supported formats: "+strings.Join(ms.config.Library.SupportedFormats, ", "), nil)
		return
	}

	// Sanitize filename to prevent path traversal
	safeFilename := filepath.Base(filename)
	if safeFilename == "." || safeFilename == "/" {
		safeFilename = "uploaded_file" + filepath.Ext(filename)
	}

	destName, err := ms.uniqueObjectName(r, safeFilename)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Failed to store file", err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Failed to read upload", err)
		return
	}

	contentType := metadata.ContentTypeFor(destName)
	if err := ms.store.Put(r.Context(), destName, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Failed to store file", err)
		return
	}

	username := principalFrom(r)
	track := ms.extractor.TrackFromObject(destName, data)
	track.Owner = username

	trackID, err := ms.catalog.InsertTrack(track)
	if err != nil {
		ms.logger.WithError(err).WithField("file", destName).Error("Failed to insert uploaded track")
	} else {
		ms.logger.WithFields(logrus.Fields{
			"username": username,
			"file":     destName,
			"track_id": trackID,
			"artist":   track.Artist,
			"title":    track.Title,
		}).Info("File uploaded and added to library")
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"success":  true,
		"message":  "File uploaded successfully",
		"filename": destName,
	})
}

// uniqueObjectName probes the store for an unused object name, appending a
// counter suffix when the upload would collide with an existing object.
func (ms *MediaServer) uniqueObjectName(r *http.Request, name string) (string, error) {
	candidate := name
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for counter := 1; ; counter++ {
		_, err := ms.store.Resolve(r.Context(), candidate)
		if errors.Is(err, storage.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s_%d%s", base, counter, ext)
	}
}
