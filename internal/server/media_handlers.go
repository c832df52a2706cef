package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cadenza/internal/covercache"
	"cadenza/internal/metadata"
	"cadenza/internal/storage"

	"github.com/sirupsen/logrus"
)

// handleMedia routes /media/{file} and /media/{file}/cover. The identifier
// segment is taken from the escaped path so its own decoding stays under our
// control.
func (ms *MediaServer) handleMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pathParts := strings.Split(r.URL.EscapedPath(), "/")
	if len(pathParts) < 3 || pathParts[2] == "" {
		http.Error(w, "No file specified", http.StatusBadRequest)
		return
	}

	file, err := identifierFromSegment(pathParts[2])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if len(pathParts) >= 4 && pathParts[3] == "cover" {
		ms.serveCover(w, r, file)
		return
	}

	ms.serveTrack(w, r, file)
}

// serveTrack streams an audio object with single-range byte serving for
// seeking support.
func (ms *MediaServer) serveTrack(w http.ResponseWriter, r *http.Request, file string) {
	obj, err := ms.store.Resolve(r.Context(), file)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "File not found: "+file, http.StatusNotFound)
			return
		}
		ms.logger.WithError(err).WithField("file", file).Error("Failed to resolve media object")
		http.Error(w, "Error accessing file", http.StatusInternalServerError)
		return
	}

	size := obj.Size()
	w.Header().Set("Content-Type", metadata.ContentTypeFor(file))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "public, max-age=3600")

	decision, start, end := negotiateRange(r.Header.Get("Range"), size)
	switch decision {
	case rangeUnsatisfiable:
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)

	case rangePartial:
		data, err := obj.ReadRange(r.Context(), start, end)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			ms.logger.WithError(err).WithField("file", file).Error("Failed to read media range")
			http.Error(w, "Error reading file", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(data)

	default:
		data, err := obj.ReadAll(r.Context())
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			ms.logger.WithError(err).WithField("file", file).Error("Failed to read media object")
			http.Error(w, "Error reading file", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
		w.Write(data)
	}
}

// serveCover returns the embedded cover art of an audio object. Extracted
// covers are memoized, so only the first request for a file pays the parse
// cost. A file without a cover is not cached; a later upload replacing the
// file can therefore start serving one without a restart.
func (ms *MediaServer) serveCover(w http.ResponseWriter, r *http.Request, file string) {
	if entry, ok := ms.covers.Get(file); ok {
		ms.writeCover(w, entry)
		return
	}

	obj, err := ms.store.Resolve(r.Context(), file)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "File not found: "+file, http.StatusNotFound)
			return
		}
		ms.logger.WithError(err).WithField("file", file).Error("Failed to resolve media object")
		http.Error(w, "Error accessing file", http.StatusInternalServerError)
		return
	}

	data, err := obj.ReadAll(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		ms.logger.WithError(err).WithField("file", file).Error("Failed to read media object")
		http.Error(w, "Error reading file", http.StatusInternalServerError)
		return
	}

	picture, err := ms.extractor.FrontCover(data)
	if err != nil {
		if errors.Is(err, metadata.ErrNoPicture) {
			http.Error(w, "No cover found in file", http.StatusNotFound)
			return
		}
		ms.logger.WithError(err).WithField("file", file).Error("Failed to parse cover metadata")
		http.Error(w, "Error parsing file metadata: "+err.Error(), http.StatusInternalServerError)
		return
	}

	entry := covercache.Entry{Data: picture.Data, Format: picture.Format}
	ms.covers.Put(file, entry)

	ms.logger.WithFields(logrus.Fields{
		"file":   file,
		"format": picture.Format,
		"bytes":  len(picture.Data),
	}).Debug("Extracted cover art")

	ms.writeCover(w, entry)
}

func (ms *MediaServer) writeCover(w http.ResponseWriter, entry covercache.Entry) {
	w.Header().Set("Content-Type", entry.Format)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(entry.Data)))
	w.Write(entry.Data)
}
