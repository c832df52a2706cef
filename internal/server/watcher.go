package server

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"cadenza/internal/storage"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// startFileWatcher monitors the local storage root for added and removed
// audio files, keeping the catalog current without a manual sync. Only the
// local backend is watchable; remote stores rely on /api/sync.
func (ms *MediaServer) startFileWatcher() error {
	local, ok := ms.store.(*storage.LocalStore)
	if !ok {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	ms.watcher = watcher

	go ms.watchFiles()

	if err := watcher.Add(local.Root()); err != nil {
		watcher.Close()
		ms.watcher = nil
		return err
	}

	ms.logger.WithField("root", local.Root()).Info("File watcher started")
	return nil
}

// watchFiles selects on watcher channels and dispatches events.
func (ms *MediaServer) watchFiles() {
	defer ms.watcher.Close()

	for {
		select {
		case event, ok := <-ms.watcher.Events:
			if !ok {
				return
			}
			ms.handleFileEvent(event)

		case err, ok := <-ms.watcher.Errors:
			if !ok {
				return
			}
			ms.logger.WithError(err).Error("File watcher error")
		}
	}
}

// handleFileEvent applies filtering & delegates creation/removal actions.
func (ms *MediaServer) handleFileEvent(event fsnotify.Event) {
	fileName := filepath.Base(event.Name)
	if strings.HasPrefix(fileName, ".") || strings.HasSuffix(fileName, ".tmp") {
		return
	}

	if !ms.extractor.IsAudioFile(fileName) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		go func(name string) {
			time.Sleep(500 * time.Millisecond) // Ensure file is fully written
			ms.handleNewFile(name)
		}(fileName)

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		go ms.handleRemovedFile(fileName)
	}
}

// handleNewFile extracts metadata & inserts new track if unseen.
func (ms *MediaServer) handleNewFile(file string) {
	exists, err := ms.catalog.TrackExists(file)
	if err != nil {
		ms.logger.WithError(err).WithField("file", file).Error("Error checking if track exists")
		return
	}
	if exists {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	obj, err := ms.store.Resolve(ctx, file)
	if err != nil {
		ms.logger.WithError(err).WithField("file", file).Error("Error resolving new file")
		return
	}
	data, err := obj.ReadAll(ctx)
	if err != nil {
		ms.logger.WithError(err).WithField("file", file).Error("Error reading new file")
		return
	}

	track := ms.extractor.TrackFromObject(file, data)
	id, err := ms.catalog.InsertTrack(track)
	if err != nil {
		ms.logger.WithError(err).WithField("file", file).Error("Error inserting new track")
		return
	}

	ms.logger.WithFields(logrus.Fields{
		"artist": track.Artist,
		"title":  track.Title,
		"album":  track.Album,
		"id":     id,
	}).Info("Added new track")
}

// handleRemovedFile removes track rows referencing deleted audio files.
func (ms *MediaServer) handleRemovedFile(file string) {
	if err := ms.catalog.RemoveTrackByFile(file); err != nil {
		ms.logger.WithError(err).WithField("file", file).Error("Error removing track")
		return
	}

	ms.logger.WithField("file", file).Info("Removed track for deleted file")
}

// stopFileWatcher closes the watcher (idempotent).
func (ms *MediaServer) stopFileWatcher() {
	if ms.watcher != nil {
		ms.watcher.Close()
	}
}
