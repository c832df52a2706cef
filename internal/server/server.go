package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cadenza/internal/auth"
	"cadenza/internal/catalog"
	"cadenza/internal/config"
	"cadenza/internal/covercache"
	"cadenza/internal/metadata"
	"cadenza/internal/storage"
	"cadenza/internal/tunnel"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// MediaServer ties the catalog, the object store and the metadata extractor
// together behind the HTTP API.
type MediaServer struct {
	catalog     *catalog.Catalog
	store       storage.Store
	config      *config.Config
	extractor   *metadata.Extractor
	covers      *covercache.Cache
	authService *auth.Service
	tunnel      *tunnel.Service
	watcher     *fsnotify.Watcher
	logger      *logrus.Logger
	mux         *http.ServeMux
	httpServer  *http.Server
}

// NewMediaServer creates a new media server instance
func NewMediaServer(cfg *config.Config, cat *catalog.Catalog, store storage.Store, logger *logrus.Logger) (*MediaServer, error) {
	covers, err := covercache.New(cfg.Cache.CoverCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover cache: %w", err)
	}

	authService, err := auth.NewService(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	tunnelService, err := tunnel.NewService(&cfg.Tunnel)
	if err != nil {
		logger.WithError(err).Warn("Tunnel service not available")
		tunnelService = nil
	}

	server := &MediaServer{
		catalog:     cat,
		store:       store,
		config:      cfg,
		extractor:   metadata.NewExtractor(cfg.Library.SupportedFormats),
		covers:      covers,
		authService: authService,
		tunnel:      tunnelService,
		logger:      logger,
		mux:         http.NewServeMux(),
	}

	server.setupRoutes()
	return server, nil
}

func (ms *MediaServer) setupRoutes() {
	ms.mux.HandleFunc("/media/", ms.requireAuth(ms.handleMedia))
	ms.mux.HandleFunc("/api/tracks", ms.requireAuth(ms.handleGetTracks))
	ms.mux.HandleFunc("/api/tracks/count", ms.requireAuth(ms.handleGetTrackCount))
	ms.mux.HandleFunc("/api/tracks/", ms.requireAuth(ms.handleTrackByFile))
	ms.mux.HandleFunc("/api/metadata", ms.requireAuth(ms.handleGetMetadata))
	ms.mux.HandleFunc("/api/upload", ms.requireAuth(ms.handleUpload))
	ms.mux.HandleFunc("/api/sync", ms.requireAuth(ms.handleSync))

	ms.mux.HandleFunc("/api/playlists", ms.requireAuth(ms.handlePlaylists))
	ms.mux.HandleFunc("/api/playlists/", ms.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(r.URL.Path, "/")
		if len(pathParts) >= 5 && pathParts[4] == "tracks" {
			switch r.Method {
			case http.MethodGet:
				ms.handleGetPlaylistTracks(w, r)
			case http.MethodPost:
				ms.handleAddTrackToPlaylist(w, r)
			case http.MethodDelete:
				ms.handleRemoveTrackFromPlaylist(w, r)
			default:
				ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
			}
		} else {
			switch r.Method {
			case http.MethodDelete:
				ms.handleDeletePlaylist(w, r)
			case http.MethodPut:
				ms.handleUpdatePlaylist(w, r)
			default:
				ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
			}
		}
	}))

	ms.mux.HandleFunc("/api/auth/login", ms.handleLogin)
	ms.mux.HandleFunc("/api/auth/logout", ms.handleLogout)
	ms.mux.HandleFunc("/api/auth/register", ms.handleRegister)
	ms.mux.HandleFunc("/api/auth/me", ms.handleCurrentUser)

	ms.mux.HandleFunc("/health", ms.handleHealthCheck)
}

// Handler returns the full middleware-wrapped handler chain.
func (ms *MediaServer) Handler() http.Handler {
	return ms.panicRecoveryMiddleware(ms.corsMiddleware(ms.requestLoggingMiddleware(ms.mux)))
}

// SyncLibrary reconciles the catalog against the object store: objects
// without a catalog row get extracted and inserted, rows whose object has
// disappeared are removed. Returns the number of tracks added and removed.
func (ms *MediaServer) SyncLibrary(ctx context.Context) (added, removed int, err error) {
	names, err := ms.store.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list store: %w", err)
	}

	known, err := ms.catalog.Files()
	if err != nil {
		return 0, 0, fmt.Errorf("list catalog: %w", err)
	}

	inStore := make(map[string]bool, len(names))
	for _, name := range names {
		inStore[name] = true
	}
	inCatalog := make(map[string]bool, len(known))
	for _, file := range known {
		inCatalog[file] = true
	}

	for _, name := range names {
		if !ms.extractor.IsAudioFile(name) || inCatalog[name] {
			continue
		}

		obj, err := ms.store.Resolve(ctx, name)
		if err != nil {
			ms.logger.WithError(err).WithField("file", name).Error("Failed to resolve object during sync")
			continue
		}
		data, err := obj.ReadAll(ctx)
		if err != nil {
			ms.logger.WithError(err).WithField("file", name).Error("Failed to read object during sync")
			continue
		}

		track := ms.extractor.TrackFromObject(name, data)
		if _, err := ms.catalog.InsertTrack(track); err != nil {
			ms.logger.WithError(err).WithField("file", name).Error("Failed to insert track during sync")
			continue
		}
		added++
	}

	for _, file := range known {
		if inStore[file] {
			continue
		}
		if err := ms.catalog.RemoveTrackByFile(file); err != nil {
			ms.logger.WithError(err).WithField("file", file).Error("Failed to remove stale track during sync")
			continue
		}
		removed++
	}

	ms.logger.WithFields(logrus.Fields{
		"added":   added,
		"removed": removed,
	}).Info("Library sync complete")

	return added, removed, nil
}

// Start starts the media server and blocks until the listener fails.
func (ms *MediaServer) Start() error {
	if ms.config.Library.WatchForChanges && ms.config.Storage.Backend == "local" {
		if err := ms.startFileWatcher(); err != nil {
			ms.logger.WithError(err).Warn("Could not start file watcher")
		} else {
			defer ms.stopFileWatcher()
		}
	}

	count, err := ms.catalog.CountTracks()
	if err != nil {
		count = 0
	}

	localAddress := fmt.Sprintf("http://%s", ms.config.GetAddress())
	ms.logger.WithFields(logrus.Fields{
		"address": localAddress,
		"tracks":  count,
	}).Info("Media server starting")

	if ms.tunnel != nil {
		if err := ms.tunnel.StartTunnel(context.Background(), localAddress); err != nil {
			ms.logger.WithError(err).Warn("Could not start tunnel")
		} else {
			defer ms.tunnel.Stop()
		}
	}

	ms.httpServer = &http.Server{
		Addr:        ms.config.GetAddress(),
		Handler:     ms.Handler(),
		ReadTimeout: time.Duration(ms.config.Server.ReadTimeout) * time.Second,
	}

	if err := ms.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the media server
func (ms *MediaServer) Shutdown(ctx context.Context) error {
	ms.logger.Info("Shutting down media server")

	ms.stopFileWatcher()
	if ms.tunnel != nil {
		ms.tunnel.Stop()
	}

	if ms.httpServer != nil {
		return ms.httpServer.Shutdown(ctx)
	}
	return nil
}
