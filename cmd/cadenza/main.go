package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cadenza/internal/catalog"
	"cadenza/internal/config"
	"cadenza/internal/server"
	"cadenza/internal/storage"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := "./config.toml"

	// Initialize basic logger for startup
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Load .env before the config so env overrides take effect
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			logger.WithError(err).Warn("Could not load .env file")
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}

	configureLogger(logger, &cfg.Logging)

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		logger.WithError(err).Fatal("Error initializing catalog")
	}
	defer cat.Close()

	store, err := storage.NewStore(&cfg.Storage, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error initializing storage")
	}

	mediaServer, err := server.NewMediaServer(cfg, cat, store, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error creating media server")
	}

	if cfg.Library.SyncOnStartup {
		added, removed, err := mediaServer.SyncLibrary(context.Background())
		if err != nil {
			logger.WithError(err).Fatal("Error syncing library")
		}
		logger.WithFields(logrus.Fields{
			"added":   added,
			"removed": removed,
		}).Info("Startup library sync finished")

		if count, err := cat.CountTracks(); err == nil && count == 0 {
			logger.WithField("supported_formats", cfg.Library.SupportedFormats).Warn("No supported audio files found in storage")
		}
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := mediaServer.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-c

	logger.Info("Received shutdown signal")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mediaServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}

// configureLogger applies the configured level and format.
func configureLogger(logger *logrus.Logger, cfg *config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}
