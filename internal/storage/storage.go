package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cadenza/internal/config"

	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when the object store has no object for the
// requested logical file identifier. Callers use it to distinguish absence
// from I/O failure.
var ErrNotFound = errors.New("object not found")

// Object is a handle to a single stored blob. Byte windows are inclusive on
// both ends, matching HTTP range semantics.
type Object interface {
	// Size returns the total object size in bytes.
	Size() int64
	// ReadRange reads the inclusive [start, end] byte window.
	ReadRange(ctx context.Context, start, end int64) ([]byte, error)
	// ReadAll reads the entire object.
	ReadAll(ctx context.Context) ([]byte, error)
}

// Store abstracts where the library's bytes live. Both the local filesystem
// and MinIO backends implement it; handlers are written once against this
// interface and never see the backend.
type Store interface {
	// Resolve maps a logical file identifier to an Object, or ErrNotFound.
	Resolve(ctx context.Context, name string) (Object, error)
	// Put writes a new object under the given identifier.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	// Delete removes an object, or returns ErrNotFound.
	Delete(ctx context.Context, name string) error
	// List returns the identifiers of all stored objects.
	List(ctx context.Context) ([]string, error)
}

// NewStore constructs the Store selected by configuration.
func NewStore(cfg *config.StorageConfig, logger *logrus.Logger) (Store, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalStore(cfg.Root, logger)
	case "minio":
		return NewMinioStore(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
