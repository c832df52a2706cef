package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// LocalStore serves objects from a directory on disk. Object identifiers map
// to file names under the root; identifiers that would resolve outside the
// root are treated as absent.
type LocalStore struct {
	root   string
	logger *logrus.Logger
}

// NewLocalStore creates a LocalStore rooted at the given directory, creating
// it if necessary.
func NewLocalStore(root string, logger *logrus.Logger) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStore{root: abs, logger: logger}, nil
}

// Root returns the absolute storage root directory.
func (s *LocalStore) Root() string {
	return s.root
}

// objectPath maps an identifier to an on-disk path, rejecting anything that
// escapes the storage root.
func (s *LocalStore) objectPath(name string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(name))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrNotFound
	}
	return p, nil
}

// Resolve implements Store.
func (s *LocalStore) Resolve(ctx context.Context, name string) (Object, error) {
	p, err := s.objectPath(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	return &localObject{path: p, size: info.Size()}, nil
}

// Put implements Store.
func (s *LocalStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	p, err := s.objectPath(name)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(p)
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Delete implements Store.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	p, err := s.objectPath(name)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// List implements Store. Only regular, non-hidden files at the top level of
// the root are considered objects.
func (s *LocalStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list storage root: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// localObject is a resolved file on disk. The path has already been
// validated against the storage root.
type localObject struct {
	path string
	size int64
}

func (o *localObject) Size() int64 {
	return o.size
}

func (o *localObject) ReadRange(ctx context.Context, start, end int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(o.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek object: %w", err)
	}

	buf := make([]byte, end-start+1)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("read object window: %w", err)
	}
	return buf, nil
}

func (o *localObject) ReadAll(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(o.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}
