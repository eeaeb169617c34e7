// Package localfs implements the object store port on a filesystem
// directory through afero.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/Strob0t/showcase/internal/port/objectstore"
)

// Store keeps objects as files below a root directory.
type Store struct {
	fs        afero.Fs
	publicURL string
}

// New creates a Store rooted at dir on fsys. Keys map to paths below dir.
func New(fsys afero.Fs, dir, publicURL string) *Store {
	return &Store{
		fs:        afero.NewBasePathFs(fsys, dir),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// NewOS creates a Store on the operating system filesystem.
func NewOS(dir, publicURL string) *Store {
	return New(afero.NewOsFs(), dir, publicURL)
}

func cleanKey(key string) (string, error) {
	p := path.Clean("/" + key)
	if p == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return p, nil
}

// Put writes data under key, creating parent directories.
func (s *Store) Put(_ context.Context, key string, data []byte, _ string) error {
	p, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return fmt.Errorf("localfs mkdir %s: %w", key, err)
	}
	if err := afero.WriteFile(s.fs, p, data, 0o644); err != nil {
		return fmt.Errorf("localfs write %s: %w", key, err)
	}
	return nil
}

// Get reads the object stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	p, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("localfs read %s: %w", key, objectstore.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("localfs read %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the object stored under key.
func (s *Store) Delete(_ context.Context, key string) error {
	p, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("localfs delete %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL of key.
func (s *Store) URL(key string) string {
	return s.publicURL + "/" + strings.TrimLeft(key, "/")
}

var _ objectstore.Store = (*Store)(nil)
