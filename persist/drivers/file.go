package drivers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage keeps one file per key under a directory. Writes go through a
// temp file and rename so a crash never leaves a half-written snapshot.
type FileStorage struct {
	mu  sync.Mutex
	dir string
}

// NewFileStorage creates the directory if needed.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

// ReadString implements persist.Storage.
func (s *FileStorage) ReadString(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}

// WriteString implements persist.Storage.
func (s *FileStorage) WriteString(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}

// Remove implements persist.Storage.
func (s *FileStorage) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Close implements persist.Storage.
func (s *FileStorage) Close() error {
	return nil
}

// path maps a key onto a file name that cannot escape the directory.
func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}
