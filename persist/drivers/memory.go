package drivers

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by operations on a closed storage.
var ErrClosed = errors.New("storage closed")

// MemoryStorage keeps values in a map. Values do not survive a restart; it
// backs tests and ephemeral sessions.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		values: make(map[string]string),
	}
}

// ReadString implements persist.Storage.
func (s *MemoryStorage) ReadString(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.values == nil {
		return "", false, ErrClosed
	}
	val, ok := s.values[key]
	return val, ok, nil
}

// WriteString implements persist.Storage.
func (s *MemoryStorage) WriteString(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values == nil {
		return ErrClosed
	}
	s.values[key] = value
	return nil
}

// Remove implements persist.Storage.
func (s *MemoryStorage) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Close implements persist.Storage.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = nil
	return nil
}
