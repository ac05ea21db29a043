// Package persist provides the local persistent storage the client store
// serializes itself into.
package persist

import "context"

// Storage is a string key/value store that survives process restarts.
type Storage interface {
	// ReadString returns the value under key. A missing key reports
	// ok=false with a nil error.
	ReadString(ctx context.Context, key string) (value string, ok bool, err error)

	// WriteString stores value under key, replacing any previous value.
	WriteString(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases any resources held by the storage.
	Close() error
}
