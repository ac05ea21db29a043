// Package objectstore is a technology-agnostic interface for object storage.
// Implementations include Supabase Storage and MinIO.
package objectstore

import (
	"context"
	"io"
)

// Store uploads objects and resolves their public URLs.
type Store interface {
	// Upload writes r to bucket/path and returns the stored path.
	Upload(ctx context.Context, bucket, path string, r io.Reader, opts UploadOptions) (string, error)

	// PublicURL returns the public URL of bucket/path.
	PublicURL(bucket, path string) string
}

// UploadOptions controls an upload.
type UploadOptions struct {
	// ContentType is the object's MIME type.
	ContentType string

	// Upsert overwrites an existing object instead of failing.
	Upsert bool

	// Size is the object size in bytes, or -1 when unknown.
	Size int64
}
