package supabase

import (
	"context"
	"fmt"
	"io"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/creastat/scalexone/objectstore"
)

// Upload writes r to bucket/path in Supabase Storage and returns the stored
// path.
func (c *Client) Upload(ctx context.Context, bucket, path string, r io.Reader, opts objectstore.UploadOptions) (string, error) {
	if err := checkCtx(ctx); err != nil {
		return "", err
	}

	fileOpts := storage_go.FileOptions{Upsert: &opts.Upsert}
	if opts.ContentType != "" {
		fileOpts.ContentType = &opts.ContentType
	}

	// The storage client keeps per-upload headers on a shared transport.
	c.authMu.Lock()
	resp, err := c.client.Storage.UploadFile(bucket, path, r, fileOpts)
	c.authMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s/%s: %w", bucket, path, err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("failed to upload %s/%s: %s", bucket, path, resp.Error)
	}
	return path, nil
}

// PublicURL returns the public URL of bucket/path.
func (c *Client) PublicURL(bucket, path string) string {
	return c.api().Storage.GetPublicUrl(bucket, path).SignedURL
}
