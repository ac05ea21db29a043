package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/creastat/scalexone/objectstore"
)

// ErrObjectExists is returned when a non-upsert upload targets an existing
// object.
var ErrObjectExists = errors.New("object already exists")

// Config holds MinIO connection configuration.
type Config struct {
	// Endpoint is the host[:port] of the MinIO server.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool

	// Region skips bucket location lookups when set.
	Region string

	// PublicBaseURL is where public buckets are served from. Defaults to
	// the endpoint.
	PublicBaseURL string
}

// Client implements objectstore.Store for MinIO.
type Client struct {
	client     *minio.Client
	publicBase string
}

// New creates a new MinIO client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	base := cfg.PublicBaseURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}

	return &Client{
		client:     mc,
		publicBase: strings.TrimRight(base, "/"),
	}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := c.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Upload implements objectstore.Store.
func (c *Client) Upload(ctx context.Context, bucket, path string, r io.Reader, opts objectstore.UploadOptions) (string, error) {
	if !opts.Upsert {
		_, err := c.client.StatObject(ctx, bucket, path, minio.StatObjectOptions{})
		if err == nil {
			return "", fmt.Errorf("%s/%s: %w", bucket, path, ErrObjectExists)
		}
		if minio.ToErrorResponse(err).Code != "NoSuchKey" {
			return "", fmt.Errorf("failed to stat object: %w", err)
		}
	}

	size := opts.Size
	if size == 0 {
		size = -1
	}
	info, err := c.client.PutObject(ctx, bucket, path, r, size, minio.PutObjectOptions{
		ContentType: opts.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return info.Key, nil
}

// PublicURL implements objectstore.Store.
func (c *Client) PublicURL(bucket, path string) string {
	return c.publicBase + "/" + url.PathEscape(bucket) + "/" + escapePath(path)
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// Compile-time check that Client implements objectstore.Store.
var _ objectstore.Store = (*Client)(nil)
