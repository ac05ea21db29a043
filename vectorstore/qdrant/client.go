package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	scalexone "github.com/creastat/scalexone"
	"github.com/creastat/scalexone/vectorstore"
)

// Config holds Qdrant connection configuration.
type Config struct {
	// URL is the Qdrant server address (e.g., "https://example.qdrant.io:6334").
	URL string

	// CollectionName is the name of the knowledge collection.
	CollectionName string

	// APIKey is optional API key for authentication.
	APIKey string
}

// Client implements vectorstore.VectorStore for Qdrant.
type Client struct {
	client         *qdrant.Client
	collectionName string
}

// New creates a new Qdrant client.
func New(cfg Config) (*Client, error) {
	host, port, useTLS, err := parseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.CollectionName == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}

	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &Client{
		client:         qdrantClient,
		collectionName: cfg.CollectionName,
	}, nil
}

// parseURL splits a Qdrant address into gRPC host, port and TLS flag. A
// missing scheme means https; a missing port means 6334.
func parseURL(raw string) (host string, port int, useTLS bool, err error) {
	if raw == "" {
		return "", 0, false, fmt.Errorf("qdrant url is required")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	port = 6334
	if u.Port() != "" {
		port, err = strconv.Atoi(u.Port())
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid port: %w", err)
		}
	}
	return u.Hostname(), port, u.Scheme == "https", nil
}

// Search implements vectorstore.VectorStore.
func (c *Client) Search(ctx context.Context, vector []float32, filter vectorstore.SearchFilter, limit int) ([]scalexone.KnowledgeSnippet, error) {
	qdrantFilter, err := buildQdrantFilter(filter)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []scalexone.KnowledgeSnippet{}, nil
	}

	req := &qdrant.QueryPoints{
		CollectionName: c.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		Filter:         qdrantFilter,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if filter.MinScore > 0 {
		req.ScoreThreshold = qdrant.PtrOf(filter.MinScore)
	}

	points, err := c.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	snippets := make([]scalexone.KnowledgeSnippet, 0, len(points))
	for _, point := range points {
		if filter.MinScore > 0 && point.Score < filter.MinScore {
			continue
		}
		snippets = append(snippets, pointToSnippet(point))
	}
	return snippets, nil
}

// Close implements vectorstore.VectorStore.
func (c *Client) Close() error {
	return c.client.Close()
}

// Compile-time check that Client implements VectorStore.
var _ vectorstore.VectorStore = (*Client)(nil)
