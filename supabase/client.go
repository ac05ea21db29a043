// Package supabase adapts the hosted Supabase backend to the ScaleXone
// repository ports.
package supabase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/creastat/scalexone/logger"
)

// Config holds Supabase connection configuration
type Config struct {
	URL      string
	APIKey   string
	Schema   string        // Default: public
	CacheTTL time.Duration // Default: 5 minutes
}

// Client implements the Store interface using Supabase
type Client struct {
	// authMu guards the session-scoped sub-clients, which sign-in replaces.
	authMu sync.RWMutex
	client *supabase.Client

	cache    *cache
	cacheTTL time.Duration
	log      *logger.Logger
}

// cache provides thread-safe caching for tenant lookups
type cache struct {
	mu    sync.RWMutex
	byRef map[string]*cacheEntry[string]
	byID  map[string]*cacheEntry[*Community]
}

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// New creates a new Supabase client
func New(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, &supabase.ClientOptions{Schema: cfg.Schema})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		client:   client,
		cacheTTL: cfg.CacheTTL,
		log:      logger.OrNop(log).With("component", "supabase"),
		cache: &cache{
			byRef: make(map[string]*cacheEntry[string]),
			byID:  make(map[string]*cacheEntry[*Community]),
		},
	}, nil
}

// Close closes the Supabase client
func (c *Client) Close() error {
	// Supabase client doesn't require explicit close
	return nil
}

// api returns the current session-scoped client.
func (c *Client) api() *supabase.Client {
	c.authMu.RLock()
	defer c.authMu.RUnlock()
	return c.client
}

func getFromCache[T any](mu *sync.RWMutex, m map[string]*cacheEntry[T], key string) (T, bool) {
	mu.RLock()
	defer mu.RUnlock()

	if e, ok := m[key]; ok && time.Now().Before(e.expiresAt) {
		return e.value, true
	}
	var zero T
	return zero, false
}

func addToCache[T any](mu *sync.RWMutex, m map[string]*cacheEntry[T], key string, value T, ttl time.Duration) {
	mu.Lock()
	defer mu.Unlock()

	m[key] = &cacheEntry[T]{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

// clearCache drops every cached lookup. Lookups are scoped by row-level
// security, so they must not outlive the session that made them.
func (c *Client) clearCache() {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	clear(c.cache.byRef)
	clear(c.cache.byID)
}

// checkCtx fails fast on a done context; the underlying HTTP clients do not
// take one.
func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// Compile-time check that Client implements Store
var _ Store = (*Client)(nil)
