// Package configcache caches per-tenant configuration blobs (menu layout,
// user profile configuration) for a bounded time to avoid redundant remote
// reads.
package configcache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	scalexone "github.com/creastat/scalexone"
	"github.com/creastat/scalexone/logger"
)

// DefaultTTL is how long a fetched blob is served without revalidation.
const DefaultTTL = 60 * time.Second

// Entry is a cached configuration blob.
type Entry struct {
	TenantID  string
	Config    json.RawMessage
	FetchedAt time.Time

	// Stale is set when a refetch failed and the last known good blob is
	// being served instead.
	Stale bool
}

// Option is a functional option for configuring a Cache.
type Option func(*Cache)

// WithTTL sets the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Cache) {
		c.log = log
	}
}

// WithName labels log lines, e.g. "menu" or "profile".
func WithName(name string) Option {
	return func(c *Cache) {
		c.name = name
	}
}

// Cache is a TTL cache in front of a TenantConfigRepo.
type Cache struct {
	repo scalexone.TenantConfigRepo
	ttl  time.Duration
	now  func() time.Time
	log  *logger.Logger
	name string

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]*Entry
	// gens is bumped by Save and Invalidate so a read issued before either
	// cannot overwrite the newer entry.
	gens map[string]uint64
}

// New creates a cache over repo.
func New(repo scalexone.TenantConfigRepo, opts ...Option) *Cache {
	c := &Cache{
		repo:    repo,
		ttl:     DefaultTTL,
		now:     time.Now,
		entries: make(map[string]*Entry),
		gens:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.OrNop(c.log).With("component", "configcache", "config", c.name)
	return c
}

// Fetch returns the tenant's configuration.
//
// An empty tenant id yields (nil, nil) without touching the backend. A cached
// entry younger than the TTL is returned as is. Otherwise exactly one remote
// read is issued (concurrent callers for the same tenant share it) and its
// result cached with a fresh timestamp.
//
// When the remote read fails the cache is left unchanged. If a previous entry
// exists it is returned marked Stale together with the error, so callers can
// keep rendering it while surfacing the failure; otherwise the entry is nil.
func (c *Cache) Fetch(ctx context.Context, tenantID string) (*Entry, error) {
	if tenantID == "" {
		return nil, nil
	}

	if e, ok := c.lookup(tenantID); ok && c.fresh(e) {
		return e, nil
	}

	v, err, _ := c.group.Do(tenantID, func() (any, error) {
		gen := c.generation(tenantID)
		blob, err := c.repo.GetConfig(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if e, ok := c.storeIf(tenantID, blob, gen); ok {
			return e, nil
		}
		c.log.Debug("discarding superseded read", "tenant_id", tenantID)
		if e, ok := c.lookup(tenantID); ok {
			return e, nil
		}
		return &Entry{TenantID: tenantID, Config: blob, FetchedAt: c.now()}, nil
	})
	if err != nil {
		err = fmt.Errorf("failed to fetch %s config: %w", c.name, err)
		if prev, ok := c.lookup(tenantID); ok {
			c.log.Warn("serving stale config", "tenant_id", tenantID, "fetched_at", prev.FetchedAt, "error", err)
			prev.Stale = true
			return prev, err
		}
		return nil, err
	}
	return copyEntry(v.(*Entry)), nil
}

// Save upserts the blob remotely, then replaces the cached entry with blob
// and a fresh timestamp regardless of what the backend echoes.
func (c *Cache) Save(ctx context.Context, tenantID string, blob json.RawMessage) (*Entry, error) {
	if tenantID == "" {
		return nil, scalexone.ErrTenantRequired
	}
	if err := c.repo.PutConfig(ctx, tenantID, blob); err != nil {
		return nil, fmt.Errorf("failed to save %s config: %w", c.name, err)
	}

	e := c.newEntry(tenantID, blob)
	c.mu.Lock()
	c.gens[tenantID]++
	c.entries[tenantID] = e
	c.mu.Unlock()
	return copyEntry(e), nil
}

// Invalidate drops the tenant's entry so the next Fetch goes remote.
func (c *Cache) Invalidate(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[tenantID]++
	delete(c.entries, tenantID)
}

func (c *Cache) fresh(e *Entry) bool {
	return c.now().Sub(e.FetchedAt) < c.ttl
}

func (c *Cache) lookup(tenantID string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[tenantID]
	if !ok {
		return nil, false
	}
	return copyEntry(e), true
}

func (c *Cache) generation(tenantID string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[tenantID]
}

// storeIf caches blob only if no Save or Invalidate happened since gen.
func (c *Cache) storeIf(tenantID string, blob json.RawMessage, gen uint64) (*Entry, bool) {
	e := c.newEntry(tenantID, blob)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[tenantID] != gen {
		return nil, false
	}
	c.entries[tenantID] = e
	return e, true
}

func (c *Cache) newEntry(tenantID string, blob json.RawMessage) *Entry {
	return &Entry{
		TenantID:  tenantID,
		Config:    append(json.RawMessage(nil), blob...),
		FetchedAt: c.now(),
	}
}

func copyEntry(e *Entry) *Entry {
	cp := *e
	cp.Config = append(json.RawMessage(nil), e.Config...)
	return &cp
}
