package store

import (
	"time"

	"github.com/creastat/scalexone/logger"
)

// DefaultKey is the storage key the snapshot is written under.
const DefaultKey = "scalexone-store"

// Option is a functional option for configuring a Store.
type Option func(*storeConfig)

type storeConfig struct {
	key          string
	log          *logger.Logger
	now          func() time.Time
	historyLimit int
	defaults     func() State
}

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(c *storeConfig) {
		c.key = key
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *storeConfig) {
		c.log = log
	}
}

// WithClock sets the time source used to stamp messages.
func WithClock(now func() time.Time) Option {
	return func(c *storeConfig) {
		c.now = now
	}
}

// WithHistoryLimit bounds the persisted conversation log. Zero keeps
// everything.
func WithHistoryLimit(limit int) Option {
	return func(c *storeConfig) {
		c.historyLimit = limit
	}
}

// WithDefaults replaces the compiled-in default state.
func WithDefaults(defaults func() State) Option {
	return func(c *storeConfig) {
		c.defaults = defaults
	}
}
