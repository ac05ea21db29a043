package persist

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Option is a functional option for configuring a storage driver.
type Option func(*storageConfig)

// storageConfig holds configuration for storage drivers.
type storageConfig struct {
	redisClient *redis.Client
	redisTTL    time.Duration
	redisPrefix string
	dir         string
}

// WithRedisClient sets the Redis client for the Redis driver.
func WithRedisClient(client *redis.Client) Option {
	return func(c *storageConfig) {
		c.redisClient = client
	}
}

// WithRedisTTL sets the TTL for Redis keys.
func WithRedisTTL(ttl time.Duration) Option {
	return func(c *storageConfig) {
		c.redisTTL = ttl
	}
}

// WithRedisPrefix namespaces Redis keys, e.g. per device or member.
func WithRedisPrefix(prefix string) Option {
	return func(c *storageConfig) {
		c.redisPrefix = prefix
	}
}

// WithDir sets the directory used by the file driver.
func WithDir(dir string) Option {
	return func(c *storageConfig) {
		c.dir = dir
	}
}
