package drivers

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefix for persisted client state
	defaultKeyPrefix = "scalexone:local:"
	// Default TTL for persisted keys (30 days)
	defaultTTL = 30 * 24 * time.Hour
)

// RedisStorage persists values in Redis, for clients that run server-side and
// need their state shared across instances.
type RedisStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStorage creates a Redis-backed storage.
func NewRedisStorage(client *redis.Client, prefix string, ttl time.Duration) *RedisStorage {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStorage{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// ReadString implements persist.Storage.
// Refreshes TTL on every read.
func (s *RedisStorage) ReadString(ctx context.Context, key string) (string, bool, error) {
	k := s.key(key)
	val, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	// A failed refresh only shortens the key's lifetime.
	_ = s.client.Expire(ctx, k, s.ttl).Err()

	return val, true, nil
}

// WriteString implements persist.Storage.
func (s *RedisStorage) WriteString(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, s.ttl).Err()
}

// Remove implements persist.Storage.
func (s *RedisStorage) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// Close implements persist.Storage.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

// key constructs the Redis key for a storage key.
func (s *RedisStorage) key(key string) string {
	return s.prefix + key
}
