package persist

import (
	scalexone "github.com/creastat/scalexone"
	"github.com/creastat/scalexone/persist/drivers"
)

// StorageType represents the type of local storage driver.
type StorageType string

const (
	StorageTypeMemory StorageType = "memory"
	StorageTypeFile   StorageType = "file"
	StorageTypeRedis  StorageType = "redis"
)

// NewStorage creates a Storage of the given type.
// The file driver requires WithDir, the Redis driver WithRedisClient.
func NewStorage(storageType StorageType, opts ...Option) (Storage, error) {
	config := &storageConfig{}

	for _, opt := range opts {
		opt(config)
	}

	switch storageType {
	case StorageTypeMemory:
		return drivers.NewMemoryStorage(), nil

	case StorageTypeFile:
		if config.dir == "" {
			return nil, scalexone.ErrInvalidConfig
		}
		return drivers.NewFileStorage(config.dir)

	case StorageTypeRedis:
		if config.redisClient == nil {
			return nil, scalexone.ErrInvalidConfig
		}
		return drivers.NewRedisStorage(config.redisClient, config.redisPrefix, config.redisTTL), nil

	default:
		return nil, scalexone.ErrInvalidStoreType
	}
}

// Compile-time checks that every driver implements Storage.
var (
	_ Storage = (*drivers.MemoryStorage)(nil)
	_ Storage = (*drivers.FileStorage)(nil)
	_ Storage = (*drivers.RedisStorage)(nil)
)
