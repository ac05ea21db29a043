// Package config loads the state layer configuration from YAML and the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config mirrors the config.yaml layout.
type Config struct {
	Supabase SupabaseConfig `mapstructure:"supabase"`
	Persist  PersistConfig  `mapstructure:"persist"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
	Qdrant   QdrantConfig   `mapstructure:"qdrant"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Objects  ObjectsConfig  `mapstructure:"objects"`
}

type SupabaseConfig struct {
	URL      string        `mapstructure:"url"`
	APIKey   string        `mapstructure:"api_key"`
	Schema   string        `mapstructure:"schema"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// PersistConfig selects the local persistent storage driver.
type PersistConfig struct {
	Driver       string `mapstructure:"driver"` // memory, file or redis
	Dir          string `mapstructure:"dir"`
	Key          string `mapstructure:"key"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// CacheConfig tunes the remote config cache and the list editors.
type CacheConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	Retries     int           `mapstructure:"retries"`
	Concurrency int           `mapstructure:"concurrency"`
}

type LogConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

type QdrantConfig struct {
	URL            string `mapstructure:"url"`
	APIKey         string `mapstructure:"api_key"`
	CollectionName string `mapstructure:"collection_name"`
}

type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	Region          string `mapstructure:"region"`
}

// ObjectsConfig picks the object storage backend for uploads.
type ObjectsConfig struct {
	Driver       string `mapstructure:"driver"` // supabase or minio
	AvatarBucket string `mapstructure:"avatar_bucket"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("supabase.schema", "public")
	v.SetDefault("supabase.cache_ttl", 5*time.Minute)
	v.SetDefault("persist.driver", "file")
	v.SetDefault("persist.dir", ".scalexone")
	v.SetDefault("persist.key", "scalexone-store")
	v.SetDefault("persist.history_limit", 200)
	v.SetDefault("redis.ttl", 24*time.Hour)
	v.SetDefault("cache.ttl", 60*time.Second)
	v.SetDefault("cache.retries", 1)
	v.SetDefault("cache.concurrency", 8)
	v.SetDefault("log.mode", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("objects.driver", "supabase")
	v.SetDefault("objects.avatar_bucket", "avatars")
}

// Load reads the YAML file at path (optional when empty) and overlays
// SCALEXONE_* environment variables, e.g. SCALEXONE_SUPABASE_API_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SCALEXONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		"supabase.url", "supabase.api_key",
		"redis.addr", "redis.password",
		"qdrant.url", "qdrant.api_key", "qdrant.collection_name",
		"minio.endpoint", "minio.access_key_id", "minio.secret_access_key",
	} {
		_ = v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Persist.Driver {
	case "memory", "file":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis persist driver")
		}
	default:
		return fmt.Errorf("unknown persist driver %q", c.Persist.Driver)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	switch c.Objects.Driver {
	case "supabase", "minio":
	default:
		return fmt.Errorf("unknown objects driver %q", c.Objects.Driver)
	}
	return nil
}
