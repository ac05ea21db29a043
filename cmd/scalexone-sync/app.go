package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	scalexone "github.com/creastat/scalexone"
	"github.com/creastat/scalexone/config"
	"github.com/creastat/scalexone/configcache"
	"github.com/creastat/scalexone/hydration"
	"github.com/creastat/scalexone/knowledge"
	"github.com/creastat/scalexone/listedit"
	"github.com/creastat/scalexone/logger"
	"github.com/creastat/scalexone/menu"
	"github.com/creastat/scalexone/objectstore"
	"github.com/creastat/scalexone/objectstore/minio"
	"github.com/creastat/scalexone/persist"
	"github.com/creastat/scalexone/profile"
	"github.com/creastat/scalexone/store"
	"github.com/creastat/scalexone/supabase"
	"github.com/creastat/scalexone/vectorstore/qdrant"
)

// app wires the state layer against one configuration.
type app struct {
	cfg *config.Config
	log *logger.Logger

	storage        persist.Storage
	store          *store.Store
	gate           *hydration.Gate
	backend        *supabase.Client
	objects        objectstore.Store
	profiles       *profile.Service
	menus          *menu.Service
	profileConfigs *configcache.Cache

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	storage, err := a.newStorage()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.storage = storage
	a.closers = append(a.closers, storage.Close)

	a.store = store.New(storage,
		store.WithKey(cfg.Persist.Key),
		store.WithHistoryLimit(cfg.Persist.HistoryLimit),
		store.WithLogger(log),
	)
	a.gate = hydration.New(a.store, log)

	a.backend, err = supabase.New(supabase.Config{
		URL:      cfg.Supabase.URL,
		APIKey:   cfg.Supabase.APIKey,
		Schema:   cfg.Supabase.Schema,
		CacheTTL: cfg.Supabase.CacheTTL,
	}, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, a.backend.Close)

	a.objects = a.backend
	if cfg.Objects.Driver == "minio" {
		mc, err := minio.New(minio.Config{
			Endpoint:        cfg.MinIO.Endpoint,
			AccessKeyID:     cfg.MinIO.AccessKeyID,
			SecretAccessKey: cfg.MinIO.SecretAccessKey,
			UseSSL:          cfg.MinIO.UseSSL,
			PublicBaseURL:   cfg.MinIO.PublicBaseURL,
			Region:          cfg.MinIO.Region,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := mc.EnsureBucket(ctx, cfg.Objects.AvatarBucket); err != nil {
			a.Close()
			return nil, err
		}
		a.objects = mc
	}

	a.profiles = profile.NewService(a.store, a.backend, a.objects,
		profile.WithBucket(cfg.Objects.AvatarBucket),
		profile.WithLogger(log),
	)

	cacheOpts := []configcache.Option{configcache.WithTTL(cfg.Cache.TTL), configcache.WithLogger(log)}
	a.menus = menu.NewService(configcache.New(a.backend.Configs(scalexone.MenuConfig),
		append(cacheOpts, configcache.WithName(string(scalexone.MenuConfig)))...))
	a.profileConfigs = configcache.New(a.backend.Configs(scalexone.ProfileConfig),
		append(cacheOpts, configcache.WithName(string(scalexone.ProfileConfig)))...)

	return a, nil
}

func (a *app) newStorage() (persist.Storage, error) {
	switch a.cfg.Persist.Driver {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		a.closers = append(a.closers, rdb.Close)
		return persist.NewStorage(persist.StorageTypeRedis,
			persist.WithRedisClient(rdb),
			persist.WithRedisTTL(a.cfg.Redis.TTL),
		)
	case "file":
		return persist.NewStorage(persist.StorageTypeFile, persist.WithDir(filepath.Clean(a.cfg.Persist.Dir)))
	default:
		return persist.NewStorage(persist.StorageType(a.cfg.Persist.Driver))
	}
}

// signIn resolves the tenant reference and, when credentials are given,
// signs the member in. Both wait for the store to hydrate. The returned id
// is always a resolved community id.
func (a *app) signIn(ctx context.Context, tenantRef, email, password string) (string, error) {
	var tenantID string
	err := a.gate.Do(ctx, func(ctx context.Context) error {
		id, err := a.backend.ResolveTenant(ctx, tenantRef)
		if err != nil {
			return fmt.Errorf("failed to resolve tenant: %w", err)
		}
		tenantID = id
		if email == "" {
			return nil
		}
		_, err = a.profiles.SignIn(ctx, email, password, tenantID)
		return err
	})
	if err != nil {
		return "", err
	}
	return tenantID, nil
}

func (a *app) channelEditor(tenantID string) *listedit.Editor {
	return listedit.NewEditor(a.backend.Collection(supabase.ChannelsCollection), tenantID,
		listedit.WithRetries(a.cfg.Cache.Retries),
		listedit.WithConcurrency(a.cfg.Cache.Concurrency),
		listedit.WithLogger(a.log),
	)
}

func (a *app) knowledge() (*knowledge.Service, error) {
	vectors, err := qdrant.New(qdrant.Config{
		URL:            a.cfg.Qdrant.URL,
		CollectionName: a.cfg.Qdrant.CollectionName,
		APIKey:         a.cfg.Qdrant.APIKey,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, vectors.Close)
	return knowledge.NewService(vectors, a.store, knowledge.WithLogger(a.log)), nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
