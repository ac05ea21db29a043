package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	scalexone "github.com/creastat/scalexone"
)

// configRepo stores one kind of configuration blob, one row per community.
type configRepo struct {
	c     *Client
	table string
}

// Configs returns the repo for one kind of per-tenant configuration.
func (c *Client) Configs(kind scalexone.ConfigKind) scalexone.TenantConfigRepo {
	return &configRepo{c: c, table: kind.Table()}
}

func (r *configRepo) GetConfig(ctx context.Context, tenantID string) (json.RawMessage, error) {
	if r.table == "" {
		return nil, scalexone.ErrInvalidConfig
	}
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	var rows []ConfigRow
	_, err := r.c.api().From(r.table).
		Select("community_id,config,updated_at", "", false).
		Eq("community_id", tenantID).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", r.table, err)
	}
	if len(rows) == 0 || string(rows[0].Config) == "null" {
		return nil, nil
	}
	return rows[0].Config, nil
}

func (r *configRepo) PutConfig(ctx context.Context, tenantID string, blob json.RawMessage) error {
	if r.table == "" {
		return scalexone.ErrInvalidConfig
	}
	if err := checkCtx(ctx); err != nil {
		return err
	}

	now := time.Now().UTC()
	row := ConfigRow{CommunityID: tenantID, Config: blob, UpdatedAt: &now}

	var saved []ConfigRow
	_, err := r.c.api().From(r.table).
		Upsert(row, "community_id", "representation", "").
		ExecuteTo(&saved)
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", r.table, err)
	}
	return nil
}

// Compile-time check that configRepo implements TenantConfigRepo
var _ scalexone.TenantConfigRepo = (*configRepo)(nil)
