package scalexone

import (
	"context"
	"encoding/json"
)

// TenantConfigRepo reads and writes one kind of per-tenant configuration blob.
type TenantConfigRepo interface {
	// GetConfig returns the stored blob, or nil when the tenant has none yet.
	GetConfig(ctx context.Context, tenantID string) (json.RawMessage, error)

	// PutConfig inserts or replaces the blob keyed by tenant id.
	PutConfig(ctx context.Context, tenantID string, blob json.RawMessage) error
}

// OrderedCollectionRepo reads an ordered collection and persists per-item order.
type OrderedCollectionRepo interface {
	// List returns the collection under parentID sorted by order.
	List(ctx context.Context, parentID string) ([]OrderedItem, error)

	// UpdateOrder is a single point update of one item's order.
	UpdateOrder(ctx context.Context, id string, order int) error
}

// TenantResolver turns a human reference (slug, name or id) into a tenant id.
// Implementations must fail with ErrTenantNotFound or ErrAmbiguousTenant
// rather than fall back to a default tenant.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, ref string) (string, error)
}
