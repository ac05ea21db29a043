package supabase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/supabase-community/gotrue-go/types"

	scalexone "github.com/creastat/scalexone"
	"github.com/creastat/scalexone/objectstore"
)

// Store provides access to the hosted backend: tables, procedures, auth and
// object storage.
type Store interface {
	scalexone.TenantResolver
	objectstore.Store

	// Configs returns the repo for one kind of per-tenant configuration.
	Configs(kind scalexone.ConfigKind) scalexone.TenantConfigRepo

	// Collection returns the repo for an ordered collection.
	Collection(c CollectionName) scalexone.OrderedCollectionRepo

	// Call invokes a remote procedure and decodes its result into out.
	Call(ctx context.Context, name string, args any, out any) error

	// SignIn authenticates with email and password and scopes every later
	// request to that user.
	SignIn(ctx context.Context, email, password string) (*types.Session, error)

	// SignOut ends the current session.
	SignOut(ctx context.Context) error

	// CurrentUser returns the authenticated user.
	CurrentUser(ctx context.Context) (*types.User, error)

	// UpdateUser patches the authenticated user's metadata.
	UpdateUser(ctx context.Context, data map[string]any) (*types.User, error)

	// Close releases resources.
	Close() error
}

// CollectionName names an ordered collection table.
type CollectionName string

const (
	// ChannelsCollection holds a community's channels.
	ChannelsCollection CollectionName = "channels"

	// ModuleVideosCollection holds the videos of a course module.
	ModuleVideosCollection CollectionName = "module_videos"
)

// parentColumn is the column that scopes a collection to its parent.
func (c CollectionName) parentColumn() string {
	switch c {
	case ChannelsCollection:
		return "community_id"
	case ModuleVideosCollection:
		return "module_id"
	default:
		return ""
	}
}

// Community represents a tenant from the database
type Community struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// ConfigRow is one row of a per-tenant configuration table.
type ConfigRow struct {
	CommunityID string          `json:"community_id"`
	Config      json.RawMessage `json:"config"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// PostableChannel is a row of the get_postable_channels procedure.
type PostableChannel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}
