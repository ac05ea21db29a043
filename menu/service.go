package menu

import (
	"context"

	scalexone "github.com/creastat/scalexone"
	"github.com/creastat/scalexone/configcache"
)

// Service applies menu edits through the menu configuration cache. Edits are
// computed locally first; the blob is only saved when the edit is valid.
type Service struct {
	cache *configcache.Cache
}

// NewService creates a menu service over a cache bound to the menu
// configuration table.
func NewService(cache *configcache.Cache) *Service {
	return &Service{cache: cache}
}

// Layout returns the tenant's current layout. A stale cached layout is
// returned alongside the fetch error.
func (s *Service) Layout(ctx context.Context, tenantID string) (*Layout, error) {
	if tenantID == "" {
		return nil, scalexone.ErrTenantRequired
	}
	entry, fetchErr := s.cache.Fetch(ctx, tenantID)
	if entry == nil {
		if fetchErr != nil {
			return nil, fetchErr
		}
		return ParseLayout(nil)
	}
	l, err := ParseLayout(entry.Config)
	if err != nil {
		return nil, err
	}
	return l, fetchErr
}

// ReorderButton moves a button within one bar and saves the layout.
func (s *Service) ReorderButton(ctx context.Context, tenantID string, bar Bar, src, dst int) (*Layout, error) {
	return s.edit(ctx, tenantID, func(l *Layout) error {
		return l.Reorder(bar, src, dst)
	})
}

// MoveButton moves a button between bars and saves the layout. Duplicate
// keys are rejected with scalexone.ErrDuplicateKey before anything is sent.
func (s *Service) MoveButton(ctx context.Context, tenantID string, from, to Bar, srcIdx, dstIdx int) (*Layout, error) {
	return s.edit(ctx, tenantID, func(l *Layout) error {
		return l.Move(from, to, srcIdx, dstIdx)
	})
}

func (s *Service) edit(ctx context.Context, tenantID string, fn func(*Layout) error) (*Layout, error) {
	l, err := s.Layout(ctx, tenantID)
	if err != nil {
		// Stale layouts are not edited.
		return nil, err
	}
	if err := fn(l); err != nil {
		return nil, err
	}
	blob, err := l.Marshal()
	if err != nil {
		return nil, err
	}
	if _, err := s.cache.Save(ctx, tenantID, blob); err != nil {
		return nil, err
	}
	return l, nil
}
