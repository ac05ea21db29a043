package supabase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	scalexone "github.com/creastat/scalexone"
)

const communityColumns = "id,name,slug,created_at"

// ResolveTenant turns a community id, slug or name into a community id. An
// id is passed through untouched. A slug must match exactly; otherwise the
// name is matched case-insensitively and must identify a single community.
func (c *Client) ResolveTenant(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", scalexone.ErrTenantRequired
	}
	if _, err := uuid.Parse(ref); err == nil {
		return ref, nil
	}

	// Check cache first
	if id, ok := getFromCache(&c.cache.mu, c.cache.byRef, ref); ok {
		return id, nil
	}
	if err := checkCtx(ctx); err != nil {
		return "", err
	}

	var bySlug []Community
	_, err := c.api().From("communities").
		Select(communityColumns, "", false).
		Eq("slug", ref).
		ExecuteTo(&bySlug)
	if err != nil {
		return "", fmt.Errorf("failed to look up community by slug: %w", err)
	}

	matches := bySlug
	if len(matches) == 0 {
		var byName []Community
		_, err = c.api().From("communities").
			Select(communityColumns, "", false).
			Ilike("name", escapeLike(ref)).
			ExecuteTo(&byName)
		if err != nil {
			return "", fmt.Errorf("failed to look up community by name: %w", err)
		}
		matches = byName
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%q: %w", ref, scalexone.ErrTenantNotFound)
	case 1:
	default:
		c.log.Warn("tenant reference matches several communities", "ref", ref, "matches", len(matches))
		return "", fmt.Errorf("%q matches %d communities: %w", ref, len(matches), scalexone.ErrAmbiguousTenant)
	}

	community := matches[0]
	addToCache(&c.cache.mu, c.cache.byRef, ref, community.ID, c.cacheTTL)
	addToCache(&c.cache.mu, c.cache.byID, community.ID, &community, c.cacheTTL)

	return community.ID, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes ref match literally in an ILIKE pattern.
func escapeLike(ref string) string {
	return likeEscaper.Replace(ref)
}

// GetCommunity retrieves a community by ID
func (c *Client) GetCommunity(ctx context.Context, id string) (*Community, error) {
	// Check cache first
	if cached, ok := getFromCache(&c.cache.mu, c.cache.byID, id); ok {
		return cached, nil
	}
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	var rows []Community
	_, err := c.api().From("communities").
		Select(communityColumns, "", false).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get community: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("community %s: %w", id, scalexone.ErrNotFound)
	}

	community := &rows[0]
	addToCache(&c.cache.mu, c.cache.byID, id, community, c.cacheTTL)

	return community, nil
}
