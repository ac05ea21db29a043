package supabase

import (
	"context"
	"fmt"

	"github.com/supabase-community/gotrue-go/types"
)

// SignIn authenticates with email and password. Later table, procedure and
// storage requests run as the signed-in user.
func (c *Client) SignIn(ctx context.Context, email, password string) (*types.Session, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	c.authMu.Lock()
	session, err := c.client.SignInWithEmailPassword(email, password)
	c.authMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	c.clearCache()
	c.log.Info("signed in", "user_id", session.User.ID.String())
	return &session, nil
}

// SignOut revokes the current session and drops cached lookups.
func (c *Client) SignOut(ctx context.Context) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	c.authMu.RLock()
	err := c.client.Auth.Logout()
	c.authMu.RUnlock()
	c.clearCache()
	if err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// CurrentUser returns the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (*types.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	c.authMu.RLock()
	resp, err := c.client.Auth.GetUser()
	c.authMu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &resp.User, nil
}

// UpdateUser merges data into the authenticated user's metadata.
func (c *Client) UpdateUser(ctx context.Context, data map[string]any) (*types.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	c.authMu.RLock()
	resp, err := c.client.Auth.UpdateUser(types.UpdateUserRequest{Data: data})
	c.authMu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &resp.User, nil
}
