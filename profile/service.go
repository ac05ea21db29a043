// Package profile signs members in and out and edits the signed-in member's
// profile, keeping the auth user, object storage and the local store in step.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/supabase-community/gotrue-go/types"

	scalexone "github.com/creastat/scalexone"
	"github.com/creastat/scalexone/logger"
	"github.com/creastat/scalexone/objectstore"
	"github.com/creastat/scalexone/store"
)

// DefaultBucket is the object storage bucket avatars are uploaded to.
const DefaultBucket = "avatars"

// User metadata keys.
const (
	displayNameKey = "display_name"
	fullNameKey    = "full_name"
	avatarURLKey   = "avatar_url"
	roleKey        = "role"
)

// ErrInvalidName is returned for an empty display name or avatar file name.
var ErrInvalidName = errors.New("invalid name")

// Authenticator is the auth side of the hosted backend.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*types.Session, error)
	SignOut(ctx context.Context) error
	UpdateUser(ctx context.Context, data map[string]any) (*types.User, error)
}

// ProfileStore is the part of the local store this service writes.
type ProfileStore interface {
	UpdateProfile(ctx context.Context, patch store.ProfilePatch) error
	ClearProfile(ctx context.Context) error
	ClearConversation(ctx context.Context) error
}

// Option is a functional option for configuring a Service.
type Option func(*Service)

// WithBucket sets the avatar bucket.
func WithBucket(bucket string) Option {
	return func(s *Service) {
		if bucket != "" {
			s.bucket = bucket
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// Service edits the signed-in member's profile.
type Service struct {
	store   ProfileStore
	auth    Authenticator
	objects objectstore.Store
	bucket  string
	log     *logger.Logger
}

// NewService creates a profile service.
func NewService(st ProfileStore, auth Authenticator, objects objectstore.Store, opts ...Option) *Service {
	s := &Service{
		store:   st,
		auth:    auth,
		objects: objects,
		bucket:  DefaultBucket,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrNop(s.log).With("component", "profile")
	return s
}

// SignIn authenticates the member and populates the profile slice. tenantID
// must already be resolved.
func (s *Service) SignIn(ctx context.Context, email, password, tenantID string) (scalexone.Identity, error) {
	if tenantID == "" {
		return scalexone.Identity{}, scalexone.ErrTenantRequired
	}

	session, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		return scalexone.Identity{}, err
	}

	id := IdentityFromUser(session.User)
	id.TenantID = tenantID

	err = s.store.UpdateProfile(ctx, store.ProfilePatch{
		DisplayName: &id.DisplayName,
		AvatarURL:   &id.AvatarURL,
		Email:       &id.Email,
		Role:        &id.Role,
		TenantID:    &id.TenantID,
	})
	if err != nil {
		return id, fmt.Errorf("failed to store profile: %w", err)
	}
	return id, nil
}

// SignOut ends the session and clears the profile and conversation. Local
// state is cleared even when the remote sign-out fails.
func (s *Service) SignOut(ctx context.Context) error {
	remoteErr := s.auth.SignOut(ctx)
	if remoteErr != nil {
		s.log.Warn("remote sign-out failed", "error", remoteErr)
	}
	return errors.Join(
		remoteErr,
		s.store.ClearProfile(ctx),
		s.store.ClearConversation(ctx),
	)
}

// UpdateDisplayName renames the member in the auth user metadata and the
// profile slice.
func (s *Service) UpdateDisplayName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("display name: %w", ErrInvalidName)
	}

	if _, err := s.auth.UpdateUser(ctx, map[string]any{displayNameKey: name}); err != nil {
		return err
	}
	return s.store.UpdateProfile(ctx, store.ProfilePatch{DisplayName: &name})
}

// UploadAvatar uploads r to <bucket>/<userID>/<name>, overwriting any
// previous file, and points the member's avatar at its public URL.
func (s *Service) UploadAvatar(ctx context.Context, userID, name string, r io.Reader, contentType string) (string, error) {
	name = path.Base(strings.TrimSpace(name))
	if userID == "" || name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("avatar path: %w", ErrInvalidName)
	}

	stored, err := s.objects.Upload(ctx, s.bucket, userID+"/"+name, r, objectstore.UploadOptions{
		ContentType: contentType,
		Upsert:      true,
		Size:        -1,
	})
	if err != nil {
		return "", err
	}
	url := s.objects.PublicURL(s.bucket, stored)

	if _, err := s.auth.UpdateUser(ctx, map[string]any{avatarURLKey: url}); err != nil {
		return "", err
	}
	if err := s.store.UpdateProfile(ctx, store.ProfilePatch{AvatarURL: &url}); err != nil {
		return url, fmt.Errorf("failed to store profile: %w", err)
	}

	s.log.Info("avatar updated", "user_id", userID, "path", stored)
	return url, nil
}

// IdentityFromUser builds the member identity from an auth user. The tenant
// is left empty.
func IdentityFromUser(u types.User) scalexone.Identity {
	id := scalexone.Identity{
		Email: u.Email,
		Role:  scalexone.RoleMember,
	}

	id.DisplayName = metaString(u.UserMetadata, displayNameKey)
	if id.DisplayName == "" {
		id.DisplayName = metaString(u.UserMetadata, fullNameKey)
	}
	if id.DisplayName == "" {
		id.DisplayName, _, _ = strings.Cut(u.Email, "@")
	}
	id.AvatarURL = metaString(u.UserMetadata, avatarURLKey)

	switch role := scalexone.Role(metaString(u.AppMetadata, roleKey)); role {
	case scalexone.RoleOwner, scalexone.RoleAdmin, scalexone.RoleMember:
		id.Role = role
	}
	return id
}

func metaString(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return s
}
