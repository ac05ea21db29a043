// Package scalexone holds the client-side domain model of the ScaleXone portal
// together with the narrow repository ports the state layer is built on.
package scalexone

import (
	"encoding/json"
	"time"
)

// Role is the member role within a community.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Identity is the signed-in member as the portal sees it.
// TenantID must be a resolved community id, never a slug.
type Identity struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	TenantID    string `json:"tenant_id"`
}

// Empty reports whether no member is signed in.
func (i Identity) Empty() bool {
	return i == Identity{}
}

// Sender identifies who wrote a conversation message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message represents a single conversation turn.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// KnowledgeSnippet is a knowledge base hit surfaced to the assistant panel.
type KnowledgeSnippet struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	SourceID   string         `json:"source_id"`
	DocumentID string         `json:"document_id"`
	Score      float32        `json:"score"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// OrderedItem is an element of an ordered collection (channels, menu buttons,
// module videos). Key is the stable identity used by the duplicate guard; ID
// is the backend row id and may be empty for items that only live in a
// configuration blob.
type OrderedItem struct {
	ID      string          `json:"id,omitempty"`
	Key     string          `json:"key"`
	Label   string          `json:"label,omitempty"`
	Order   int             `json:"order"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ConfigKind names a per-tenant configuration blob.
type ConfigKind string

const (
	MenuConfig    ConfigKind = "menu"
	ProfileConfig ConfigKind = "profile"
)

// Table returns the backend table holding configurations of this kind.
func (k ConfigKind) Table() string {
	switch k {
	case MenuConfig:
		return "menu_configurations"
	case ProfileConfig:
		return "user_profile_configurations"
	default:
		return ""
	}
}
