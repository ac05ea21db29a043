// Package store is the persisted client store: a single state container for
// the signed-in member that serializes itself to local storage on every
// change and rehydrates explicitly at startup.
package store

import (
	"maps"
	"slices"

	scalexone "github.com/creastat/scalexone"
)

// State is the persisted subset of client state.
type State struct {
	Profile      scalexone.Identity                  `json:"profile"`
	Conversation []scalexone.Message                 `json:"conversation"`
	Gamification scalexone.Gamification              `json:"gamification"`
	Modules      map[string]scalexone.ModuleProgress `json:"modules"`
	Knowledge    []scalexone.KnowledgeSnippet        `json:"knowledge"`
}

// DefaultState is the compiled-in state used before hydration and whenever
// the persisted snapshot is missing or unreadable.
func DefaultState() State {
	return State{
		Conversation: []scalexone.Message{},
		Gamification: scalexone.NewGamification(),
		Modules:      map[string]scalexone.ModuleProgress{},
		Knowledge:    []scalexone.KnowledgeSnippet{},
	}
}

// clone returns a copy that shares no mutable memory with s.
func (s State) clone() State {
	out := s
	out.Conversation = slices.Clone(s.Conversation)
	if out.Conversation == nil {
		out.Conversation = []scalexone.Message{}
	}
	out.Modules = maps.Clone(s.Modules)
	if out.Modules == nil {
		out.Modules = map[string]scalexone.ModuleProgress{}
	}
	out.Knowledge = make([]scalexone.KnowledgeSnippet, len(s.Knowledge))
	for i, k := range s.Knowledge {
		k.Metadata = maps.Clone(k.Metadata)
		out.Knowledge[i] = k
	}
	return out
}

// normalize repairs a decoded snapshot: nil collections become empty and
// module states are re-derived from their progress.
func (s State) normalize() State {
	if s.Conversation == nil {
		s.Conversation = []scalexone.Message{}
	}
	if s.Knowledge == nil {
		s.Knowledge = []scalexone.KnowledgeSnippet{}
	}
	if s.Modules == nil {
		s.Modules = map[string]scalexone.ModuleProgress{}
	}
	for key, m := range s.Modules {
		s.Modules[key] = m.WithProgress(m.ProgressPercent)
	}
	if s.Gamification.Level < 1 {
		s.Gamification.Level = 1
	}
	return s
}

// ProfilePatch is a partial profile update; nil fields are left untouched.
type ProfilePatch struct {
	DisplayName *string
	AvatarURL   *string
	Email       *string
	Role        *scalexone.Role
	TenantID    *string
}

// apply shallow-merges the patch into id.
func (p ProfilePatch) apply(id scalexone.Identity) scalexone.Identity {
	if p.DisplayName != nil {
		id.DisplayName = *p.DisplayName
	}
	if p.AvatarURL != nil {
		id.AvatarURL = *p.AvatarURL
	}
	if p.Email != nil {
		id.Email = *p.Email
	}
	if p.Role != nil {
		id.Role = *p.Role
	}
	if p.TenantID != nil {
		id.TenantID = *p.TenantID
	}
	return id
}

// String is a convenience for building patches.
func String(s string) *string { return &s }
