// Package vectorstore is a technology-agnostic interface for tenant-scoped
// vector similarity search over knowledge chunks.
package vectorstore

import (
	"context"

	scalexone "github.com/creastat/scalexone"
)

// VectorStore searches knowledge chunks by vector similarity.
// Implementations can use Qdrant, Supabase Vector, Weaviate, etc.
type VectorStore interface {
	// Search returns at most limit snippets closest to vector. Results are
	// always restricted to filter.TenantID.
	Search(ctx context.Context, vector []float32, filter SearchFilter, limit int) ([]scalexone.KnowledgeSnippet, error)

	// Close releases any resources held by the vector store.
	Close() error
}

// SearchFilter defines filtering options for vector search.
type SearchFilter struct {
	// TenantID scopes the search to one community. Required.
	TenantID string

	// SourceIDs restricts results to these sources. Empty means all.
	SourceIDs []string

	// Metadata filters results by payload key-value pairs.
	Metadata map[string]any

	// MinScore drops results below this similarity threshold (0.0-1.0).
	MinScore float32
}

// Payload keys shared by every implementation.
const (
	TenantKey   = "community_id"
	SourceKey   = "source_id"
	DocumentKey = "document_id"
	ContentKey  = "content"
)
