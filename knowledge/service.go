// Package knowledge looks up knowledge snippets for a tenant and publishes
// them to the assistant panel's slice of the local store.
package knowledge

import (
	"context"
	"fmt"

	scalexone "github.com/creastat/scalexone"
	"github.com/creastat/scalexone/logger"
	"github.com/creastat/scalexone/vectorstore"
)

// DefaultLimit is the number of snippets kept when the caller passes none.
const DefaultLimit = 5

// Sink receives the snippets of the latest lookup.
type Sink interface {
	SetKnowledge(ctx context.Context, snippets []scalexone.KnowledgeSnippet) error
}

// Option is a functional option for configuring a Service.
type Option func(*Service)

// WithMinScore drops hits below score.
func WithMinScore(score float32) Option {
	return func(s *Service) {
		s.minScore = score
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// Service searches a tenant's knowledge base.
type Service struct {
	vectors  vectorstore.VectorStore
	sink     Sink
	minScore float32
	log      *logger.Logger
}

// NewService creates a knowledge service.
func NewService(vectors vectorstore.VectorStore, sink Sink, opts ...Option) *Service {
	s := &Service{vectors: vectors, sink: sink}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrNop(s.log).With("component", "knowledge")
	return s
}

// Lookup searches the tenant's knowledge for the closest snippets to vector
// and replaces the knowledge slice with them. On a search error the slice is
// left as it was.
func (s *Service) Lookup(ctx context.Context, tenantID string, vector []float32, limit int, sourceIDs ...string) ([]scalexone.KnowledgeSnippet, error) {
	if tenantID == "" {
		return nil, scalexone.ErrTenantRequired
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	snippets, err := s.vectors.Search(ctx, vector, vectorstore.SearchFilter{
		TenantID:  tenantID,
		SourceIDs: sourceIDs,
		MinScore:  s.minScore,
	}, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge: %w", err)
	}

	s.log.Debug("knowledge lookup", "tenant_id", tenantID, "hits", len(snippets))

	if err := s.sink.SetKnowledge(ctx, snippets); err != nil {
		return snippets, err
	}
	return snippets, nil
}

// Clear empties the knowledge slice.
func (s *Service) Clear(ctx context.Context) error {
	return s.sink.SetKnowledge(ctx, nil)
}
