package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	scalexone "github.com/creastat/scalexone"
	"github.com/creastat/scalexone/persist/drivers"
	"github.com/creastat/scalexone/store"
	"github.com/creastat/scalexone/vectorstore"
)

type MockVectorStore struct {
	mock.Mock
}

func (m *MockVectorStore) Search(ctx context.Context, vector []float32, filter vectorstore.SearchFilter, limit int) ([]scalexone.KnowledgeSnippet, error) {
	args := m.Called(ctx, vector, filter, limit)
	if s := args.Get(0); s != nil {
		return s.([]scalexone.KnowledgeSnippet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVectorStore) Close() error {
	return m.Called().Error(0)
}

func hydrated(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(drivers.NewMemoryStorage())
	require.NoError(t, st.Rehydrate(context.Background()))
	return st
}

func TestLookupReplacesKnowledgeSlice(t *testing.T) {
	st := hydrated(t)
	vectors := &MockVectorStore{}
	svc := NewService(vectors, st, WithMinScore(0.5))
	ctx := context.Background()

	hits := []scalexone.KnowledgeSnippet{
		{ID: "1", Content: "Refunds take 5 days.", SourceID: "s-1", Score: 0.9},
		{ID: "2", Content: "Invoices are monthly.", SourceID: "s-1", Score: 0.7},
	}
	vectors.On("Search", mock.Anything, []float32{0.1, 0.2}, vectorstore.SearchFilter{
		TenantID:  "c-1",
		SourceIDs: []string{"s-1"},
		MinScore:  0.5,
	}, 3).Return(hits, nil)

	got, err := svc.Lookup(ctx, "c-1", []float32{0.1, 0.2}, 3, "s-1")
	require.NoError(t, err)
	assert.Equal(t, hits, got)
	assert.Equal(t, hits, st.Get().Knowledge)

	require.NoError(t, svc.Clear(ctx))
	assert.Empty(t, st.Get().Knowledge)
}

func TestLookupDefaultsLimit(t *testing.T) {
	st := hydrated(t)
	vectors := &MockVectorStore{}
	svc := NewService(vectors, st)

	vectors.On("Search", mock.Anything, mock.Anything, mock.Anything, DefaultLimit).Return([]scalexone.KnowledgeSnippet{}, nil)

	_, err := svc.Lookup(context.Background(), "c-1", []float32{1}, 0)
	require.NoError(t, err)
	vectors.AssertExpectations(t)
}

func TestLookupRequiresTenant(t *testing.T) {
	vectors := &MockVectorStore{}
	svc := NewService(vectors, hydrated(t))

	_, err := svc.Lookup(context.Background(), "", []float32{1}, 3)
	assert.ErrorIs(t, err, scalexone.ErrTenantRequired)
	vectors.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLookupSearchErrorKeepsSlice(t *testing.T) {
	st := hydrated(t)
	prev := []scalexone.KnowledgeSnippet{{ID: "old", Content: "kept"}}
	require.NoError(t, st.SetKnowledge(context.Background(), prev))

	vectors := &MockVectorStore{}
	vectors.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("unavailable"))
	svc := NewService(vectors, st)

	_, err := svc.Lookup(context.Background(), "c-1", []float32{1}, 3)
	assert.Error(t, err)
	assert.Equal(t, prev, st.Get().Knowledge)
}

func TestLookupBeforeHydration(t *testing.T) {
	st := store.New(drivers.NewMemoryStorage())
	vectors := &MockVectorStore{}
	vectors.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]scalexone.KnowledgeSnippet{{ID: "1"}}, nil)
	svc := NewService(vectors, st)

	_, err := svc.Lookup(context.Background(), "c-1", []float32{1}, 3)
	assert.ErrorIs(t, err, scalexone.ErrNotHydrated)
}
