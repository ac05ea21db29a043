package menu

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scalexone "github.com/creastat/scalexone"
	"github.com/creastat/scalexone/configcache"
)

type memConfigRepo struct {
	blobs  map[string]json.RawMessage
	puts   int
	getErr error
}

func (r *memConfigRepo) GetConfig(ctx context.Context, tenantID string) (json.RawMessage, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.blobs[tenantID], nil
}

func (r *memConfigRepo) PutConfig(ctx context.Context, tenantID string, blob json.RawMessage) error {
	r.puts++
	r.blobs[tenantID] = blob
	return nil
}

const sampleLayout = `{
	"theme": "dark",
	"desktop": [{"key":"feed","label":"Feed","order":0},{"key":"courses","label":"Courses","order":1},{"key":"events","label":"Events","order":2}],
	"mobile": [{"key":"home","label":"Home","order":0},{"key":"courses","label":"Courses","order":1}]
}`

func keys(items []scalexone.OrderedItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Key
	}
	return out
}

func newService(blob string) (*Service, *memConfigRepo) {
	repo := &memConfigRepo{blobs: map[string]json.RawMessage{"acme": json.RawMessage(blob)}}
	return NewService(configcache.New(repo, configcache.WithName("menu"))), repo
}

func TestParseLayoutPreservesUnknownKeys(t *testing.T) {
	l, err := ParseLayout(json.RawMessage(sampleLayout))
	require.NoError(t, err)
	assert.Equal(t, []string{"feed", "courses", "events"}, keys(l.Desktop))

	blob, err := l.Marshal()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(blob, &decoded))
	assert.Equal(t, "dark", decoded["theme"])
	assert.Len(t, decoded["mobile"], 2)
}

func TestParseLayoutEmpty(t *testing.T) {
	for _, blob := range []string{"", "null", "{}"} {
		l, err := ParseLayout(json.RawMessage(blob))
		require.NoError(t, err, blob)
		assert.Empty(t, l.Desktop)

		out, err := l.Marshal()
		require.NoError(t, err)
		assert.JSONEq(t, `{"desktop":[],"mobile":[]}`, string(out))
	}
}

func TestParseLayoutInvalid(t *testing.T) {
	_, err := ParseLayout(json.RawMessage(`{"desktop": "nope"}`))
	assert.Error(t, err)
}

func TestReorderButtonSaves(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(sampleLayout)

	l, err := svc.ReorderButton(ctx, "acme", Desktop, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"events", "feed", "courses"}, keys(l.Desktop))
	assert.Equal(t, 1, repo.puts)

	saved, err := ParseLayout(repo.blobs["acme"])
	require.NoError(t, err)
	assert.Equal(t, []string{"events", "feed", "courses"}, keys(saved.Desktop))
	for i, it := range saved.Desktop {
		assert.Equal(t, i, it.Order)
	}
}

func TestMoveButtonAcrossBars(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(sampleLayout)

	l, err := svc.MoveButton(ctx, "acme", Desktop, Mobile, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"feed", "courses"}, keys(l.Desktop))
	assert.Equal(t, []string{"home", "events", "courses"}, keys(l.Mobile))

	// The cache serves the saved layout without another read.
	again, err := svc.Layout(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, keys(l.Mobile), keys(again.Mobile))
}

func TestMoveButtonDuplicateKeyRejected(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(sampleLayout)

	_, err := svc.MoveButton(ctx, "acme", Desktop, Mobile, 1, 0)
	assert.ErrorIs(t, err, scalexone.ErrDuplicateKey)
	assert.Equal(t, 0, repo.puts)

	l, err := svc.Layout(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"feed", "courses", "events"}, keys(l.Desktop))
	assert.Equal(t, []string{"home", "courses"}, keys(l.Mobile))
}

func TestEditRequiresFreshLayout(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(sampleLayout)
	repo.getErr = errors.New("offline")

	_, err := svc.ReorderButton(ctx, "acme", Desktop, 0, 1)
	assert.Error(t, err)
	assert.Equal(t, 0, repo.puts)

	_, err = svc.Layout(ctx, "")
	assert.ErrorIs(t, err, scalexone.ErrTenantRequired)
}

func TestUnknownBar(t *testing.T) {
	l, err := ParseLayout(json.RawMessage(sampleLayout))
	require.NoError(t, err)

	assert.Error(t, l.Reorder("sidebar", 0, 1))
	assert.Error(t, l.Move(Desktop, "sidebar", 0, 0))
	_, err = l.Items("sidebar")
	assert.Error(t, err)
}
