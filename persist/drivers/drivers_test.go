package drivers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageClosed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	require.NoError(t, s.Close())

	_, _, err := s.ReadString(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.WriteString(ctx, "k", "v"), ErrClosed)
}

func TestFileStorageKeysStayInDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	require.NoError(t, err)

	require.NoError(t, s.WriteString(ctx, "../escape/attempt", "x"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].IsDir())

	val, ok, err := s.ReadString(ctx, "../escape/attempt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", val)

	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStorageSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := NewFileStorage(dir)
	require.NoError(t, err)
	require.NoError(t, s1.WriteString(ctx, "scalexone-store", "snapshot"))

	s2, err := NewFileStorage(dir)
	require.NoError(t, err)
	val, ok, err := s2.ReadString(ctx, "scalexone-store")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "snapshot", val)
}
