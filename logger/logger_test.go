package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core)).With("component", "store")

	log.Warn("rehydrate failed", "key", "scalexone-store")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "rehydrate failed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "store", fields["component"])
	assert.Equal(t, "scalexone-store", fields["key"])
}

func TestNewFallsBackToInfoLevel(t *testing.T) {
	log, err := New("development", "not-a-level")
	require.NoError(t, err)
	assert.True(t, log.SugaredLogger.Desugar().Core().Enabled(zap.InfoLevel))
	assert.False(t, log.SugaredLogger.Desugar().Core().Enabled(zap.DebugLevel))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := Nop()
	assert.Same(t, l, OrNop(l))
}
