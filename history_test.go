package scalexone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendMessage(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	base := make([]Message, 0, 4)

	log := AppendMessage(base, SenderUser, "hello", now)
	log = AppendMessage(log, SenderAssistant, "hi there", now.Add(time.Second))

	require.Len(t, log, 2)
	assert.Empty(t, base)
	assert.Equal(t, SenderUser, log[0].Sender)
	assert.Equal(t, "hi there", log[1].Text)
	assert.NotEmpty(t, log[0].ID)
	assert.NotEqual(t, log[0].ID, log[1].ID)
	assert.True(t, log[1].Timestamp.After(log[0].Timestamp))
}

func TestTruncateHistory(t *testing.T) {
	var log []Message
	for i := 0; i < 5; i++ {
		log = AppendMessage(log, SenderUser, string(rune('a'+i)), time.Now())
	}

	kept := TruncateHistory(log, 3)
	require.Len(t, kept, 3)
	assert.Equal(t, "c", kept[0].Text)
	assert.Equal(t, "e", kept[2].Text)

	assert.Len(t, TruncateHistory(log, 0), 5)
	assert.Len(t, TruncateHistory(log, 10), 5)
	assert.Nil(t, TruncateHistory(nil, 3))
}

func TestConfigKindTable(t *testing.T) {
	assert.Equal(t, "menu_configurations", MenuConfig.Table())
	assert.Equal(t, "user_profile_configurations", ProfileConfig.Table())
	assert.Equal(t, "", ConfigKind("other").Table())
}
