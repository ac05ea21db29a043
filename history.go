package scalexone

import (
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit bounds the persisted conversation log.
const DefaultHistoryLimit = 200

// TruncateHistory keeps the most recent limit messages. A non-positive limit
// disables truncation.
func TruncateHistory(history []Message, limit int) []Message {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}

// AppendMessage appends a message stamped with a fresh id and the given time.
// The input slice is never modified in place.
func AppendMessage(history []Message, sender Sender, text string, now time.Time) []Message {
	out := make([]Message, len(history), len(history)+1)
	copy(out, history)
	return append(out, Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: now,
	})
}
