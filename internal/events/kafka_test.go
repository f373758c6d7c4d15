package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeKeysByUser(t *testing.T) {
	event := Event{
		Type:       SessionEnded,
		UserID:     uuid.New(),
		SessionID:  uuid.New(),
		Reason:     "logout",
		OccurredAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	msg, err := encode(event)
	require.NoError(t, err)
	assert.Equal(t, event.UserID.String(), string(msg.Key))
	assert.True(t, msg.Time.Equal(event.OccurredAt))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "session.ended", decoded["type"])
	assert.Equal(t, "logout", decoded["reason"])
	assert.NotContains(t, decoded, "count")
}
