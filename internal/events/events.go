// internal/events/events.go
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	SessionStarted   Type = "session.started"
	SessionRefreshed Type = "session.refreshed"
	SessionEnded     Type = "session.ended"
	RefreshReplayed  Type = "session.refresh_replayed"
	AccessRevoked    Type = "user.access_revoked"
)

// Event is an audit record of a session lifecycle transition.
type Event struct {
	Type       Type      `json:"type"`
	UserID     uuid.UUID `json:"user_id"`
	SessionID  uuid.UUID `json:"session_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Count      int       `json:"count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events. Implementations must not block the caller on the broker.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}

func (NopPublisher) Close() error { return nil }
