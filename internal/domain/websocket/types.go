// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type EventType string

const (
	EventTypePing      EventType = "ping"
	EventTypePong      EventType = "pong"
	EventTypeConnected EventType = "connected"
	EventTypeError     EventType = "error"

	EventTypeSubscribe   EventType = "subscribe"
	EventTypeUnsubscribe EventType = "unsubscribe"

	// pushed by the server when a session ends or its access token is revoked
	EventTypeForceLogout  EventType = "session:force_logout"
	EventTypeTokenRevoked EventType = "session:token_revoked"

	// request/reply pair for listing the caller's sessions
	EventTypeSessionList   EventType = "session:list"
	EventTypeSessionListed EventType = "session:listed"
)

// ChannelType groups server pushes; a client only receives channels it is subscribed to.
type ChannelType string

const (
	ChannelSystem   ChannelType = "system"
	ChannelSessions ChannelType = "sessions"
)

// WSMessage is the frame exchanged in both directions.
type WSMessage struct {
	ID        string    `json:"id,omitempty"`
	Type      EventType `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMessage(eventType EventType, data any) *WSMessage {
	return &WSMessage{
		ID:        ulid.Make().String(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func ParseMessage(raw []byte) (*WSMessage, error) {
	msg := &WSMessage{}
	if err := json.Unmarshal(raw, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeData fills target from the generic payload of a parsed message.
// A message without data leaves target untouched.
func (m *WSMessage) DecodeData(target any) error {
	if m.Data == nil {
		return nil
	}
	raw, err := json.Marshal(m.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

type ChannelsRequest struct {
	Channels []ChannelType `json:"channels"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SessionEventData describes why a session or its token stopped being valid.
type SessionEventData struct {
	SessionID uuid.UUID `json:"session_id,omitempty"`
	Reason    string    `json:"reason"`
	Message   string    `json:"message"`
}

type SessionListRequest struct {
	Active     *bool `json:"active,omitempty"`
	PageSize   *int  `json:"page_size,omitempty"`
	PageNumber *int  `json:"page_number,omitempty"`
}
