// internal/websocket/handler/session.go
package handler

import (
	"context"
	"fmt"

	"auth-service/internal/domain/session"
	wstypes "auth-service/internal/domain/websocket"
	ws "auth-service/internal/websocket"

	"github.com/google/uuid"
)

// SessionLister is the part of the session service the socket needs.
type SessionLister interface {
	ListUserSessions(ctx context.Context, userID uuid.UUID, query session.ListQuery) ([]*session.SessionResponse, error)
}

type SessionHandler struct {
	sessions SessionLister
}

func NewSessionHandler(sessions SessionLister) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{wstypes.EventTypeSessionList}
}

func (h *SessionHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeSessionList:
		return h.handleList(ctx, client, msg)
	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
}

// handleList answers with a page of the caller's own sessions
func (h *SessionHandler) handleList(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	var req wstypes.SessionListRequest
	if err := msg.DecodeData(&req); err != nil {
		return fmt.Errorf("invalid session list request: %w", err)
	}

	items, err := h.sessions.ListUserSessions(ctx, client.UserID(), session.ListQuery{
		Active:     req.Active,
		PageSize:   req.PageSize,
		PageNumber: req.PageNumber,
	})
	if err != nil {
		return err
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeSessionListed, map[string]interface{}{
		"sessions": items,
		"current":  client.SessionID(),
	}))
	return nil
}
