// internal/websocket/handler.go
package websocket

import (
	"context"

	wstypes "auth-service/internal/domain/websocket"
)

// MessageHandler serves the client-originated events it lists.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error
	SupportedEvents() []wstypes.EventType
}

type registry map[wstypes.EventType]MessageHandler

func (r registry) add(handler MessageHandler) {
	for _, eventType := range handler.SupportedEvents() {
		r[eventType] = handler
	}
}

// dispatch runs the handler registered for msg.Type and reports whether there was one.
func (r registry) dispatch(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	handler, ok := r[msg.Type]
	if !ok {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}
