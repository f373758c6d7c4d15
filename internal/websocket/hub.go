// internal/websocket/hub.go
package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync"

	wstypes "auth-service/internal/domain/websocket"
	"auth-service/internal/pkg/jwt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrMissingToken = errors.New("missing authentication token")
)

// Authenticator validates an access token the same way protected HTTP routes do.
type Authenticator interface {
	CheckAccess(ctx context.Context, accessToken string, allowRoles []string) (*jwt.Claims, error)
}

type Hub struct {
	// Registered clients by user ID
	clients map[uuid.UUID]map[*Client]bool
	mu      sync.RWMutex

	Register chan *Client

	handlers registry
	auth     Authenticator
	logger   *zap.Logger
}

type BroadcastMessage struct {
	UserIDs []uuid.UUID
	Channel wstypes.ChannelType
	Message *wstypes.WSMessage
}

func NewHub(auth Authenticator, logger *zap.Logger) *Hub {
	return &Hub{
		clients:  make(map[uuid.UUID]map[*Client]bool),
		Register: make(chan *Client),
		handlers: registry{},
		auth:     auth,
		logger:   logger,
	}
}

// AuthenticateClient validates the access token of a connecting client
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	claims, err := h.auth.CheckAccess(ctx, token, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	return &ClientAuth{
		UserID:    claims.UserID(),
		SessionID: claims.SessionID,
		Roles:     claims.Roles,
	}, nil
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlers.add(handler)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true
	total := h.totalClients()
	h.mu.Unlock()

	client.Subscribe(wstypes.ChannelSystem)
	client.Subscribe(wstypes.ChannelSessions)

	h.logger.Info("websocket client connected",
		zap.String("user_id", client.userID.String()),
		zap.String("session_id", client.sessionID.String()),
		zap.Int("total", total),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"user_id":    client.userID,
		"session_id": client.sessionID,
		"roles":      client.roles,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()

			if len(clients) == 0 {
				delete(h.clients, client.userID)
			}

			h.logger.Info("websocket client disconnected",
				zap.String("user_id", client.userID.String()),
				zap.String("session_id", client.sessionID.String()),
				zap.Int("total", h.totalClients()),
			)
		}
	}
}

// BroadcastMessage delivers msg to the subscribed clients of the listed users, or of everyone when UserIDs is nil.
func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	send := func(clients map[*Client]bool) {
		for client := range clients {
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}

	if msg.UserIDs == nil {
		for _, clients := range h.clients {
			send(clients)
		}
		return
	}
	for _, userID := range msg.UserIDs {
		send(h.clients[userID])
	}
}

func (h *Hub) ConnectedClients(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// ForceLogout tells the clients of one session that it has ended and disconnects them.
func (h *Hub) ForceLogout(userID, sessionID uuid.UUID, reason string) {
	msg := wstypes.NewMessage(wstypes.EventTypeForceLogout, wstypes.SessionEventData{
		SessionID: sessionID,
		Reason:    reason,
		Message:   "You have been logged out",
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[userID]
	for client := range clients {
		if client.sessionID != sessionID {
			continue
		}
		client.SendMessage(msg)
		client.Close()
		delete(clients, client)
	}
	if len(clients) == 0 {
		delete(h.clients, userID)
	}
}

// TokensRevoked tells every client of a user that its access token is no longer valid.
func (h *Hub) TokensRevoked(userID uuid.UUID, reason string) {
	h.BroadcastMessage(&BroadcastMessage{
		UserIDs: []uuid.UUID{userID},
		Channel: wstypes.ChannelSessions,
		Message: wstypes.NewMessage(wstypes.EventTypeTokenRevoked, wstypes.SessionEventData{
			Reason:  reason,
			Message: "Access token revoked, refresh to continue",
		}),
	})
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
		delete(h.clients, userID)
	}
}
