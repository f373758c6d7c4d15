// internal/websocket/client.go
package websocket

import (
	"context"
	"sync"
	"time"

	wstypes "auth-service/internal/domain/websocket"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

// ClientAuth is what a verified access token says about a connecting client.
type ClientAuth struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Roles     []string
}

// Client is one socket bound to one session. The send channel is never
// closed; Close cancels ctx and the writer drains what is queued.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	userID    uuid.UUID
	sessionID uuid.UUID
	roles     []string

	subMu         sync.RWMutex
	subscriptions map[wstypes.ChannelType]struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, auth *ClientAuth) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBuffer),
		userID:        auth.UserID,
		sessionID:     auth.SessionID,
		roles:         auth.Roles,
		subscriptions: make(map[wstypes.ChannelType]struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (c *Client) UserID() uuid.UUID { return c.userID }
func (c *Client) SessionID() uuid.UUID { return c.sessionID }

// Start runs the reader and writer goroutines of a registered client.
func (c *Client) Start() {
	go c.writeLoop()
	go c.readLoop()
}

// Subscribe reports false for channels the server does not publish.
func (c *Client) Subscribe(channel wstypes.ChannelType) bool {
	if channel != wstypes.ChannelSystem && channel != wstypes.ChannelSessions {
		return false
	}
	c.subMu.Lock()
	c.subscriptions[channel] = struct{}{}
	c.subMu.Unlock()
	return true
}

func (c *Client) Unsubscribe(channel wstypes.ChannelType) {
	c.subMu.Lock()
	delete(c.subscriptions, channel)
	c.subMu.Unlock()
}

func (c *Client) IsSubscribed(channel wstypes.ChannelType) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

// SendMessage queues msg. A client that cannot keep up is closed.
func (c *Client) SendMessage(msg *wstypes.WSMessage) {
	if c.ctx.Err() != nil {
		return
	}
	data, err := msg.ToJSON()
	if err != nil {
		c.hub.logger.Error("failed to marshal websocket message", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}

	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("websocket send buffer full, dropping client",
			zap.String("user_id", c.userID.String()),
			zap.String("session_id", c.sessionID.String()),
		)
		c.Close()
	}
}

func (c *Client) SendError(code, message, details string) {
	c.SendMessage(wstypes.NewMessage(wstypes.EventTypeError, wstypes.ErrorData{
		Code:    code,
		Message: message,
		Details: details,
	}))
}

// Close stops both loops; safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(c.cancel)
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.unregisterClient(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read failed", zap.String("user_id", c.userID.String()), zap.Error(err))
			}
			return
		}
		c.handle(raw)
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			if c.write(websocket.TextMessage, data) != nil {
				return
			}
		case <-ticker.C:
			if c.write(websocket.PingMessage, nil) != nil {
				return
			}
		case <-c.ctx.Done():
			c.drain()
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// drain flushes messages queued before Close, such as a force logout notice.
func (c *Client) drain() {
	for {
		select {
		case data := <-c.send:
			if c.write(websocket.TextMessage, data) != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) handle(raw []byte) {
	msg, err := wstypes.ParseMessage(raw)
	if err != nil {
		c.SendError("invalid_message", "Failed to parse message", err.Error())
		return
	}

	handled, err := c.hub.handlers.dispatch(c.ctx, c, msg)
	switch {
	case err != nil:
		c.SendError("handler_error", "Failed to process message", err.Error())
	case !handled:
		c.handleBuiltin(msg)
	}
}

func (c *Client) handleBuiltin(msg *wstypes.WSMessage) {
	switch msg.Type {
	case wstypes.EventTypePing:
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypePong, nil))

	case wstypes.EventTypeSubscribe, wstypes.EventTypeUnsubscribe:
		var req wstypes.ChannelsRequest
		if err := msg.DecodeData(&req); err != nil {
			c.SendError("invalid_"+string(msg.Type), "Invalid channel list", err.Error())
			return
		}
		changed := make([]wstypes.ChannelType, 0, len(req.Channels))
		for _, channel := range req.Channels {
			if msg.Type == wstypes.EventTypeUnsubscribe {
				c.Unsubscribe(channel)
				changed = append(changed, channel)
			} else if c.Subscribe(channel) {
				changed = append(changed, channel)
			}
		}
		c.SendMessage(wstypes.NewMessage(msg.Type, map[string]any{"channels": changed}))

	default:
		c.SendError("unknown_event", "Unsupported event type", string(msg.Type))
	}
}
