// internal/handlers/websocket/websocket.go
package handlers

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"auth-service/internal/middleware"
	"auth-service/internal/pkg/response"
	ws "auth-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler accepts upgrades from the given origins; "*" or an empty list allows any.
func NewWebSocketHandler(hub *ws.Hub, origins []string, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		logger: logger,
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return slices.Contains(origins, strings.TrimRight(u.Scheme+"://"+u.Host, "/"))
	}
}

// HandleConnection authenticates the access token and upgrades the connection
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	// browsers cannot set headers on a websocket handshake
	token := c.Query("token")
	if token == "" {
		token = middleware.ExtractToken(c)
	}
	if token == "" {
		response.Unauthorized(c, "missing authentication token")
		return
	}

	auth, err := h.hub.AuthenticateClient(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("websocket authentication failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		response.FromError(c, "authentication failed", err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	client := ws.NewClient(h.hub, conn, auth)
	h.hub.Register <- client
	client.Start()
}

// GetStats returns websocket connection statistics (admin only)
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	response.Success(c, http.StatusOK, "websocket stats", gin.H{
		"total_connections": h.hub.TotalClients(),
		"timestamp":         time.Now().UTC(),
	})
}
