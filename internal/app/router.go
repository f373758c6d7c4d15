// internal/app/router.go
package app

import (
	"net/http"

	authHandler "auth-service/internal/handlers/auth"
	roleHandler "auth-service/internal/handlers/role"
	sessionHandler "auth-service/internal/handlers/session"
	socialHandler "auth-service/internal/handlers/social"
	userHandler "auth-service/internal/handlers/user"
	wsHandler "auth-service/internal/handlers/websocket"
	"auth-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	AuthHandler    *authHandler.AuthHandler
	UserHandler    *userHandler.UserHandler
	SessionHandler *sessionHandler.SessionHandler
	RoleHandler    *roleHandler.RoleHandler
	SocialHandler  *socialHandler.SocialHandler
	WSHandler      *wsHandler.WebSocketHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== WebSocket ====================
	api.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Public Routes ====================
	api.POST("/register", h.UserHandler.Register)
	api.POST("/login", h.AuthHandler.Login)
	api.POST("/refresh_tokens", h.AuthHandler.RefreshTokens)
	api.GET("/check_access", h.AuthHandler.CheckAccess)

	social := api.Group("/social/:provider")
	{
		social.GET("/login", h.SocialHandler.Login)
		social.GET("/auth", h.SocialHandler.Auth)
	}

	// ==================== Authenticated Routes ====================
	authed := api.Group("")
	authed.Use(h.AuthMiddleware.Auth())
	{
		authed.POST("/logout", h.AuthHandler.Logout)

		authed.GET("/user", h.UserHandler.GetCurrent)
		authed.PATCH("/user", h.UserHandler.UpdateCurrent)

		authed.GET("/user/sessions", h.SessionHandler.ListSessions)
		authed.DELETE("/user/sessions/:session_id", h.SessionHandler.EndSession)
	}

	// ==================== Admin Routes ====================
	admin := api.Group("")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		admin.GET("/roles", h.RoleHandler.List)
		admin.POST("/roles", h.RoleHandler.Create)
		admin.PATCH("/roles/:role_id", h.RoleHandler.Update)
		admin.DELETE("/roles/:role_id", h.RoleHandler.Delete)

		admin.POST("/users/:user_id/roles", h.RoleHandler.GrantUserRole)
		admin.DELETE("/users/:user_id/roles", h.RoleHandler.RevokeUserRole)

		admin.GET("/ws/stats", h.WSHandler.GetStats)
	}
}
