// internal/handlers/auth/auth_handler.go
package auth

import (
	"errors"
	"net/http"

	"auth-service/internal/domain/auth"
	"auth-service/internal/middleware"
	xerrors "auth-service/internal/pkg/errors"
	"auth-service/internal/pkg/response"
	authUsecase "auth-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *authUsecase.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// ========== Login ==========

// Login exchanges email and password for a new session
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	loginResp, err := h.authService.LoginWithPassword(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("login failed",
			zap.String("ip", req.IPAddress),
			zap.Error(err),
		)
		switch {
		case errors.Is(err, xerrors.ErrUnauthorized):
			response.Unauthorized(c, "Bad username or password")
		case errors.Is(err, xerrors.ErrRateLimited):
			response.FromError(c, "Too many failed login attempts", err)
		default:
			response.FromError(c, "login failed", err)
		}
		return
	}

	response.Success(c, http.StatusOK, "login successful", loginResp)
}

// ========== Logout ==========

// Logout ends the session of the presented access token (requires auth)
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.MustGetClaims(c)

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.logger.Error("logout failed",
			zap.String("user_id", claims.UserID().String()),
			zap.String("session_id", claims.SessionID.String()),
			zap.Error(err),
		)
		response.FromError(c, "logout failed", err)
		return
	}

	response.NoContent(c)
}

// ========== Refresh ==========

func (h *AuthHandler) RefreshTokens(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Unauthorized(c, "Missing refresh token")
		return
	}

	pair, err := h.authService.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, xerrors.ErrUnauthorized) {
			response.Unauthorized(c, "No active session")
			return
		}
		h.logger.Error("token refresh failed", zap.Error(err))
		response.FromError(c, "token refresh failed", err)
		return
	}

	response.Success(c, http.StatusOK, "tokens refreshed", pair)
}

// ========== Access Check ==========

// CheckAccess answers 204 when the bearer token is valid and, if allow_roles is
// given, holds at least one of the listed roles.
func (h *AuthHandler) CheckAccess(c *gin.Context) {
	var query auth.CheckAccessQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ValidationError(c, "invalid allow_roles", err)
		return
	}

	token := middleware.ExtractToken(c)
	if token == "" {
		response.Unauthorized(c, "missing authorization token")
		return
	}

	if _, err := h.authService.CheckAccess(c.Request.Context(), token, query.AllowRoles); err != nil {
		if errors.Is(err, xerrors.ErrForbidden) {
			response.Forbidden(c, "Insufficient permissions")
			return
		}
		response.FromError(c, "unauthorized", err)
		return
	}

	response.NoContent(c)
}
