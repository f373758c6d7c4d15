// internal/handlers/session/session_handler.go
package session

import (
	"errors"
	"net/http"

	"auth-service/internal/domain/session"
	"auth-service/internal/middleware"
	xerrors "auth-service/internal/pkg/errors"
	"auth-service/internal/pkg/response"
	sessionUsecase "auth-service/internal/service/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionHandler struct {
	sessionService *sessionUsecase.SessionService
	logger         *zap.Logger
}

func NewSessionHandler(sessionService *sessionUsecase.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		logger:         logger,
	}
}

// ListSessions returns a page of the caller's sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	var query session.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	items, err := h.sessionService.ListUserSessions(c.Request.Context(), middleware.MustGetUserID(c), query)
	if err != nil {
		response.FromError(c, "failed to list sessions", err)
		return
	}

	response.Success(c, http.StatusOK, "sessions retrieved", items)
}

// EndSession ends one of the caller's sessions
func (h *SessionHandler) EndSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.NotFound(c, "Session not found")
		return
	}

	userID := middleware.MustGetUserID(c)
	if err := h.sessionService.EndUserSession(c.Request.Context(), userID, sessionID); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "Session not found")
			return
		}
		h.logger.Error("failed to end session",
			zap.String("user_id", userID.String()),
			zap.String("session_id", sessionID.String()),
			zap.Error(err),
		)
		response.FromError(c, "failed to end session", err)
		return
	}

	response.NoContent(c)
}
