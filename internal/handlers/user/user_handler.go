// internal/handlers/user/user_handler.go
package user

import (
	"errors"
	"net/http"

	"auth-service/internal/domain/user"
	"auth-service/internal/middleware"
	xerrors "auth-service/internal/pkg/errors"
	"auth-service/internal/pkg/response"
	userUsecase "auth-service/internal/service/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *userUsecase.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *userUsecase.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// Register handles user registration (public endpoint)
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	u, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, userUsecase.ErrEmailTaken) {
			response.Error(c, http.StatusBadRequest, "Email already registered", nil)
			return
		}
		h.logger.Error("registration failed", zap.Error(err))
		response.FromError(c, "registration failed", err)
		return
	}

	response.Success(c, http.StatusCreated, "registration successful", user.ToResponse(u))
}

func (h *UserHandler) GetCurrent(c *gin.Context) {
	u, err := h.userService.GetCurrent(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		response.FromError(c, "failed to load user", err)
		return
	}

	response.Success(c, http.StatusOK, "user retrieved", user.ToResponse(u))
}

func (h *UserHandler) UpdateCurrent(c *gin.Context) {
	var req user.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	u, err := h.userService.UpdateCurrent(c.Request.Context(), middleware.MustGetUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, xerrors.ErrNotFound):
			response.NotFound(c, "User not found")
		case errors.Is(err, userUsecase.ErrEmailTaken):
			response.Error(c, http.StatusBadRequest, "Email already registered", nil)
		default:
			response.FromError(c, "failed to update user", err)
		}
		return
	}

	response.Success(c, http.StatusOK, "user updated", user.ToResponse(u))
}
