// internal/handlers/role/role_handler.go
package role

import (
	"errors"
	"net/http"

	"auth-service/internal/domain/role"
	"auth-service/internal/pkg/response"
	roleUsecase "auth-service/internal/service/role"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RoleHandler struct {
	roleService *roleUsecase.RoleService
	logger      *zap.Logger
}

func NewRoleHandler(roleService *roleUsecase.RoleService, logger *zap.Logger) *RoleHandler {
	return &RoleHandler{
		roleService: roleService,
		logger:      logger,
	}
}

// messages for the errors the role service reports
var roleMessages = []struct {
	err     error
	message string
}{
	{roleUsecase.ErrRoleExists, "Role already exists"},
	{roleUsecase.ErrRoleNotFound, "Role not found"},
	{roleUsecase.ErrUnknownUser, "User not found"},
	{roleUsecase.ErrUnknownRole, "Role not found"},
	{roleUsecase.ErrUserRoleExists, "User role already exists"},
	{roleUsecase.ErrUserRoleNotFound, "User role not found"},
}

func (h *RoleHandler) fail(c *gin.Context, fallback string, err error) {
	for _, m := range roleMessages {
		if errors.Is(err, m.err) {
			response.FromError(c, m.message, err)
			return
		}
	}
	h.logger.Error(fallback, zap.Error(err))
	response.FromError(c, fallback, err)
}

func roleIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("role_id"))
	if err != nil {
		response.NotFound(c, "Role not found")
		return uuid.Nil, false
	}
	return id, true
}

// ========== Roles ==========

func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.roleService.List(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to list roles", err)
		return
	}
	response.Success(c, http.StatusOK, "roles retrieved", roles)
}

func (h *RoleHandler) Create(c *gin.Context) {
	var req role.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	r, err := h.roleService.Create(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "failed to create role", err)
		return
	}
	response.Success(c, http.StatusCreated, "role created", r)
}

func (h *RoleHandler) Update(c *gin.Context) {
	id, ok := roleIDParam(c)
	if !ok {
		return
	}

	var req role.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	r, err := h.roleService.Rename(c.Request.Context(), id, &req)
	if err != nil {
		h.fail(c, "failed to update role", err)
		return
	}
	response.Success(c, http.StatusOK, "role updated", r)
}

func (h *RoleHandler) Delete(c *gin.Context) {
	id, ok := roleIDParam(c)
	if !ok {
		return
	}

	if err := h.roleService.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "failed to delete role", err)
		return
	}
	response.NoContent(c)
}

// ========== User Roles ==========

func (h *RoleHandler) bindUserRole(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "User not found", nil)
		return uuid.Nil, uuid.Nil, false
	}

	var req role.UserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, req.RoleID, true
}

// GrantUserRole gives a user a role; their access tokens are revoked so the next refresh carries it
func (h *RoleHandler) GrantUserRole(c *gin.Context) {
	userID, roleID, ok := h.bindUserRole(c)
	if !ok {
		return
	}

	if err := h.roleService.Grant(c.Request.Context(), userID, roleID); err != nil {
		h.fail(c, "failed to grant role", err)
		return
	}
	response.NoContent(c)
}

func (h *RoleHandler) RevokeUserRole(c *gin.Context) {
	userID, roleID, ok := h.bindUserRole(c)
	if !ok {
		return
	}

	if err := h.roleService.Revoke(c.Request.Context(), userID, roleID); err != nil {
		h.fail(c, "failed to revoke role", err)
		return
	}
	response.NoContent(c)
}
