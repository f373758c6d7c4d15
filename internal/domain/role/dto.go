// internal/domain/role/dto.go
package role

import "github.com/google/uuid"

type CreateRequest struct {
	Name string `json:"name" binding:"required,max=64"`
}

type UpdateRequest struct {
	Name string `json:"name" binding:"required,max=64"`
}

type UserRoleRequest struct {
	RoleID uuid.UUID `json:"role_id" binding:"required"`
}
