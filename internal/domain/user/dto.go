// internal/domain/user/dto.go
package user

import "github.com/google/uuid"

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required,min=1"`
}

// UpdateRequest patches the current user; nil fields are left untouched.
type UpdateRequest struct {
	Email    *string `json:"email" binding:"omitempty,email"`
	Name     *string `json:"name"`
	Password *string `json:"password" binding:"omitempty,min=1"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

func ToResponse(u *User) *UserResponse {
	return &UserResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}
