// internal/domain/auth/dto.go
package auth

import "github.com/google/uuid"

// Reasons recorded with revoked token ids and ended sessions.
const (
	ReasonLogout         = "logout"
	ReasonRefresh        = "refresh"
	ReasonRefreshReplay  = "refresh_replay"
	ReasonEndUserSession = "end_user_session"
	ReasonAddRole        = "add_role"
	ReasonDeleteRole     = "delete_role"
)

// LoginRequest for user login. Username is the account email.
type LoginRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

// LoginResponse successful login response
type LoginResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenPair is returned by a successful refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CheckAccessQuery lists the roles a caller may hold, any one of which grants access.
type CheckAccessQuery struct {
	AllowRoles []string `form:"allow_roles" binding:"omitempty,dive,oneof=admin subscriber"`
}
