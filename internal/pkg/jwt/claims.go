// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind tells access and refresh tokens apart.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims represents the JWT claims
type Claims struct {
	Type      Kind      `json:"type"`
	SessionID uuid.UUID `json:"session_id"`
	Roles     []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims

	// populated by the verifier from sub and jti
	userID  uuid.UUID
	tokenID uuid.UUID
}

// UserID is the parsed subject of a verified token.
func (c *Claims) UserID() uuid.UUID {
	return c.userID
}

// TokenID is the parsed jti of a verified token.
func (c *Claims) TokenID() uuid.UUID {
	return c.tokenID
}

// HasRole checks if the claims contain a specific role
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the role snapshot intersects roles.
func (c *Claims) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if c.HasRole(role) {
			return true
		}
	}
	return false
}

