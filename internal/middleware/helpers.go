// internal/middleware/helpers.go
package middleware

import (
	"auth-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys set by Auth()
const (
	ContextUserID    = "user_id"
	ContextSessionID = "session_id"
	ContextJTI       = "jti"
	ContextRoles     = "roles"
	ContextClaims    = "claims"
	ContextRequestID = "request_id"
)

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(ContextUserID, claims.UserID())
	c.Set(ContextSessionID, claims.SessionID)
	c.Set(ContextJTI, claims.TokenID())
	c.Set(ContextRoles, claims.Roles)
	c.Set(ContextClaims, claims)
}

func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(ContextClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// MustGetUserID gets the user id from context or panics
func MustGetUserID(c *gin.Context) uuid.UUID {
	id, exists := GetUserID(c)
	if !exists {
		panic("user_id not found in context")
	}
	return id
}

// MustGetClaims gets the token claims from context or panics
func MustGetClaims(c *gin.Context) *jwt.Claims {
	claims, exists := GetClaims(c)
	if !exists {
		panic("claims not found in context")
	}
	return claims
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}
