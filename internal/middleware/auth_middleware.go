// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"auth-service/internal/domain/role"
	xerrors "auth-service/internal/pkg/errors"
	"auth-service/internal/pkg/jwt"
	"auth-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Authorizer validates an access token against the revocation list and roles.
type Authorizer interface {
	CheckAccess(ctx context.Context, accessToken string, allowRoles []string) (*jwt.Claims, error)
}

type AuthMiddleware struct {
	authorizer Authorizer
}

func NewAuthMiddleware(authorizer Authorizer) *AuthMiddleware {
	return &AuthMiddleware{
		authorizer: authorizer,
	}
}

// Auth requires a valid, unrevoked access token and stores its claims in the context
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			response.Unauthorized(c, "missing authorization token")
			return
		}

		claims, err := m.authorizer.CheckAccess(c.Request.Context(), token, nil)
		if err != nil {
			if errors.Is(err, xerrors.ErrUnavailable) {
				response.Error(c, http.StatusServiceUnavailable, "service temporarily unavailable", nil)
				return
			}
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// RequireRole lets the request through when the caller holds at least one of roles.
// MUST be used after Auth()
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			response.Forbidden(c, "authentication required")
			return
		}

		if !claims.HasAnyRole(roles...) {
			response.Forbidden(c, "Insufficient permissions")
			return
		}

		c.Next()
	}
}

// AdminOnly returns middlewares for admin-only routes (Auth + RequireRole)
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole(role.Admin),
	}
}

// ExtractToken returns the Bearer token from the Authorization header.
func ExtractToken(c *gin.Context) string {
	scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
