// internal/middleware/request_id_middleware.go
package middleware

import (
	"net/http"

	"auth-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const RequestIDHeader = "X-Request-Id"

// RequestIDMiddleware tags the request with an id taken from X-Request-Id. When
// required is false a missing id is generated instead of rejected.
func RequestIDMiddleware(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			if required {
				response.Error(c, http.StatusBadRequest, "X-Request-Id is required", nil)
				return
			}
			id = ulid.Make().String()
		}

		c.Set(ContextRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
