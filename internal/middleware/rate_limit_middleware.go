// internal/middleware/rate_limit_middleware.go
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"auth-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Limiter interface {
	Allow(ctx context.Context, key string, maxRequests int64, window time.Duration) (bool, error)
}

// RateLimitMiddleware allows times requests per window for each client and route.
// A limiter failure lets the request through.
func RateLimitMiddleware(limiter Limiter, times int64, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()

		allowed, err := limiter.Allow(c.Request.Context(), key, times, window)
		if err != nil {
			logger.Warn("rate limiter failed", zap.Error(err), zap.String("key", key))
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.Error(c, http.StatusTooManyRequests, "Too many requests", nil)
			return
		}

		c.Next()
	}
}
