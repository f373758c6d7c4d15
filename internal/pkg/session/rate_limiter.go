// internal/pkg/session/rate_limiter.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	client        redis.UniversalClient
	loginAttempts int64
	loginWindow   time.Duration
}

func NewRateLimiter(client redis.UniversalClient, loginAttempts int64, loginWindow time.Duration) *RateLimiter {
	return &RateLimiter{
		client:        client,
		loginAttempts: loginAttempts,
		loginWindow:   loginWindow,
	}
}

// Allow counts one hit against key in a fixed window and reports whether the
// hit is within maxRequests.
func (r *RateLimiter) Allow(ctx context.Context, key string, maxRequests int64, window time.Duration) (bool, error) {
	key = fmt.Sprintf("ratelimit:api:%s", key)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment API rate limit: %w", err)
	}

	// Set expiration on first hit
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= maxRequests, nil
}

// IsLoginLocked reports whether too many failed logins were recorded for ip and email.
func (r *RateLimiter) IsLoginLocked(ctx context.Context, ip, email string) (bool, error) {
	count, err := r.client.Get(ctx, loginKey(ip, email)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get login attempts: %w", err)
	}
	return count >= r.loginAttempts, nil
}

// RecordLoginFailure counts a failed login and returns the attempts left.
func (r *RateLimiter) RecordLoginFailure(ctx context.Context, ip, email string) (int64, error) {
	key := loginKey(ip, email)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment login attempt: %w", err)
	}
	if count == 1 {
		r.client.Expire(ctx, key, r.loginWindow)
	}

	remaining := r.loginAttempts - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// ResetLoginAttempts resets the login attempt counter
func (r *RateLimiter) ResetLoginAttempts(ctx context.Context, ip, email string) error {
	return r.client.Del(ctx, loginKey(ip, email)).Err()
}

func loginKey(ip, email string) string {
	return fmt.Sprintf("ratelimit:login:%s:%s", ip, email)
}
