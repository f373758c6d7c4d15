// internal/pkg/session/revocation.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RevocationStore keeps revoked token ids in Redis until the tokens they name
// would have expired anyway.
type RevocationStore struct {
	client redis.UniversalClient
}

func NewRevocationStore(client redis.UniversalClient) *RevocationStore {
	return &RevocationStore{client: client}
}

// Revoke records jti as revoked with the given reason for ttl.
func (s *RevocationStore) Revoke(ctx context.Context, jti uuid.UUID, reason string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if reason == "" {
		reason = "revoked"
	}
	if err := s.client.Set(ctx, s.key(jti), reason, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token %s: %w", jti, err)
	}
	return nil
}

// IsRevoked checks if a token id is revoked
func (s *RevocationStore) IsRevoked(ctx context.Context, jti uuid.UUID) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return n > 0, nil
}

// Reason returns why jti was revoked, or "" if it is not revoked. A revoked
// id always carries a non-empty reason.
func (s *RevocationStore) Reason(ctx context.Context, jti uuid.UUID) (string, error) {
	reason, err := s.client.Get(ctx, s.key(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read revocation: %w", err)
	}
	return reason, nil
}

func (s *RevocationStore) key(jti uuid.UUID) string {
	return fmt.Sprintf("revoked:%s", jti)
}
