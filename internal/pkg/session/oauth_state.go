// internal/pkg/session/oauth_state.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore remembers OAuth state values issued for a provider redirect.
type StateStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewStateStore(client redis.UniversalClient, ttl time.Duration) *StateStore {
	return &StateStore{client: client, ttl: ttl}
}

func (s *StateStore) Save(ctx context.Context, state, provider string) error {
	if err := s.client.Set(ctx, stateKey(state), provider, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	return nil
}

// Consume deletes state and reports whether it had been issued for provider.
// A state can be consumed once.
func (s *StateStore) Consume(ctx context.Context, state, provider string) (bool, error) {
	stored, err := s.client.GetDel(ctx, stateKey(state)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return stored == provider, nil
}

func stateKey(state string) string {
	return fmt.Sprintf("oauth_state:%s", state)
}
