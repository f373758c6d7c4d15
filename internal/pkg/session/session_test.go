package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRevocationStore(t *testing.T) {
	mr, client := newRedis(t)
	store := NewRevocationStore(client)
	ctx := context.Background()
	jti := uuid.New()

	revoked, err := store.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, jti, "logout", time.Minute))

	revoked, err = store.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)

	reason, err := store.Reason(ctx, jti)
	require.NoError(t, err)
	assert.Equal(t, "logout", reason)

	mr.FastForward(2 * time.Minute)

	revoked, err = store.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)

	reason, err = store.Reason(ctx, jti)
	require.NoError(t, err)
	assert.Empty(t, reason)

	// an id revoked without a reason still reads as revoked
	blank := uuid.New()
	require.NoError(t, store.Revoke(ctx, blank, "", time.Minute))
	reason, err = store.Reason(ctx, blank)
	require.NoError(t, err)
	assert.Equal(t, "revoked", reason)
}

func TestRevokeWithoutTTLIsNoop(t *testing.T) {
	_, client := newRedis(t)
	store := NewRevocationStore(client)
	jti := uuid.New()

	require.NoError(t, store.Revoke(context.Background(), jti, "refresh", 0))

	revoked, err := store.IsRevoked(context.Background(), jti)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationStoreUnavailable(t *testing.T) {
	mr, client := newRedis(t)
	store := NewRevocationStore(client)
	mr.Close()

	_, err := store.IsRevoked(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestRateLimiterAllow(t *testing.T) {
	mr, client := newRedis(t)
	limiter := NewRateLimiter(client, 5, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "127.0.0.1:/login", 2, 5*time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := limiter.Allow(ctx, "127.0.0.1:/login", 2, 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(6 * time.Second)

	ok, err = limiter.Allow(ctx, "127.0.0.1:/login", 2, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginLockout(t *testing.T) {
	_, client := newRedis(t)
	limiter := NewRateLimiter(client, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		locked, err := limiter.IsLoginLocked(ctx, "10.0.0.1", "a@b.c")
		require.NoError(t, err)
		assert.False(t, locked)
		_, err = limiter.RecordLoginFailure(ctx, "10.0.0.1", "a@b.c")
		require.NoError(t, err)
	}

	locked, err := limiter.IsLoginLocked(ctx, "10.0.0.1", "a@b.c")
	require.NoError(t, err)
	assert.True(t, locked)

	require.NoError(t, limiter.ResetLoginAttempts(ctx, "10.0.0.1", "a@b.c"))
	locked, err = limiter.IsLoginLocked(ctx, "10.0.0.1", "a@b.c")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestStateStoreSingleUse(t *testing.T) {
	_, client := newRedis(t)
	states := NewStateStore(client, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, states.Save(ctx, "abc", "google"))

	ok, err := states.Consume(ctx, "abc", "vk")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, states.Save(ctx, "abc", "google"))
	ok, err = states.Consume(ctx, "abc", "google")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = states.Consume(ctx, "abc", "google")
	require.NoError(t, err)
	assert.False(t, ok)
}
