package db

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisSingleNode(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(context.Background(), RedisConfig{Addresses: []string{mr.Addr()}, PoolSize: 2})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.Exists("k"))
}

func TestNewRedisFailsFast(t *testing.T) {
	_, err := NewRedis(context.Background(), RedisConfig{})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedis(context.Background(), RedisConfig{Addresses: []string{addr}})
	assert.Error(t, err)
}
