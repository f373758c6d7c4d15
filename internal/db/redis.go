// internal/db/redis.go
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 5 * time.Second

type RedisConfig struct {
	ClusterMode bool
	Addresses   []string
	Password    string
	DB          int
	PoolSize    int
}

func (cfg RedisConfig) client() redis.UniversalClient {
	opts := &redis.UniversalOptions{
		Addrs:    cfg.Addresses,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
	if cfg.ClusterMode {
		return redis.NewClusterClient(opts.Cluster())
	}
	// a single node dials the first address only
	return redis.NewClient(opts.Simple())
}

// NewRedis returns a cluster client in cluster mode and a single-node client
// otherwise, after checking the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (redis.UniversalClient, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("no Redis address provided")
	}

	client := cfg.client()

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis %v: %w", cfg.Addresses, err)
	}
	return client, nil
}
