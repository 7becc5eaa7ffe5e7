// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"loan-intake-workers/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient holds the score cache connection pool.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis creates the score cache client. Read and write timeouts are short;
// callers fall back to Postgres on a cache error.
func NewRedis(cfg config.RedisConfig) *RedisClient {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     poolSize,
		MinIdleConns: poolSize / 5,
	})

	return &RedisClient{Client: rdb}
}

// Ping reports whether the cache answers.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
