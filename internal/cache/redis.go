package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores session entries in Redis with an expiry so abandoned sessions
// clean themselves up
type RedisCache struct {
	client *redis.Client
	opts   options
}

// NewRedisCache creates a Redis-backed session cache
func NewRedisCache(client *redis.Client, opts ...Option) *RedisCache {
	return &RedisCache{client: client, opts: buildOptions(opts)}
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.opts.key(sessionID, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, sessionID, key string, value []byte) error {
	if err := c.client.Set(ctx, c.opts.key(sessionID, key), value, c.opts.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, sessionID, key string) error {
	if err := c.client.Del(ctx, c.opts.key(sessionID, key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}
