// Package cache keeps reverse geocoding results in Redis, msgpack encoded.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vishvendra9627/tourist-safety-app/internal/location/models"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/sentinel"
)

// Client is the subset of redis.Cmdable the cache needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCache implements resolver.Cache.
type RedisCache struct {
	client Client
	ttl    time.Duration
}

// NewRedis returns a cache whose entries expire after ttl. A zero ttl keeps
// entries until evicted.
func NewRedis(client Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.ResolvedLocation, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.ResolvedLocation{}, sentinel.ErrCacheMiss
	}
	if err != nil {
		return models.ResolvedLocation{}, fmt.Errorf("get %s: %w", key, err)
	}
	var loc models.ResolvedLocation
	if err := msgpack.Unmarshal(raw, &loc); err != nil {
		return models.ResolvedLocation{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return loc, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, loc models.ResolvedLocation) error {
	raw, err := msgpack.Marshal(&loc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
