package tracker

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

const keyPrefix = "location:latest:"

// Client is the subset of redis.Cmdable the tracker needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Redis shares tracked locations across instances. Entries expire after ttl
// so a device that stops reporting eventually has no location.
type Redis struct {
	client Client
	ttl    time.Duration
}

func NewRedis(client Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (t *Redis) Latest(ctx context.Context, owner string) (*models.ResolvedLocation, error) {
	raw, err := t.client.Get(ctx, keyPrefix+owner).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tracked location: %w", err)
	}
	var loc models.ResolvedLocation
	if err := msgpack.Unmarshal(raw, &loc); err != nil {
		return nil, fmt.Errorf("decode tracked location: %w", err)
	}
	return &loc, nil
}

func (t *Redis) Set(ctx context.Context, owner string, loc models.ResolvedLocation) error {
	raw, err := msgpack.Marshal(&loc)
	if err != nil {
		return fmt.Errorf("encode tracked location: %w", err)
	}
	if err := t.client.Set(ctx, keyPrefix+owner, raw, t.ttl).Err(); err != nil {
		return fmt.Errorf("set tracked location: %w", err)
	}
	return nil
}
