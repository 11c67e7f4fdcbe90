package sale

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache is a read-through Redis cache for whole sale aggregates. A nil Cache
// or nil client degrades to a no-op so callers never need to guard.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a sale cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(id uuid.UUID) string {
	return "sale:" + id.String()
}

// Get loads a cached sale. It reports whether the key existed.
func (c *Cache) Get(ctx context.Context, id uuid.UUID) (Sale, bool, error) {
	if c == nil || c.client == nil {
		return Sale{}, false, nil
	}
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Sale{}, false, nil
		}
		return Sale{}, false, err
	}
	var s Sale
	if err := json.Unmarshal(data, &s); err != nil {
		return Sale{}, false, err
	}
	return s, true, nil
}

// Set stores a sale with the configured TTL.
func (c *Cache) Set(ctx context.Context, s Sale) error {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(s.ID), data, c.ttl).Err()
}

// Drop removes a cached sale after a write or delete.
func (c *Cache) Drop(ctx context.Context, id uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKey(id)).Err()
}
