package dataset

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 6 * time.Hour

// PayloadCache stores raw dataset documents between refreshes
// (implemented by the Redis-backed Cache).
type PayloadCache interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Set(ctx context.Context, name string, payload []byte) error
}

// Cache keeps dataset payloads in Redis so a restart does not need the
// remote export to come up.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ PayloadCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(name string) string {
	return "dataset:payload:" + name
}

func (c *Cache) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key(name)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (c *Cache) Set(ctx context.Context, name string, payload []byte) error {
	return c.client.Set(ctx, c.key(name), payload, c.ttl).Err()
}
