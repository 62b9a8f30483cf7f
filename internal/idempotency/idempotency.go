// Package idempotency caches the response to a mutating control-surface
// request so a retried client-supplied idempotency key replays the same
// result instead of re-running the command, per SPEC_FULL.md's domain-stack
// expansion. It sits entirely at the internal/httpapi adapter layer; it is
// never consulted by internal/roomactor, which stays the sole source of
// truth for room state. Grounded on the teacher's redis.NewClient wiring
// (config/config.go) and on VictorNM-elsa-coding-challenges's redis
// instrumentation conventions.
package idempotency

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL is how long a cached response survives, long enough to cover client
// retry windows without accumulating stale entries.
const TTL = 5 * time.Minute

// Cache stores and retrieves a JSON-serialisable response by key.
type Cache interface {
	Get(ctx context.Context, roomCode, key string, dest any) (bool, error)
	Put(ctx context.Context, roomCode, key string, value any) error
}

// RedisCache is the production implementation.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func cacheKey(roomCode, key string) string {
	return "idemp:" + roomCode + ":" + key
}

func (c *RedisCache) Get(ctx context.Context, roomCode, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(roomCode, key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) Put(ctx context.Context, roomCode, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(roomCode, key), raw, TTL).Err()
}

// NoopCache is used when no redis address is configured: every lookup
// misses and every put is discarded, so idempotency replay is simply
// unavailable rather than half-working.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string, string, any) (bool, error) { return false, nil }
func (NoopCache) Put(context.Context, string, string, any) error        { return nil }
