package idempotency

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client)
}

type cachedResponse struct {
	Snapshot string `json:"snapshot"`
}

func TestRedisCache_MissThenHit(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	var dest cachedResponse
	found, err := cache.Get(ctx, "ABCDEF", "req-1", &dest)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, cache.Put(ctx, "ABCDEF", "req-1", cachedResponse{Snapshot: "v1"}))

	found, err = cache.Get(ctx, "ABCDEF", "req-1", &dest)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v1", dest.Snapshot)
}

func TestRedisCache_KeyedByRoom(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "ROOMA", "req-1", cachedResponse{Snapshot: "a"}))

	var dest cachedResponse
	found, err := cache.Get(ctx, "ROOMB", "req-1", &dest)
	require.NoError(t, err)
	require.False(t, found, "same idempotency key in a different room must not collide")
}

func TestNoopCache_AlwaysMisses(t *testing.T) {
	cache := NoopCache{}
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "ABCDEF", "req-1", cachedResponse{Snapshot: "v1"}))
	var dest cachedResponse
	found, err := cache.Get(ctx, "ABCDEF", "req-1", &dest)
	require.NoError(t, err)
	require.False(t, found)
}
