package viewcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicschool-news/pkg/clock"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedis_ShouldCountView(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	clk := clock.NewFake(time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC))
	cache := NewRedis(client, 15*time.Second)

	assert.True(t, cache.ShouldCountView(ctx, "a1", "1.2.3.4|ua", clk.Now()))
	assert.True(t, mr.Exists("news:view:a1:1.2.3.4|ua"))
	assert.Equal(t, 15*time.Second, mr.TTL("news:view:a1:1.2.3.4|ua"))

	assert.False(t, cache.ShouldCountView(ctx, "a1", "1.2.3.4|ua", clk.Advance(2*time.Second)))
	assert.True(t, cache.ShouldCountView(ctx, "a1", "other", clk.Now()))

	t.Run("stale timestamp counts even before the key expires", func(t *testing.T) {
		assert.True(t, cache.ShouldCountView(ctx, "a1", "1.2.3.4|ua", clk.Advance(16*time.Second)))
	})

	t.Run("expired key counts", func(t *testing.T) {
		assert.True(t, cache.ShouldCountView(ctx, "a2", "c", clk.Now()))
		mr.FastForward(16 * time.Second)
		assert.True(t, cache.ShouldCountView(ctx, "a2", "c", clk.Now()), "the key is gone so the view counts again")
	})
}

func TestRedis_UnavailableDoesNotCount(t *testing.T) {
	mr, client := setupRedis(t)
	cache := NewRedis(client, 15*time.Second)
	mr.Close()

	require.NotPanics(t, func() {
		assert.False(t, cache.ShouldCountView(context.Background(), "a", "c", time.Now()))
	})
}
