package viewcache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"musicschool-news/pkg/clock"
)

func TestMemory_ShouldCountView(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC))
	cache := NewMemory(15 * time.Second)

	assert.True(t, cache.ShouldCountView(ctx, "a1", "client", clk.Now()), "first view counts")
	assert.False(t, cache.ShouldCountView(ctx, "a1", "client", clk.Advance(2*time.Second)), "repeat inside the window")

	t.Run("other client and other article are independent", func(t *testing.T) {
		assert.True(t, cache.ShouldCountView(ctx, "a1", "other-client", clk.Now()))
		assert.True(t, cache.ShouldCountView(ctx, "a2", "client", clk.Now()))
	})

	t.Run("counts again after the window", func(t *testing.T) {
		assert.True(t, cache.ShouldCountView(ctx, "a1", "client", clk.Advance(14*time.Second)))
	})
}

func TestMemory_WindowBoundary(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMemory(15 * time.Second)

	assert.True(t, cache.ShouldCountView(ctx, "a", "c", start))
	assert.False(t, cache.ShouldCountView(ctx, "a", "c", start.Add(15*time.Second-time.Nanosecond)))
	assert.True(t, cache.ShouldCountView(ctx, "a", "c", start.Add(15*time.Second)), "an entry exactly window old has expired")
}

func TestMemory_Sweep(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC))
	cache := NewMemory(10 * time.Second)

	for i := 0; i < 5; i++ {
		cache.ShouldCountView(ctx, "a", fmt.Sprintf("client-%d", i), clk.Now())
	}
	clk.Advance(5 * time.Second)
	cache.ShouldCountView(ctx, "a", "late", clk.Now())
	assert.Equal(t, 6, cache.Len())

	cache.Sweep(clk.Advance(6 * time.Second))
	assert.Equal(t, 1, cache.Len(), "only the late entry is still live")

	cache.Sweep(clk.Advance(10 * time.Second))
	assert.Equal(t, 0, cache.Len())
}

func TestMemory_ConcurrentSameClient(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMemory(15 * time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cache.ShouldCountView(ctx, "a", "c", now) {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)
}
