package viewcache

import (
	"context"
	"errors"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"musicschool-news/pkg/logger"
)

const redisKeyPrefix = "news:view:"

// Redis stores one key per (article, client) holding the accepted time in unix nanoseconds.
// The key TTL equals the window, so Redis does the eviction; the stored timestamp is still
// compared against now so decisions follow the injected clock.
type Redis struct {
	client *goredis.Client
	window time.Duration
}

func NewRedis(client *goredis.Client, window time.Duration) *Redis {
	return &Redis{client: client, window: window}
}

func redisKey(articleKey, clientKey string) string {
	return redisKeyPrefix + articleKey + ":" + clientKey
}

// ShouldCountView returns false when Redis cannot be reached.
func (r *Redis) ShouldCountView(ctx context.Context, articleKey, clientKey string, now time.Time) bool {
	key := redisKey(articleKey, clientKey)

	raw, err := r.client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, goredis.Nil):
	case err != nil:
		logger.CacheError("view_lookup_failed", "Failed to read view cache", err, map[string]interface{}{"key": key})
		return false
	default:
		if ts, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil && now.Sub(time.Unix(0, ts)) < r.window {
			return false
		}
	}

	if err := r.client.Set(ctx, key, strconv.FormatInt(now.UnixNano(), 10), r.window).Err(); err != nil {
		logger.CacheError("view_store_failed", "Failed to write view cache", err, map[string]interface{}{"key": key})
		return false
	}
	return true
}

// Sweep is a no-op: key TTLs expire entries.
func (r *Redis) Sweep(now time.Time) {}
