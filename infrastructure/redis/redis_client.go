package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RedisClient struct {
	client *goredis.Client
}

func NewRedisClient(config RedisConfig) *RedisClient {
	return &RedisClient{
		client: goredis.NewClient(&goredis.Options{
			Addr:     fmt.Sprintf("%s:%s", config.Host, config.Port),
			Password: config.Password,
			DB:       config.DB,
		}),
	}
}

// NewRedisClientFromClient wraps an existing client, used by tests against miniredis.
func NewRedisClientFromClient(client *goredis.Client) *RedisClient {
	return &RedisClient{client: client}
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) Client() *goredis.Client {
	return r.client
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
