package clickguard

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "sixdegrees:click:"

// RedisGuard shares dedupe state between service replicas.
type RedisGuard struct {
	client *redis.Client
}

func NewRedisGuard(ctx context.Context, url string) (*RedisGuard, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisGuard{client: client}, nil
}

func NewRedisGuardFromClient(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

func (g *RedisGuard) FirstVisit(ctx context.Context, key string, window time.Duration) (bool, error) {
	return g.client.SetNX(ctx, keyPrefix+key, 1, window).Result()
}

func (g *RedisGuard) Close() error {
	return g.client.Close()
}
