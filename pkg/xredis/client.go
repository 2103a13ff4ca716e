package xredis

import (
	"context"
	"time"

	"github.com/checkin-lab/backend/pkg/xcontext"
	"github.com/redis/go-redis/v9"
)

type Client interface {
	// IncrWithTTL increments key, setting it to 1 with ttl=window on first
	// use, and returns the post-increment count with the remaining ttl.
	IncrWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type client struct {
	redisClient *redis.Client
}

func NewClient(ctx context.Context) (*client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:            xcontext.Configs(ctx).Redis.Addr,
		MaxRetries:      5,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		PoolFIFO:        false,
		PoolSize:        5,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &client{redisClient: redisClient}, nil
}

func (c *client) IncrWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := c.redisClient.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	remaining := ttl.Val()
	if remaining < 0 {
		// First increment in the window, or a key left without expiry by an
		// interrupted pipeline. Either way the window starts now.
		if err := c.redisClient.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}

		remaining = window
	}

	return incr.Val(), remaining, nil
}
