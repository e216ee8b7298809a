package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aryan0dhankhar/crafthire/internal/reliability/circuitbreaker"
)

const scanBatch = 100

// Cache implements pkg/cache.Cache on Redis. Calls go through a circuit
// breaker so a Redis outage degrades to cache misses instead of slow
// requests.
type Cache struct {
	client *Client
	cb     *circuitbreaker.CircuitBreaker
	logger *slog.Logger
}

// NewCache creates a Redis-backed cache
func NewCache(client *Client, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	cb := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	cb.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("redis cache circuit changed state",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return &Cache{client: client, cb: cb, logger: logger}
}

// Get returns the cached bytes for key
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var val []byte
	err := c.cb.Execute(func() error {
		b, err := c.client.rdb.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		val = b
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return val, val != nil, nil
}

// Set stores value under key for ttl
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.cb.Execute(func() error {
		return c.client.rdb.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate deletes every key starting with prefix using SCAN
func (c *Cache) Invalidate(ctx context.Context, prefix string) error {
	err := c.cb.Execute(func() error {
		iter := c.client.rdb.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
		var batch []string
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == scanBatch {
				if err := c.client.rdb.Del(ctx, batch...).Err(); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(batch) > 0 {
			return c.client.rdb.Del(ctx, batch...).Err()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
