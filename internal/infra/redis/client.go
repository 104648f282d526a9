// Package redis provides the seen-opportunity store backed by Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string
	Password string
	SeenTTL  time.Duration
}

// Client wraps Redis for shift deduplication.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.SeenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Client{rdb: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func seenKey(id string) string {
	return fmt.Sprintf("shifts:seen:%s", id)
}

// MarkSeen records an opportunity id and reports whether this was the
// first sighting. SETNX gives the check-and-set in one round trip.
func (c *Client) MarkSeen(ctx context.Context, id string) (bool, error) {
	first, err := c.rdb.SetNX(ctx, seenKey(id), "1", c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return first, nil
}

// Forget drops an opportunity id so the next sighting counts as first.
func (c *Client) Forget(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, seenKey(id)).Err(); err != nil {
		return fmt.Errorf("del failed: %w", err)
	}
	return nil
}
