// Package redis wraps go-redis/v9 for storing feature vectors as hashes with
// a TTL.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/config"
	"github.com/redis/go-redis/v9"
)

// Hash is one key's field/value pairs.
type Hash struct {
	Key    string
	Fields map[string]any
}

// Client wraps a go-redis client.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a Redis client and verifies the connection with a PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(options(cfg))
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

func options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
}

// StoreHashes writes every hash and sets its TTL in one MULTI/EXEC
// pipeline, so readers never see a hash without its expiry.
func (c *Client) StoreHashes(ctx context.Context, hashes []Hash, ttl time.Duration) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, h := range hashes {
			pipe.Del(ctx, h.Key)
			if len(h.Fields) > 0 {
				pipe.HSet(ctx, h.Key, h.Fields)
			}
			if ttl > 0 {
				pipe.Expire(ctx, h.Key, ttl)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storing %d hashes: %w", len(hashes), err)
	}
	return nil
}

// ReplaceList overwrites key with values in order.
func (c *Client) ReplaceList(ctx context.Context, key string, values []string, ttl time.Duration) error {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(args) > 0 {
			pipe.RPush(ctx, key, args...)
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replacing list %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping sends a PING to Redis and returns any error.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
