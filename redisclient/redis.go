/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Thin Redis client wrapper. main.go creates it and pings
             it at startup, logging and carrying on if Redis is
             unreachable; no other code calls it. The catalog/prompt
             caches (catalog.Store) and the snapshot store
             (compose.SnapshotStore) are in-memory only.
Root Cause:  Sprint task T102 — Redis-backed TTL caches and snapshot store.
Context:     Fixed the stale placeholder import path left over from
             the gateway's module rename.
Suitability: L2 — thin client wrapper, no custom protocol logic.
──────────────────────────────────────────────────────────────
*/

package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/venuehost/orchestrator/config"
)

// Client wraps a go-redis client with Get/Set/Del/Ping/Close. The TTL
// caches and the snapshot store do not use it.
type Client struct {
	c *redis.Client
}

// New creates a Redis client from the provided config. Returns an error
// if the Redis URL cannot be parsed.
func New(cfg *config.Config) (*Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	r := redis.NewClient(opt)
	return &Client{c: r}, nil
}

// Ping verifies connectivity with a short timeout.
func (r *Client) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.c.Ping(ctx).Err()
}

// Get returns the cached string value for key, ok=false on miss or error.
func (r *Client) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores value under key with the given TTL. Errors are returned
// to the caller so it can fall back to its in-memory cache, but are
// never fatal to the request path.
func (r *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

// Del removes a key, used to invalidate a cache entry on write.
func (r *Client) Del(ctx context.Context, key string) error {
	return r.c.Del(ctx, key).Err()
}

// Close releases the underlying connection pool.
func (r *Client) Close() error {
	return r.c.Close()
}
