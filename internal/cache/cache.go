package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/saferoute/internal/route"
)

// Cache is a Redis front for recently computed routes, keyed by fingerprint.
// Entries expire when the record leaves the reuse window.
type Cache struct {
	client *redis.Client
	window time.Duration
}

// NewCache constructs a Cache that keeps routes for window after their
// creation. The caller owns the window; a non-positive one stores nothing.
func NewCache(client *redis.Client, window time.Duration) *Cache {
	return &Cache{client: client, window: window}
}

func key(fp route.Fingerprint) string {
	return "route:" + fp.String()
}

// Get retrieves the cached route for fp.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) Get(ctx context.Context, fp route.Fingerprint) (*route.Record, error) {
	val, err := c.client.Get(ctx, key(fp)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for route %s: %w", fp, err)
	}

	var rec route.Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling cached route %s: %w", fp, err)
	}

	return &rec, nil
}

// Set stores rec until it ages out of the window, measured from now.
// Anonymous and already expired records are not stored.
func (c *Cache) Set(ctx context.Context, rec route.Record, now time.Time) error {
	if rec.RequesterID == "" {
		return nil
	}
	ttl := c.window - now.Sub(rec.CreatedAt)
	if ttl <= 0 {
		return nil
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling route %s: %w", rec.ID, err)
	}

	if err := c.client.Set(ctx, key(rec.Fingerprint()), b, ttl).Err(); err != nil {
		return fmt.Errorf("cache set for route %s: %w", rec.ID, err)
	}

	return nil
}
