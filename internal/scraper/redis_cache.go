package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Cache backed by Redis, letting several scraper
// instances share scrape freshness state. Entries expire server-side a
// little after the freshness window so stale data does not accumulate.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to redisURL and verifies connectivity.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		return nil, fmt.Errorf("redis ping failed: %w", pingErr)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) redisKey(key CacheKey) string {
	return fmt.Sprintf("locopon:scrape:%s:%s", key.Retailer, key.PublicationID)
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	raw, err := c.client.Get(ctx, c.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry CacheEntry
	if unmarshalErr := json.Unmarshal(raw, &entry); unmarshalErr != nil {
		// A corrupt entry is treated as a miss; the next Set replaces it.
		return nil, nil
	}
	return &entry, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	// Keep entries a little beyond the freshness window so a forced
	// refresh can still compare against the previous result.
	expiry := c.ttl * 2
	if setErr := c.client.Set(ctx, c.redisKey(key), raw, expiry).Err(); setErr != nil {
		return fmt.Errorf("redis set: %w", setErr)
	}
	return nil
}

// Invalidate implements Cache.
func (c *RedisCache) Invalidate(ctx context.Context, key CacheKey) error {
	if err := c.client.Del(ctx, c.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
