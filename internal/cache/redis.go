// Package cache keeps fetched listing pages in Redis so re-runs within the TTL
// do not hit the source again.
package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "fashionetl:page:"

type PageCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// New connects to the Redis instance at url (redis://...).
func New(ctx context.Context, url string, ttl time.Duration) (*PageCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	return &PageCache{Client: client, TTL: ttl}, nil
}

// Key maps a page URL to its Redis key.
func Key(url string) string {
	return fmt.Sprintf("%s%x", keyPrefix, sha256.Sum256([]byte(url)))
}

// Get returns the cached page and true on a hit.
func (c *PageCache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	val, err := c.Client.Get(ctx, Key(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *PageCache) Set(ctx context.Context, url string, page []byte) error {
	return c.Client.Set(ctx, Key(url), page, c.TTL).Err()
}

func (c *PageCache) Close() error {
	return c.Client.Close()
}
