// Package redis implements the optional SearchCache port, grounded on
// the teacher's adapters/driven/redis package: wired in only when
// REDIS_URL is configured, exactly mirroring the teacher's
// optional-Redis composition in main.go.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abrsearch/core/internal/core/domain"
	"github.com/abrsearch/core/internal/core/ports/driven"
)

// Cache is a driven.SearchCache backed by Redis.
type Cache struct {
	client *redis.Client
}

var _ driven.SearchCache = (*Cache)(nil)

// NewCache wraps an existing *redis.Client. Callers construct the
// client with redis.NewClient(&redis.Options{Addr: ...}) from
// REDIS_URL, following the teacher's connection setup.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, key string) (domain.SearchResult, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SearchResult{}, false, nil
	}
	if err != nil {
		return domain.SearchResult{}, false, fmt.Errorf("redis: get %s: %w", key, err)
	}

	var result domain.SearchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.SearchResult{}, false, fmt.Errorf("redis: unmarshal %s: %w", key, err)
	}
	return result, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, result domain.SearchResult, ttl time.Duration) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("redis: marshal: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Ping verifies connectivity at startup, following the teacher's
// fail-fast pattern for optional collaborators that, once configured,
// must actually work.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
