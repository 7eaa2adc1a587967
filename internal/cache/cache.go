// internal/cache/cache.go
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "stockcast:query"

// QueryCache is a short-TTL cache for read-only query results. Callers
// build keys with BuildKey; values round-trip through JSON. A miss is
// (false, nil), never an error.
type QueryCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

type redisQueryCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopQueryCache struct{}

// NewQueryCache returns a redis-backed cache when enabled, a noop
// otherwise.
func NewQueryCache(cfg config.CacheConfig) (QueryCache, error) {
	if !cfg.Enabled {
		return &noopQueryCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisQueryCache{client: client, ttl: ttl}, nil
}

func NewNoopQueryCache() QueryCache {
	return &noopQueryCache{}
}

func (c *redisQueryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode cached query result: %w", err)
	}
	return true, nil
}

func (c *redisQueryCache) Set(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode query result for cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopQueryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}

func (n *noopQueryCache) Set(ctx context.Context, key string, value interface{}) error {
	return nil
}

// BuildKey hashes the sorted key parts under the shared prefix so
// equivalent queries land on the same entry.
func BuildKey(scope string, parts ...string) string {
	if len(parts) == 0 {
		return fmt.Sprintf("%s:%s:default", keyPrefix, scope)
	}
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s:%s", keyPrefix, scope, hex.EncodeToString(sum[:]))
}
