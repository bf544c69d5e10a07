package docs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/protodoc/pkg/observability"
)

// ErrCacheMiss is returned by PageCache.Get when no page is stored under the key
var ErrCacheMiss = errors.New("cache miss")

// PageCache stores rendered pages between requests
type PageCache interface {
	Get(ctx context.Context, key string) (*Page, error)
	Set(ctx context.Context, key string, page *Page) error
	// Purge drops every page, used when the model is reloaded
	Purge(ctx context.Context) error
}

// MemoryCache is an in-process LRU page cache with expiry
type MemoryCache struct {
	cache   *lru.LRU[string, *Page]
	metrics *observability.Metrics
}

// NewMemoryCache creates a cache holding at most size pages for ttl each.
// metrics may be nil.
func NewMemoryCache(size int, ttl time.Duration, metrics *observability.Metrics) *MemoryCache {
	if size < 10 {
		size = 10
	}
	return &MemoryCache{
		cache:   lru.NewLRU[string, *Page](size, nil, ttl),
		metrics: metrics,
	}
}

// Get retrieves a cached page
func (c *MemoryCache) Get(ctx context.Context, key string) (*Page, error) {
	page, ok := c.cache.Get(key)
	if !ok {
		recordLookup(c.metrics, "memory", false)
		return nil, ErrCacheMiss
	}
	recordLookup(c.metrics, "memory", true)
	return page, nil
}

// Set stores a page
func (c *MemoryCache) Set(ctx context.Context, key string, page *Page) error {
	if page == nil {
		return fmt.Errorf("page cannot be nil")
	}
	c.cache.Add(key, page)
	return nil
}

// Purge drops every page
func (c *MemoryCache) Purge(ctx context.Context) error {
	c.cache.Purge()
	return nil
}

// Len returns the number of cached pages
func (c *MemoryCache) Len() int {
	return c.cache.Len()
}

// RedisCache shares rendered pages between server replicas
type RedisCache struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewRedisCache creates a cache storing pages under prefix with the given
// expiry. metrics may be nil.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration, metrics *observability.Metrics) *RedisCache {
	if prefix == "" {
		prefix = "protodoc:page:"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl, metrics: metrics}
}

// Get retrieves a cached page
func (c *RedisCache) Get(ctx context.Context, key string) (*Page, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		recordLookup(c.metrics, "redis", false)
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read page %s from redis: %w", key, err)
	}

	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to decode cached page %s: %w", key, err)
	}
	recordLookup(c.metrics, "redis", true)
	return &page, nil
}

// Set stores a page
func (c *RedisCache) Set(ctx context.Context, key string, page *Page) error {
	if page == nil {
		return fmt.Errorf("page cannot be nil")
	}
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to encode page %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write page %s to redis: %w", key, err)
	}
	return nil
}

// Purge deletes every key under the cache prefix
func (c *RedisCache) Purge(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached pages: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to purge cached pages: %w", err)
	}
	return nil
}

func recordLookup(metrics *observability.Metrics, backend string, hit bool) {
	if metrics == nil {
		return
	}
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(backend).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(backend).Inc()
	}
}
