package docs

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protodoc/pkg/observability"
)

func testPage(name string) *Page {
	return &Page{
		Name:        name,
		Title:       "Mood enum",
		Entity:      "acme.greet.v1.Mood",
		ContentType: FormatMarkdown.ContentType(),
		Content:     []byte("# Mood enum\n"),
		Warnings:    []string{"Missing: unable to resolve reference"},
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	cache := NewMemoryCache(0, time.Minute, metrics)

	_, err := cache.Get(ctx, "1/mood.md")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "1/mood.md", testPage("mood.md")))
	page, err := cache.Get(ctx, "1/mood.md")
	require.NoError(t, err)
	assert.Equal(t, "mood.md", page.Name)
	assert.Equal(t, 1, cache.Len())

	assert.Error(t, cache.Set(ctx, "nil", nil))

	require.NoError(t, cache.Purge(ctx))
	assert.Equal(t, 0, cache.Len())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("memory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheMissesTotal.WithLabelValues("memory")))
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(10, 10*time.Millisecond, nil)

	require.NoError(t, cache.Set(ctx, "k", testPage("k")))
	assert.Eventually(t, func() bool {
		_, err := cache.Get(ctx, "k")
		return err == ErrCacheMiss
	}, time.Second, 5*time.Millisecond)
}

func newRedisCache(t *testing.T, metrics *observability.Metrics) (*RedisCache, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, "", time.Minute, metrics), mr, client
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	cache, mr, _ := newRedisCache(t, metrics)

	_, err := cache.Get(ctx, "1/mood.md")
	assert.ErrorIs(t, err, ErrCacheMiss)

	want := testPage("mood.md")
	require.NoError(t, cache.Set(ctx, "1/mood.md", want))
	assert.True(t, mr.Exists("protodoc:page:1/mood.md"))
	assert.Equal(t, time.Minute, mr.TTL("protodoc:page:1/mood.md"))

	got, err := cache.Get(ctx, "1/mood.md")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("redis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheMissesTotal.WithLabelValues("redis")))
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	cache, mr, _ := newRedisCache(t, nil)
	require.NoError(t, mr.Set("protodoc:page:bad", "{not json"))

	_, err := cache.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Purge(t *testing.T) {
	ctx := context.Background()
	cache, mr, _ := newRedisCache(t, nil)

	require.NoError(t, mr.Set("unrelated", "keep"))
	for _, key := range []string{"1/a.md", "1/b.md", "2/a.md"} {
		require.NoError(t, cache.Set(ctx, key, testPage(key)))
	}

	require.NoError(t, cache.Purge(ctx))
	assert.Equal(t, []string{"unrelated"}, mr.Keys())

	// purging an empty cache is a no-op
	require.NoError(t, cache.Purge(ctx))
}

func TestRedisCache_Unavailable(t *testing.T) {
	cache, mr, _ := newRedisCache(t, nil)
	mr.Close()

	_, err := cache.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Error(t, cache.Set(context.Background(), "k", testPage("k")))
}
