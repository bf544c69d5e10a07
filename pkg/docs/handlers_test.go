package docs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protodoc/pkg/httputil"
	"github.com/platinummonkey/protodoc/pkg/observability"
)

type testServer struct {
	site     *Site
	handler  http.Handler
	metrics  *observability.Metrics
	registry *prometheus.Registry
	cache    *MemoryCache
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	cache := NewMemoryCache(100, time.Minute, metrics)
	site := NewSite(cache, observability.NopLogger())
	health := observability.NewHealthChecker("test", site.Ready, nil)

	return &testServer{
		site:     site,
		metrics:  metrics,
		registry: registry,
		cache:    cache,
		handler: NewServerHandler(site, ServerOptions{
			Logger:   observability.NopLogger(),
			Metrics:  metrics,
			Registry: registry,
			Health:   health,
		}),
	}
}

func (s *testServer) load(t *testing.T) {
	t.Helper()
	d := NewDocumenter(loadGreeter(t), Options{}, observability.NopLogger(), s.metrics)
	require.NoError(t, s.site.Swap(context.Background(), d))
}

func (s *testServer) get(target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func TestServer_NotLoaded(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/", "/pages/index.md", "/api/entities", "/api/resolve?ref=Mood"} {
		t.Run(target, func(t *testing.T) {
			w := s.get(target)
			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Contains(t, w.Body.String(), ErrNotLoaded.Error())
		})
	}

	w := s.get("/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = s.get("/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_IndexRedirect(t *testing.T) {
	s := newTestServer(t)
	s.load(t)

	w := s.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/pages/index.md", w.Header().Get("Location"))
}

func TestServer_Page(t *testing.T) {
	s := newTestServer(t)
	s.load(t)

	w := s.get("/pages/acme.greet.v1.mood.md")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "# Mood enum\n"))
	assert.NotEmpty(t, w.Header().Get(httputil.RequestIDHeader))

	// the second request is served from the cache
	w = s.get("/pages/acme.greet.v1.mood.md")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, s.cache.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.CacheHitsTotal.WithLabelValues("memory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.PagesRenderedTotal.WithLabelValues("markdown", "enum")))

	w = s.get("/pages/index.md")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "[acme.greet.v1](acme.greet.v1.md)")

	assert.Equal(t, 3.0, testutil.ToFloat64(
		s.metrics.HTTPRequestsTotal.WithLabelValues("GET", "/pages/{file}", "200")))
}

func TestServer_PageNotModified(t *testing.T) {
	s := newTestServer(t)
	s.load(t)

	w := s.get("/pages/acme.greet.v1.mood.md")
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/pages/acme.greet.v1.mood.md", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestServer_PageNotFound(t *testing.T) {
	s := newTestServer(t)
	s.load(t)

	w := s.get("/pages/nothing.md")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "no page named nothing.md", body.Error)
}

func TestServer_SwapInvalidatesPages(t *testing.T) {
	s := newTestServer(t)
	s.load(t)

	require.Equal(t, http.StatusOK, s.get("/pages/acme.greet.v1.mood.md").Code)
	assert.Equal(t, 1, s.cache.Len())

	d := NewDocumenter(loadGreeter(t), Options{Format: FormatHTML}, nil, nil)
	require.NoError(t, s.site.Swap(context.Background(), d))
	assert.Equal(t, 0, s.cache.Len())

	assert.Equal(t, http.StatusNotFound, s.get("/pages/acme.greet.v1.mood.md").Code)
	w := s.get("/pages/acme.greet.v1.mood.html")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestServer_Entities(t *testing.T) {
	s := newTestServer(t)
	s.load(t)

	w := s.get("/api/entities")
	require.Equal(t, http.StatusOK, w.Code)

	var entities []EntitySummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entities))
	require.Len(t, entities, 6)
	assert.Equal(t, EntitySummary{Name: "acme.greet.v1", Kind: "package", File: "acme.greet.v1.md"}, entities[0])
	assert.Equal(t, "acme.greet.v1.Mood", entities[5].Name)
}

func TestServer_Resolve(t *testing.T) {
	s := newTestServer(t)
	s.load(t)

	tests := []struct {
		name   string
		target string
		status int
		check  func(t *testing.T, r Resolution)
	}{
		{
			name:   "resolved",
			target: "/api/resolve?ref=Mood&from=acme.greet.v1.HelloRequest",
			status: http.StatusOK,
			check: func(t *testing.T, r Resolution) {
				assert.Equal(t, "acme.greet.v1.Mood", r.Entity)
				assert.Equal(t, "enum", r.Kind)
				assert.Equal(t, "acme.greet.v1.mood.md", r.File)
			},
		},
		{
			name:   "unresolved",
			target: "/api/resolve?ref=Mood",
			status: http.StatusNotFound,
			check: func(t *testing.T, r Resolution) {
				assert.False(t, r.Resolved())
				assert.Equal(t, "no declaration named Mood", r.Error)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.get(tt.target)
			require.Equal(t, tt.status, w.Code)
			var r Resolution
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
			tt.check(t, r)
		})
	}

	assert.Equal(t, http.StatusBadRequest, s.get("/api/resolve").Code)
	assert.Equal(t, http.StatusBadRequest, s.get("/api/resolve?ref=Mood&from=acme.nowhere").Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	s.load(t)

	w := s.get("/health/ready")
	require.Equal(t, http.StatusOK, w.Code)
	var status observability.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, observability.StatusHealthy, status.Status)
	assert.Equal(t, observability.StatusHealthy, status.Dependencies["model"].Status)

	s.get("/pages/index.md")
	w = s.get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "protodoc_pages_rendered_total")
	assert.Contains(t, w.Body.String(), "protodoc_entities_documented 6")
}
