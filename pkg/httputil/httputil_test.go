package httputil

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protodoc/pkg/observability"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteJSON(w, http.StatusOK, map[string]string{"message": "success"})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"success"}`, w.Body.String())
}

func TestWriteErrors(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		body   string
	}{
		{"error", func(w http.ResponseWriter) { WriteError(w, http.StatusTeapot, errors.New("short")) }, http.StatusTeapot, `{"error":"short"}`},
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "ref is required") }, http.StatusBadRequest, `{"error":"ref is required"}`},
		{"not found", func(w http.ResponseWriter) { WriteNotFoundError(w, "no page") }, http.StatusNotFound, `{"error":"no page"}`},
		{"internal", func(w http.ResponseWriter) { WriteInternalError(w, errors.New("boom")) }, http.StatusInternalServerError, `{"error":"boom"}`},
		{"unavailable", func(w http.ResponseWriter) { WriteServiceUnavailable(w, "loading") }, http.StatusServiceUnavailable, `{"error":"loading"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestWriteContent(t *testing.T) {
	content := []byte("# Title\n")
	etag := ETag(content)
	assert.Len(t, etag, 34)

	w := httptest.NewRecorder()
	WriteContent(w, httptest.NewRequest("GET", "/pages/index.md", nil), "text/markdown; charset=utf-8", content)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "8", w.Header().Get("Content-Length"))
	assert.Equal(t, etag, w.Header().Get("ETag"))
	assert.Equal(t, "# Title\n", w.Body.String())

	for _, match := range []string{etag, `"other", ` + etag, "W/" + etag, "*"} {
		req := httptest.NewRequest("GET", "/pages/index.md", nil)
		req.Header.Set("If-None-Match", match)
		w = httptest.NewRecorder()
		WriteContent(w, req, "text/markdown; charset=utf-8", content)
		assert.Equal(t, http.StatusNotModified, w.Code, match)
		assert.Empty(t, w.Body.String())
	}

	req := httptest.NewRequest("GET", "/pages/index.md", nil)
	req.Header.Set("If-None-Match", `"stale"`)
	w = httptest.NewRecorder()
	WriteContent(w, req, "text/markdown; charset=utf-8", content)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWriteServiceUnavailable_RetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	WriteServiceUnavailable(w, "loading")
	assert.Equal(t, "5", w.Header().Get("Retry-After"))
}

func TestParsePathString(t *testing.T) {
	req := httptest.NewRequest("GET", "/pages/acme.v1.md", nil)
	req = mux.SetURLVars(req, map[string]string{"file": "acme.v1.md"})

	val, err := ParsePathString(req, "file")
	require.NoError(t, err)
	assert.Equal(t, "acme.v1.md", val)

	_, err = ParsePathString(req, "missing")
	assert.Error(t, err)
}

func TestParseQueryString(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/resolve?ref=Foo", nil)

	assert.Equal(t, "Foo", ParseQueryString(req, "ref", ""))
	assert.Equal(t, "acme", ParseQueryString(req, "from", "acme"))
}

func TestRequireNonEmpty(t *testing.T) {
	w := httptest.NewRecorder()
	assert.True(t, RequireNonEmpty(w, "x", "ref"))
	assert.False(t, RequireNonEmpty(w, "", "ref"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ref is required")
}

func TestRouteTemplate(t *testing.T) {
	var got string
	router := mux.NewRouter()
	router.HandleFunc("/pages/{file}", func(w http.ResponseWriter, r *http.Request) {
		got = RouteTemplate(r)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/pages/a.md", nil))

	assert.Equal(t, "/pages/{file}", got)
	assert.Equal(t, "unmatched", RouteTemplate(httptest.NewRequest("GET", "/", nil)))
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.InfoLevel, &buf)

	var seen string
	handler := Chain(RequestIDMiddleware(logger), LoggingMiddleware)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = observability.GetRequestID(r.Context())
		}),
	)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), seen)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "caller-id")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "caller-id", seen)
	assert.Equal(t, "caller-id", w.Header().Get(RequestIDHeader))
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("render exploded")
	}))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(observability.WithLogger(req.Context(), observability.NopLogger()))

	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
