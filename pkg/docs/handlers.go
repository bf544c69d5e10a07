package docs

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/protodoc/pkg/httputil"
	"github.com/platinummonkey/protodoc/pkg/observability"
)

// DocsHandlers provides HTTP handlers for documentation
type DocsHandlers struct {
	site *Site
}

// NewDocsHandlers creates new documentation handlers
func NewDocsHandlers(site *Site) *DocsHandlers {
	return &DocsHandlers{site: site}
}

// RegisterRoutes registers documentation routes
func (h *DocsHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.getIndex).Methods("GET")
	router.HandleFunc("/pages/{file}", h.getPage).Methods("GET")
	router.HandleFunc("/api/entities", h.listEntities).Methods("GET")
	router.HandleFunc("/api/resolve", h.resolveReference).Methods("GET")
}

// getIndex handles GET / by redirecting to the index page, so that relative
// links between pages resolve below /pages/
func (h *DocsHandlers) getIndex(w http.ResponseWriter, r *http.Request) {
	d := h.site.Documenter()
	if d == nil {
		httputil.WriteServiceUnavailable(w, ErrNotLoaded.Error())
		return
	}
	http.Redirect(w, r, "/pages/"+d.IndexFilename(), http.StatusFound)
}

// getPage handles GET /pages/{file}
func (h *DocsHandlers) getPage(w http.ResponseWriter, r *http.Request) {
	file, err := httputil.ParsePathString(r, "file")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	page, err := h.site.Page(r.Context(), file)
	switch {
	case errors.Is(err, ErrNotLoaded):
		httputil.WriteServiceUnavailable(w, err.Error())
		return
	case errors.Is(err, ErrPageNotFound):
		httputil.WriteNotFoundError(w, "no page named "+file)
		return
	case err != nil:
		observability.FromContext(r.Context()).WithError(err).WithField("page", file).Error("Failed to render page")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteContent(w, r, page.ContentType, page.Content)
}

// listEntities handles GET /api/entities
func (h *DocsHandlers) listEntities(w http.ResponseWriter, r *http.Request) {
	d := h.site.Documenter()
	if d == nil {
		httputil.WriteServiceUnavailable(w, ErrNotLoaded.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d.Summaries())
}

// resolveReference handles GET /api/resolve?ref={ref}&from={scope}
func (h *DocsHandlers) resolveReference(w http.ResponseWriter, r *http.Request) {
	ref := httputil.ParseQueryString(r, "ref", "")
	if !httputil.RequireNonEmpty(w, ref, "ref") {
		return
	}
	d := h.site.Documenter()
	if d == nil {
		httputil.WriteServiceUnavailable(w, ErrNotLoaded.Error())
		return
	}

	resolution, err := d.Resolve(ref, httputil.ParseQueryString(r, "from", ""))
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	status := http.StatusOK
	if !resolution.Resolved() {
		status = http.StatusNotFound
	}
	httputil.WriteJSON(w, status, resolution)
}

// ServerOptions holds the optional parts of the documentation server
type ServerOptions struct {
	Logger   *observability.Logger
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Health   *observability.HealthChecker
}

// NewServerHandler assembles the documentation routes, health and metrics
// endpoints and the middleware stack
func NewServerHandler(site *Site, opts ServerOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	router := mux.NewRouter()
	NewDocsHandlers(site).RegisterRoutes(router)
	if opts.Health != nil {
		router.HandleFunc("/health/live", opts.Health.Liveness).Methods("GET")
		router.HandleFunc("/health/ready", opts.Health.Readiness).Methods("GET")
	}
	if opts.Registry != nil {
		router.Handle("/metrics", observability.MetricsHandler(opts.Registry)).Methods("GET")
	}
	if opts.Metrics != nil {
		router.Use(observability.HTTPMetricsMiddleware(opts.Metrics, httputil.RouteTemplate))
	}

	handler := httputil.Chain(
		httputil.RequestIDMiddleware(logger),
		httputil.LoggingMiddleware,
		httputil.RecoveryMiddleware,
	)(router)
	return otelhttp.NewHandler(handler, "protodoc")
}
