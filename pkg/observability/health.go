package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

// ReadinessFunc reports whether a component can serve requests
type ReadinessFunc func(ctx context.Context) error

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

type dependency struct {
	name  string
	check ReadinessFunc
	// optional dependencies degrade instead of failing readiness
	optional bool
}

// HealthChecker reports liveness and readiness of the documentation server
type HealthChecker struct {
	version      string
	dependencies []dependency
}

// NewHealthChecker creates a health checker. model reports whether the API
// model is loaded; redis is the shared page cache and may be nil.
func NewHealthChecker(version string, model ReadinessFunc, redis *redis.Client) *HealthChecker {
	h := &HealthChecker{version: version}
	if model != nil {
		h.dependencies = append(h.dependencies, dependency{name: "model", check: model})
	}
	if redis != nil {
		h.dependencies = append(h.dependencies, dependency{
			name:     "redis",
			check:    func(ctx context.Context) error { return redis.Ping(ctx).Err() },
			optional: true,
		})
	}
	return h
}

// HealthStatus is the readiness report
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus is the result of one dependency check
type DependencyStatus struct {
	Status    string  `json:"status"`
	Message   string  `json:"message,omitempty"`
	LatencyMS float64 `json:"latency_ms"`
}

// Liveness returns 200 while the process is running
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, HealthStatus{Status: StatusHealthy, Timestamp: time.Now(), Version: h.version})
}

// Readiness returns 503 while a required dependency is failing
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)
	code := http.StatusOK
	if status.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeHealth(w, code, status)
}

// Check runs every dependency check
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Version:      h.version,
		Dependencies: make(map[string]DependencyStatus, len(h.dependencies)),
	}

	for _, dep := range h.dependencies {
		start := time.Now()
		err := dep.check(ctx)
		result := DependencyStatus{
			Status:    StatusHealthy,
			LatencyMS: float64(time.Since(start).Microseconds()) / 1000,
		}
		if err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
			switch {
			case !dep.optional:
				status.Status = StatusUnhealthy
			case status.Status == StatusHealthy:
				status.Status = StatusDegraded
			}
		}
		status.Dependencies[dep.name] = result
	}
	return status
}

func writeHealth(w http.ResponseWriter, code int, status HealthStatus) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
