// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stderr)
//	logger.WithField("page", "acme.v1.greeter.md").Info("Rendered page")
//
// Rendering warnings carry the unresolved reference:
//
//	logger.WithField("reference", ref).Warn("unable to resolve reference")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.PagesRenderedTotal.WithLabelValues("markdown", "message").Inc()
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version, modelReady, redisClient)
//	status := checker.Check(ctx)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		ServiceName: "protodoc",
//		Endpoint:    "otel-collector:4317",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
package observability
