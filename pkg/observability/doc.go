// Package observability provides structured logging, Prometheus metrics, and graceful shutdown.
//
// # Overview
//
// This package centralizes the ambient infrastructure shared by the CLI, the
// watcher and the HTTP server: a configured logrus logger, resolution and
// reload metrics, and a shutdown manager for long-running commands.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, observability.FormatJSON, os.Stderr)
//	logger.WithField("root", root).Info("Resolving closure")
//
// Request-scoped logging:
//
//	ctx = observability.WithRequestID(ctx, id)
//	observability.FromContext(ctx, logger).Warn("Reload skipped")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.ObserveResolution("success", elapsed, visited, parsed)
//
// A nil *Metrics records nothing, so library code can accept one optionally.
//
// # Related Packages
//
//   - pkg/config: Logging and metrics configuration
//   - pkg/api: HTTP middleware and /metrics endpoint
package observability
