package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing, so components can take one optionally.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Resolution metrics
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram
	ProjectsVisited    prometheus.Histogram
	ProjectsLoaded     prometheus.Counter

	// Reload metrics
	ReloadsTotal   *prometheus.CounterVec
	ReloadsSkipped prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slnreload_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slnreload_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slnreload_resolutions_total",
				Help: "Total number of closure resolutions",
			},
			[]string{"status"},
		),
		ResolutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "slnreload_resolution_duration_seconds",
				Help:    "Closure resolution duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		ProjectsVisited: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "slnreload_resolution_projects_visited",
				Help:    "Number of projects in each resolved closure",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		ProjectsLoaded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "slnreload_projects_parsed_total",
				Help: "Total number of project files parsed",
			},
		),

		ReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slnreload_reloads_total",
				Help: "Total number of project reload requests sent to the host",
			},
			[]string{"status"},
		),
		ReloadsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "slnreload_reloads_skipped_total",
				Help: "Closure members skipped because they were not unloaded",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ResolutionsTotal,
		m.ResolutionDuration,
		m.ProjectsVisited,
		m.ProjectsLoaded,
		m.ReloadsTotal,
		m.ReloadsSkipped,
	)

	return m
}

// ObserveResolution records one finished resolution
func (m *Metrics) ObserveResolution(status string, duration time.Duration, visited, parsed int) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(status).Inc()
	m.ResolutionDuration.Observe(duration.Seconds())
	if status == "success" {
		m.ProjectsVisited.Observe(float64(visited))
	}
	m.ProjectsLoaded.Add(float64(parsed))
}

// ObserveReload records one reload request
func (m *Metrics) ObserveReload(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ReloadsTotal.WithLabelValues(status).Inc()
}

// ObserveSkipped records closure members that needed no reload
func (m *Metrics) ObserveSkipped(n int) {
	if m == nil {
		return
	}
	m.ReloadsSkipped.Add(float64(n))
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// Requests are labelled by their mux route template to bound cardinality.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if metrics == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// MetricsHandler serves the registry in the Prometheus exposition format
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
