package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/secure-scanner/internal/finding"
)

// Metrics holds the scanner's Prometheus collectors on a private registry
// so several instances can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ScansTotal             *prometheus.CounterVec
	ScanDuration           prometheus.Histogram
	FilesScanned           prometheus.Counter
	FindingsTotal          *prometheus.CounterVec
	DependencyLookupErrors prometheus.Counter
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.ScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_scans_total",
			Help: "Total number of scans by outcome",
		},
		[]string{"outcome"},
	)

	m.ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scanner_scan_duration_seconds",
			Help:    "Duration of scans in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.FilesScanned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scanner_files_scanned_total",
			Help: "Total number of Python files analyzed",
		},
	)

	m.FindingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_findings_total",
			Help: "Total number of findings by category and severity",
		},
		[]string{"category", "severity"},
	)

	m.DependencyLookupErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scanner_dependency_lookup_failures_total",
			Help: "Total number of failed advisory lookups",
		},
	)

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ScansTotal,
		m.ScanDuration,
		m.FilesScanned,
		m.FindingsTotal,
		m.DependencyLookupErrors,
	)

	return m
}

// ObserveScan records the outcome of one scan.
func (m *Metrics) ObserveScan(elapsed time.Duration, files int, findings []finding.Finding, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ScansTotal.WithLabelValues(outcome).Inc()
	m.ScanDuration.Observe(elapsed.Seconds())
	m.FilesScanned.Add(float64(files))
	for _, f := range findings {
		m.FindingsTotal.WithLabelValues(string(f.Category), string(f.Severity)).Inc()
	}
}

// TrackLookupFailure counts one failed advisory lookup.
func (m *Metrics) TrackLookupFailure() {
	if m == nil {
		return
	}
	m.DependencyLookupErrors.Inc()
}

// RequestTrackingMiddleware records request counts and latency. The route
// pattern is supplied by the caller to keep label cardinality bounded.
func (m *Metrics) RequestTrackingMiddleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if route != nil {
				if p := route(r); p != "" {
					path = p
				}
			}
			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// responseWriter captures the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Handler exposes the private registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
