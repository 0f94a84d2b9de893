// Package metrics provides Prometheus metrics for the dgaops tools.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Export attempt outcomes.
const (
	OutcomeSaved   = "saved"
	OutcomeSkipped = "skipped"
)

// Manager owns the Prometheus collectors used by the exporter, the
// playbook client and the HTTP API.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Artifact export
	portableAttempts *prometheus.CounterVec
	fallbackWalks    prometheus.Counter
	portableMissing  prometheus.Counter
	nativeFailures   prometheus.Counter
	exportDuration   prometheus.Histogram

	// Playbook generation
	playbookResults *prometheus.CounterVec
	playbookLatency prometheus.Histogram

	// HTTP API
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     prometheus.Counter
	httpErrors          *prometheus.CounterVec

	// Process
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dgaops",
		subsystem:        "",
		histogramBuckets: []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.portableAttempts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "export_portable_attempts_total",
		Help:        "Portable artifact export attempts by outcome",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.fallbackWalks = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "export_fallback_walks_total",
		Help:        "Number of times the leader could not export and the leaderboard was walked",
		ConstLabels: m.constLabels,
	})

	m.portableMissing = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "export_portable_missing_total",
		Help:        "Exports that finished without any portable artifact",
		ConstLabels: m.constLabels,
	})

	m.nativeFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "export_native_failures_total",
		Help:        "Native artifact exports that failed",
		ConstLabels: m.constLabels,
	})

	m.exportDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "export_duration_milliseconds",
		Help:        "Wall time of a complete export in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.playbookResults = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "playbook_results_total",
		Help:        "Playbook generation calls by result kind",
		ConstLabels: m.constLabels,
	}, []string{"kind"})

	m.playbookLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "playbook_latency_milliseconds",
		Help:        "Latency of the generative API call in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRateLimited = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_rate_limited_total",
		Help:        "Requests rejected by the playbook rate limiter",
		ConstLabels: m.constLabels,
	})

	m.httpErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_errors_total",
		Help:        "HTTP error responses by endpoint and error type",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "error_type"})

	m.memoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_bytes",
		Help:        "Heap bytes allocated by the process",
		ConstLabels: m.constLabels,
	})

	m.goroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutines",
		Help:        "Number of live goroutines",
		ConstLabels: m.constLabels,
	})
}

// RecordPortableAttempt counts one portable export attempt.
func RecordPortableAttempt(outcome string) {
	globalManager.portableAttempts.WithLabelValues(outcome).Inc()
}

// RecordFallbackWalk counts a leaderboard walk after the leader failed.
func RecordFallbackWalk() {
	globalManager.fallbackWalks.Inc()
}

// RecordPortableMissing counts an export that ended without a portable artifact.
func RecordPortableMissing() {
	globalManager.portableMissing.Inc()
}

// RecordNativeFailure counts a failed native export.
func RecordNativeFailure() {
	globalManager.nativeFailures.Inc()
}

// RecordExportDuration records export wall time in milliseconds.
func RecordExportDuration(ms float64) {
	globalManager.exportDuration.Observe(ms)
}

// RecordPlaybookResult counts one playbook call by result kind.
func RecordPlaybookResult(kind string) {
	globalManager.playbookResults.WithLabelValues(kind).Inc()
}

// RecordPlaybookLatency records the generative API latency in milliseconds.
func RecordPlaybookLatency(ms float64) {
	globalManager.playbookLatency.Observe(ms)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited() {
	globalManager.httpRateLimited.Inc()
}

// RecordHTTPError counts an HTTP error response.
func RecordHTTPError(endpoint, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.memoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) {
	globalManager.goroutineCount.Set(float64(n))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
