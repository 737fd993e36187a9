// Package metrics provides Prometheus metrics for the vireo recommendation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the vireo service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Provider metrics - external observation data source
	providerRequests    *prometheus.CounterVec
	providerCacheHits   prometheus.Counter
	providerCacheMisses prometheus.Counter
	taxonomySize        prometheus.Gauge

	// Model backend metrics
	modelRequests prometheus.Counter
	modelErrors   prometheus.Counter
	modelLatency  prometheus.Histogram

	// Recommendation metrics
	recommendationCount *prometheus.HistogramVec
	recommenderErrors   *prometheus.CounterVec

	// Evaluation metrics
	evalDatapoints prometheus.Counter
	evalErrors     prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vireo",
		subsystem:        "recommender",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.providerRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "provider_requests_total",
			Help:      "Total number of data-provider requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	m.providerCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "provider_cache_hits_total",
		Help:      "Total number of provider responses served from the local cache",
	})

	m.providerCacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "provider_cache_misses_total",
		Help:      "Total number of provider requests that went to the network",
	})

	m.taxonomySize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "taxonomy_entries",
		Help:      "Number of entries in the scientific-name-to-code taxonomy cache",
	})

	m.modelRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_requests_total",
		Help:      "Total number of model-backend requests",
	})

	m.modelErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_errors_total",
		Help:      "Total number of model-backend transport or parse failures",
	})

	m.modelLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_latency_seconds",
		Help:      "Histogram of model-backend round-trip latency in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.recommendationCount = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "recommendations_per_call",
			Help:      "Histogram of recommendation list sizes by recommender",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 250},
		},
		[]string{"recommender"},
	)

	m.recommenderErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "recommender_errors_total",
			Help:      "Total number of recommender failures by recommender",
		},
		[]string{"recommender"},
	)

	m.evalDatapoints = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "eval_datapoints_total",
		Help:      "Total number of evaluation datapoints processed",
	})

	m.evalErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "eval_errors_total",
		Help:      "Total number of evaluation datapoints that failed",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// Package-level helpers operating on the global manager.

// RecordProviderRequest records a data-provider request and its outcome ("ok" or "error").
func RecordProviderRequest(endpoint, outcome string) {
	globalManager.providerRequests.WithLabelValues(endpoint, outcome).Inc()
}

// RecordCacheHit records a provider response served from the local cache.
func RecordCacheHit() {
	globalManager.providerCacheHits.Inc()
}

// RecordCacheMiss records a provider request that went to the network.
func RecordCacheMiss() {
	globalManager.providerCacheMisses.Inc()
}

// UpdateTaxonomySize records the number of taxonomy entries after the init-once load.
func UpdateTaxonomySize(n int) {
	globalManager.taxonomySize.Set(float64(n))
}

// RecordModelRequest records a model-backend call.
func RecordModelRequest() {
	globalManager.modelRequests.Inc()
}

// RecordModelError records a model-backend transport or parse failure.
func RecordModelError() {
	globalManager.modelErrors.Inc()
}

// RecordModelLatency records model-backend round-trip latency in seconds.
func RecordModelLatency(seconds float64) {
	globalManager.modelLatency.Observe(seconds)
}

// ObserveRecommendations records the size of a recommendation list.
func ObserveRecommendations(recommender string, n int) {
	globalManager.recommendationCount.WithLabelValues(recommender).Observe(float64(n))
}

// RecordRecommenderError records a recommender failure.
func RecordRecommenderError(recommender string) {
	globalManager.recommenderErrors.WithLabelValues(recommender).Inc()
}

// RecordEvalDatapoint records one processed evaluation datapoint.
func RecordEvalDatapoint() {
	globalManager.evalDatapoints.Inc()
}

// RecordEvalError records an evaluation datapoint that failed.
func RecordEvalError() {
	globalManager.evalErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
