// Package metrics provides Prometheus metrics for the CTR prediction service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the ctrd service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Prediction Metrics - The serving path is what matters most
	predictionsServed    prometheus.Counter
	predictionLatency    prometheus.Histogram
	degradedPredictions  prometheus.Counter
	modelUnavailable     prometheus.Counter
	boostMultiplier      prometheus.Histogram
	predictionCacheHits  prometheus.Counter
	predictionCacheMiss  prometheus.Counter
	predictionCacheSize  prometheus.Gauge

	// Training Metrics
	trainingRuns     *prometheus.CounterVec
	trainingDuration prometheus.Histogram
	trainingSamples  prometheus.Gauge
	modelLoaded      prometheus.Gauge
	modelAccuracy    prometheus.Gauge
	modelAUC         prometheus.Gauge

	// Event Store Metrics
	eventStoreQueryLatency prometheus.Histogram
	eventStoreRowsFetched  prometheus.Counter
	eventStoreErrors       prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "ctrd",
		subsystem:        "prediction",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Prediction Metrics
	m.predictionsServed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictions_served_total",
		Help:      "Total number of CTR predictions served",
	})

	m.predictionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_latency_milliseconds",
		Help:      "Histogram of prediction latency in milliseconds (core serving metric)",
		Buckets:   m.histogramBuckets,
	})

	m.degradedPredictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "degraded_predictions_total",
		Help:      "Total number of predictions that fell back to the conservative default",
	})

	m.modelUnavailable = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_unavailable_total",
		Help:      "Total number of prediction requests rejected because no model was loaded",
	})

	m.boostMultiplier = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "boost_multiplier",
		Help:      "Distribution of boost multipliers returned to the ad server",
		Buckets:   []float64{0.5, 0.75, 1.0, 1.25, 1.5, 1.75, 2.0},
	})

	m.predictionCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Total number of predictions served from the cache",
	})

	m.predictionCacheMiss = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Total number of predictions computed on a cache miss",
	})

	m.predictionCacheSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_entries",
		Help:      "Current number of memoized predictions",
	})

	// Training Metrics
	m.trainingRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "training_runs_total",
			Help:      "Total number of training runs by outcome",
		},
		[]string{"outcome"},
	)

	m.trainingDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "training_duration_seconds",
		Help:      "Training run duration in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	})

	m.trainingSamples = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "training_samples",
		Help:      "Number of samples used by the last successful training run",
	})

	m.modelLoaded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_loaded",
		Help:      "Whether a trained model bundle is currently loaded (1) or not (0)",
	})

	m.modelAccuracy = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_accuracy",
		Help:      "Held-out accuracy of the last trained model",
	})

	m.modelAUC = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_auc",
		Help:      "Held-out ROC AUC of the last trained model",
	})

	// Event Store Metrics
	m.eventStoreQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "eventstore_query_latency_milliseconds",
		Help:      "Event store query latency in milliseconds",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	m.eventStoreRowsFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "eventstore_rows_fetched_total",
		Help:      "Total number of event rows fetched from the event store",
	})

	m.eventStoreErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "eventstore_errors_total",
		Help:      "Total number of event store query or insert failures",
	})

	// HTTP Performance Metrics
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
			Help:      "HTTP request duration in milliseconds (user experience)",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Enhanced Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total errors by component and error type",
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Total errors by type and severity",
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total errors by endpoint, method, and error type",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "error_latency_milliseconds",
			Help:      "Latency of requests that ended in an error",
			Buckets:   m.histogramBuckets,
		},
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordPrediction increments the served-predictions counter.
func RecordPrediction() {
	globalManager.predictionsServed.Inc()
}

// RecordPredictionLatency records prediction latency in milliseconds.
func RecordPredictionLatency(latencyMs float64) {
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordDegradedPrediction increments the degraded-default counter.
func RecordDegradedPrediction() {
	globalManager.degradedPredictions.Inc()
}

// RecordModelUnavailable increments the model-unavailable rejection counter.
func RecordModelUnavailable() {
	globalManager.modelUnavailable.Inc()
}

// RecordBoostMultiplier records a boost multiplier returned to the caller.
func RecordBoostMultiplier(multiplier float64) {
	globalManager.boostMultiplier.Observe(multiplier)
}

// RecordCacheHit increments the prediction cache hit counter.
func RecordCacheHit() {
	globalManager.predictionCacheHits.Inc()
}

// RecordCacheMiss increments the prediction cache miss counter.
func RecordCacheMiss() {
	globalManager.predictionCacheMiss.Inc()
}

// UpdateCacheSize updates the cached-entries gauge.
func UpdateCacheSize(size int) {
	globalManager.predictionCacheSize.Set(float64(size))
}

// RecordTrainingRun increments the training-runs counter with an outcome of
// "success", "no_data", or "failure".
func RecordTrainingRun(outcome string) {
	globalManager.trainingRuns.WithLabelValues(outcome).Inc()
}

// RecordTrainingDuration records training duration in seconds.
func RecordTrainingDuration(seconds float64) {
	globalManager.trainingDuration.Observe(seconds)
}

// UpdateTrainingSamples updates the last-run sample count gauge.
func UpdateTrainingSamples(count int) {
	globalManager.trainingSamples.Set(float64(count))
}

// UpdateModelLoaded updates the model-loaded gauge.
func UpdateModelLoaded(loaded bool) {
	if loaded {
		globalManager.modelLoaded.Set(1)
		return
	}
	globalManager.modelLoaded.Set(0)
}

// UpdateModelQuality updates the model accuracy and AUC gauges.
func UpdateModelQuality(accuracy, auc float64) {
	globalManager.modelAccuracy.Set(accuracy)
	globalManager.modelAUC.Set(auc)
}

// RecordEventStoreQueryLatency records event store query latency in milliseconds.
func RecordEventStoreQueryLatency(latencyMs float64) {
	globalManager.eventStoreQueryLatency.Observe(latencyMs)
}

// RecordEventStoreRows adds to the fetched-rows counter.
func RecordEventStoreRows(count int) {
	globalManager.eventStoreRowsFetched.Add(float64(count))
}

// RecordEventStoreError increments the event store failure counter.
func RecordEventStoreError() {
	globalManager.eventStoreErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by endpoint, method, and type.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed request.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage updates the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
