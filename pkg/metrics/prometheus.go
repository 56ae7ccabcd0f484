// Package metrics provides Prometheus metrics for the ScoutAI recommendation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Training run outcomes used as the result label.
const (
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"
	ResultRejected  = "rejected"
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	trainingBuckets  []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Recommendation metrics
	recommendations   prometheus.Counter
	candidatesScored  prometheus.Counter
	candidatesSkipped prometheus.Counter
	recommendLatency  prometheus.Histogram

	// Model metrics
	trainingRuns     *prometheus.CounterVec
	trainingDuration prometheus.Histogram
	trainingSamples  prometheus.Gauge
	modelLoaded      prometheus.Gauge
	modelMSE         prometheus.Gauge
	modelMAE         prometheus.Gauge
	modelR2          prometheus.Gauge
	baselineR2       prometheus.Gauge

	// Training queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerActive            prometheus.Gauge
	workerErrors            prometheus.Counter
	workerProcessingLatency prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scoutai",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		trainingBuckets:  []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.recommendations = m.counter("recommendations_total", "Total number of recommend calls answered")
	m.candidatesScored = m.counter("candidates_scored_total", "Total number of candidates scored")
	m.candidatesSkipped = m.counter("candidates_skipped_total", "Total number of candidates skipped after a scoring failure")
	m.recommendLatency = m.histogram("recommend_latency_milliseconds", "Recommend call latency in milliseconds", m.histogramBuckets)

	m.trainingRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "training_runs_total",
			Help:        "Total number of training runs by result",
			ConstLabels: m.constLabels,
		},
		[]string{"result"},
	)
	m.trainingDuration = m.histogram("training_duration_seconds", "Training run duration in seconds", m.trainingBuckets)
	m.trainingSamples = m.gauge("training_samples", "Rows used to fit the live model")
	m.modelLoaded = m.gauge("model_loaded", "1 when a model artifact is live, 0 otherwise")
	m.modelMSE = m.gauge("model_mse", "Held-out mean squared error of the live model")
	m.modelMAE = m.gauge("model_mae", "Held-out mean absolute error of the live model")
	m.modelR2 = m.gauge("model_r2", "Held-out coefficient of determination of the live model")
	m.baselineR2 = m.gauge("baseline_r2", "Held-out coefficient of determination of the linear baseline")

	m.queueSize = m.gauge("train_queue_size", "Training jobs waiting in the queue")
	m.queueCapacity = m.gauge("train_queue_capacity", "Maximum training queue capacity")
	m.queueEnqueued = m.counter("train_queue_enqueue_total", "Total number of training jobs enqueued")
	m.queueDequeued = m.counter("train_queue_dequeue_total", "Total number of training jobs dequeued")
	m.queueEnqueueErrors = m.counter("train_queue_enqueue_errors_total", "Total number of rejected training submissions")

	m.workerActive = m.gauge("train_worker_active", "1 while the training worker runs a job")
	m.workerErrors = m.counter("train_worker_errors_total", "Total number of failed training jobs")
	m.workerProcessingLatency = m.histogram("train_worker_processing_latency_milliseconds", "Training job latency from dequeue to completion in milliseconds", m.histogramBuckets)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_component_total",
			Help:        "Total number of errors by component and kind",
			ConstLabels: m.constLabels,
		},
		[]string{"component", "error_type"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_endpoint_total",
			Help:        "Total number of errors by endpoint",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordRecommendation records one answered recommend call.
func RecordRecommendation(scored, skipped int, latencyMs float64) {
	globalManager.recommendations.Inc()
	globalManager.candidatesScored.Add(float64(scored))
	globalManager.candidatesSkipped.Add(float64(skipped))
	globalManager.recommendLatency.Observe(latencyMs)
}

// RecordTrainingRun records a finished or rejected training run.
func RecordTrainingRun(result string, seconds float64) {
	globalManager.trainingRuns.WithLabelValues(result).Inc()
	if result != ResultRejected {
		globalManager.trainingDuration.Observe(seconds)
	}
}

// UpdateModelEvaluation publishes the held-out metrics of the live model.
func UpdateModelEvaluation(mse, mae, r2 float64, samples int) {
	globalManager.modelMSE.Set(mse)
	globalManager.modelMAE.Set(mae)
	globalManager.modelR2.Set(r2)
	globalManager.trainingSamples.Set(float64(samples))
}

// UpdateBaselineR2 publishes the linear baseline R2.
func UpdateBaselineR2(r2 float64) {
	globalManager.baselineR2.Set(r2)
}

// UpdateModelLoaded sets the model-loaded gauge.
func UpdateModelLoaded(loaded bool) {
	if loaded {
		globalManager.modelLoaded.Set(1)
		return
	}
	globalManager.modelLoaded.Set(0)
}

// UpdateQueueSize sets the current training queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerActive sets whether the training worker is busy.
func UpdateWorkerActive(active bool) {
	if active {
		globalManager.workerActive.Set(1)
		return
	}
	globalManager.workerActive.Set(0)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordWorkerProcessingLatency records training job latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and kind labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and kind labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
