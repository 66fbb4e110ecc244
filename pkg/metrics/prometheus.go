// Package metrics provides Prometheus metrics for the dance competition service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the competition service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Competition metrics
	transitions       *prometheus.CounterVec
	transitionLatency *prometheus.HistogramVec
	scoresAccepted    *prometheus.CounterVec
	scoresRejected    *prometheus.CounterVec
	currentPhase      *prometheus.GaugeVec
	heatCount         prometheus.Gauge
	snapshotVersion   prometheus.Gauge
	tieBreaks         prometheus.Counter
	throttled         prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Repository metrics
	repositoryLatency *prometheus.HistogramVec
	repositoryRecords *prometheus.GaugeVec

	// Feed queue and worker
	queueCapacity           prometheus.Gauge
	queueSize               prometheus.Gauge
	queueEnqueued           prometheus.Counter
	queueDequeued           prometheus.Counter
	queueDropped            prometheus.Counter
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
	feedSubscribers         prometheus.Gauge
	feedBroadcasts          prometheus.Counter
	feedEvicted             prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
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

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dance",
		subsystem:        "competition",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels, Buckets: buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.transitions = auto.NewCounterVec(
		m.counterOpts("transitions_total", "Phase transitions by action and result"),
		[]string{"action", "result"},
	)
	m.transitionLatency = auto.NewHistogramVec(
		m.histogramOpts("transition_latency_milliseconds", "Phase transition latency in milliseconds", m.histogramBuckets),
		[]string{"action"},
	)
	m.scoresAccepted = auto.NewCounterVec(
		m.counterOpts("scores_accepted_total", "Score entries accepted by phase"),
		[]string{"phase"},
	)
	m.scoresRejected = auto.NewCounterVec(
		m.counterOpts("scores_rejected_total", "Score submissions rejected by reason"),
		[]string{"reason"},
	)
	m.currentPhase = auto.NewGaugeVec(
		m.gaugeOpts("current_phase", "1 for the current competition phase, 0 otherwise"),
		[]string{"phase"},
	)
	m.heatCount = auto.NewGauge(m.gaugeOpts("heats", "Number of heats in the current allocation"))
	m.snapshotVersion = auto.NewGauge(m.gaugeOpts("snapshot_version", "Version of the latest committed snapshot"))
	m.tieBreaks = auto.NewCounter(m.counterOpts("tie_breaks_total", "Standings decided by the tie-breaker"))
	m.throttled = auto.NewCounter(m.counterOpts("submissions_throttled_total", "Score submissions refused by the rate limiter"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.repositoryLatency = auto.NewHistogramVec(
		m.histogramOpts("repository_latency_milliseconds", "Store operation latency in milliseconds",
			[]float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250}),
		[]string{"operation"},
	)
	m.repositoryRecords = auto.NewGaugeVec(
		m.gaugeOpts("repository_records", "Stored records by kind"),
		[]string{"kind"},
	)

	m.queueCapacity = auto.NewGauge(m.gaugeOpts("feed_queue_capacity", "Capacity of the snapshot feed queue"))
	m.queueSize = auto.NewGauge(m.gaugeOpts("feed_queue_size", "Snapshot events waiting in the feed queue"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("feed_queue_enqueued_total", "Snapshot events enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("feed_queue_dequeued_total", "Snapshot events dequeued"))
	m.queueDropped = auto.NewCounter(m.counterOpts("feed_queue_dropped_total", "Snapshot events dropped on a full queue"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("feed_worker_latency_milliseconds", "Time to broadcast one snapshot event", m.histogramBuckets),
	)
	m.workerErrors = auto.NewCounter(m.counterOpts("feed_worker_errors_total", "Feed worker handler failures"))
	m.feedSubscribers = auto.NewGauge(m.gaugeOpts("feed_subscribers", "Connected websocket feed subscribers"))
	m.feedBroadcasts = auto.NewCounter(m.counterOpts("feed_broadcasts_total", "Snapshot messages delivered to subscribers"))
	m.feedEvicted = auto.NewCounter(m.counterOpts("feed_evicted_total", "Slow feed subscribers disconnected"))

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Competition Metrics Functions.

// RecordTransition counts a phase transition attempt and its latency.
func RecordTransition(action, result string, latencyMs float64) {
	globalManager.transitions.WithLabelValues(action, result).Inc()
	globalManager.transitionLatency.WithLabelValues(action).Observe(latencyMs)
}

// RecordScoresAccepted adds accepted score entries for a phase.
func RecordScoresAccepted(phase string, count int) {
	globalManager.scoresAccepted.WithLabelValues(phase).Add(float64(count))
}

// RecordScoresRejected counts a rejected submission.
func RecordScoresRejected(reason string) {
	globalManager.scoresRejected.WithLabelValues(reason).Inc()
}

// UpdateCurrentPhase flags phase as current and clears the others.
func UpdateCurrentPhase(phase string, all []string) {
	for _, p := range all {
		v := 0.0
		if p == phase {
			v = 1
		}
		globalManager.currentPhase.WithLabelValues(p).Set(v)
	}
}

// UpdateHeatCount sets the number of heats.
func UpdateHeatCount(count int) {
	globalManager.heatCount.Set(float64(count))
}

// UpdateSnapshotVersion sets the latest snapshot version.
func UpdateSnapshotVersion(version int64) {
	globalManager.snapshotVersion.Set(float64(version))
}

// RecordTieBreaks adds standings decided by the tie-breaker.
func RecordTieBreaks(count int) {
	globalManager.tieBreaks.Add(float64(count))
}

// RecordSubmissionThrottled counts a rate-limited submission.
func RecordSubmissionThrottled() {
	globalManager.throttled.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Repository Metrics Functions.

// RecordRepositoryLatency records a store operation latency in milliseconds.
func RecordRepositoryLatency(operation string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateRepositoryRecords sets the number of stored records of a kind.
func UpdateRepositoryRecords(kind string, count int) {
	globalManager.repositoryRecords.WithLabelValues(kind).Set(float64(count))
}

// Feed Metrics Functions.

// UpdateQueueCapacity sets the feed queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the number of queued feed events.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueDropped increments the dropped event counter.
func RecordQueueDropped() {
	globalManager.queueDropped.Inc()
}

// RecordWorkerProcessingLatency records how long one event took to handle.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// UpdateFeedSubscribers sets the number of connected subscribers.
func UpdateFeedSubscribers(count int) {
	globalManager.feedSubscribers.Set(float64(count))
}

// RecordFeedBroadcast counts delivered feed messages.
func RecordFeedBroadcast(delivered int) {
	globalManager.feedBroadcasts.Add(float64(delivered))
}

// RecordFeedEvicted counts a disconnected slow subscriber.
func RecordFeedEvicted() {
	globalManager.feedEvicted.Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

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
