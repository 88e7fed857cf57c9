package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recompute outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Rejection reasons for recompute requests.
const (
	ReasonBackpressure = "backpressure"
	ReasonRateLimited  = "rate_limited"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Engine
	recomputes          *prometheus.CounterVec
	recomputeDuration   *prometheus.HistogramVec
	recomputeCoalesced  prometheus.Counter
	recomputeRejected   *prometheus.CounterVec
	projectionsByTier   *prometheus.GaugeVec
	accuracyPlayers     *prometheus.GaugeVec
	positionCorrelation *prometheus.GaugeVec

	// Data
	datasetRecords *prometheus.GaugeVec
	loadDuration   prometheus.Histogram

	// Snapshots
	snapshotCount      prometheus.Counter
	snapshotLastUnix   prometheus.Gauge
	snapshotRetained   prometheus.Gauge
	archiveWrites      prometheus.Counter
	archiveWriteErrors prometheus.Counter

	// Queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	workerBusy         prometheus.Gauge
	workerErrors       prometheus.Counter
	workerLatency      prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec

	// Runtime
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram

	gcMu        sync.Mutex
	lastGCCount uint32
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gridcast",
		subsystem:        "engine",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		constLabels:      map[string]string{},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.recomputes = m.counterVec("recomputes_total", "Projection recomputes by scoring format and outcome", "format", "outcome")
	m.recomputeDuration = m.histogramVec("recompute_duration_milliseconds", "Wall time of a full recompute", "format")
	m.recomputeCoalesced = m.counter("recompute_coalesced_total", "Recompute requests folded into one already in flight")
	m.recomputeRejected = m.counterVec("recompute_rejected_total", "Recompute requests refused", "reason")
	m.projectionsByTier = m.gaugeVec("projections", "Projections in the latest snapshot by tier", "format", "tier")
	m.accuracyPlayers = m.gaugeVec("accuracy_players", "Players with an accuracy record by position", "format", "position")
	m.positionCorrelation = m.gaugeVec("position_mean_correlation", "Mean rank correlation across qualifying players", "format", "position")

	m.datasetRecords = m.gaugeVec("dataset_records", "Rows loaded from the data directory by table", "table")
	m.loadDuration = m.histogram("load_duration_milliseconds", "Time spent loading the data directory", m.histogramBuckets)

	m.snapshotCount = m.counter("snapshots_published_total", "Snapshots published to the repository")
	m.snapshotLastUnix = m.gauge("snapshot_last_unix", "Unix time of the last snapshot publish")
	m.snapshotRetained = m.gauge("snapshots_retained", "Snapshots currently held in memory")
	m.archiveWrites = m.counter("archive_writes_total", "Runs written to the archive")
	m.archiveWriteErrors = m.counter("archive_write_errors_total", "Failed archive writes")

	m.queueSize = m.gauge("queue_size", "Recompute jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Jobs refused because the queue was full or closed")
	m.workerCount = m.gauge("worker_count", "Workers in the pool")
	m.workerBusy = m.gauge("worker_busy_count", "Workers currently running a job")
	m.workerErrors = m.counter("worker_errors_total", "Jobs that finished with an error")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "Time a worker spends on one job", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration", "endpoint", "method", "status_code")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordRecompute counts one recompute and, on success, its duration.
func (m *Manager) RecordRecompute(format string, d time.Duration, err error) {
	if err != nil {
		m.recomputes.WithLabelValues(format, OutcomeError).Inc()
		return
	}
	m.recomputes.WithLabelValues(format, OutcomeOK).Inc()
	m.recomputeDuration.WithLabelValues(format).Observe(float64(d.Milliseconds()))
}

// RecordRecomputeCoalesced counts a request folded into an in-flight one.
func (m *Manager) RecordRecomputeCoalesced() { m.recomputeCoalesced.Inc() }

// RecordRecomputeRejected counts a refused request.
func (m *Manager) RecordRecomputeRejected(reason string) {
	m.recomputeRejected.WithLabelValues(reason).Inc()
}

// UpdateProjectionTiers replaces the per-tier projection gauges of format.
func (m *Manager) UpdateProjectionTiers(format string, counts map[string]int) {
	for tier, n := range counts {
		m.projectionsByTier.WithLabelValues(format, tier).Set(float64(n))
	}
}

// UpdatePositionAccuracy sets the accuracy gauges of one position.
func (m *Manager) UpdatePositionAccuracy(format, position string, players int, meanCorrelation float64) {
	m.accuracyPlayers.WithLabelValues(format, position).Set(float64(players))
	m.positionCorrelation.WithLabelValues(format, position).Set(meanCorrelation)
}

// RecordLoad records a data directory load.
func (m *Manager) RecordLoad(d time.Duration, rows map[string]int) {
	m.loadDuration.Observe(float64(d.Milliseconds()))
	for table, n := range rows {
		m.datasetRecords.WithLabelValues(table).Set(float64(n))
	}
}

// RecordSnapshotPublished counts a publish and the number retained after it.
func (m *Manager) RecordSnapshotPublished(retained int) {
	m.snapshotCount.Inc()
	m.snapshotLastUnix.Set(float64(time.Now().Unix()))
	m.snapshotRetained.Set(float64(retained))
}

// RecordArchiveWrite counts an archive write attempt.
func (m *Manager) RecordArchiveWrite(err error) {
	if err != nil {
		m.archiveWriteErrors.Inc()
		return
	}
	m.archiveWrites.Inc()
}

// UpdateQueue sets queue depth gauges.
func (m *Manager) UpdateQueue(size, capacity int) {
	m.queueSize.Set(float64(size))
	m.queueCapacity.Set(float64(capacity))
	if capacity > 0 {
		m.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordQueueEnqueue counts an enqueue attempt.
func (m *Manager) RecordQueueEnqueue(ok bool) {
	if !ok {
		m.queueEnqueueErrors.Inc()
		return
	}
	m.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a dequeue.
func (m *Manager) RecordQueueDequeue() { m.queueDequeued.Inc() }

// UpdateWorkerCount sets the pool size.
func (m *Manager) UpdateWorkerCount(n int) { m.workerCount.Set(float64(n)) }

// WorkerStarted marks a worker busy.
func (m *Manager) WorkerStarted() { m.workerBusy.Inc() }

// WorkerFinished marks a worker idle again and records the job outcome.
func (m *Manager) WorkerFinished(d time.Duration, err error) {
	m.workerBusy.Dec()
	m.workerLatency.Observe(float64(d.Milliseconds()))
	if err != nil {
		m.workerErrors.Inc()
	}
}

// RecordHTTPRequest records one request and its duration in milliseconds.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint counts an HTTP error.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent counts an error raised by a component.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	m.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// CollectRuntime samples memory, goroutine and GC statistics.
func (m *Manager) CollectRuntime() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.systemMemoryUsage.Set(float64(ms.HeapAlloc))
	m.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))

	m.gcMu.Lock()
	defer m.gcMu.Unlock()
	// PauseNs is a ring buffer of the last 256 pauses.
	fresh := ms.NumGC - m.lastGCCount
	if fresh > uint32(len(ms.PauseNs)) {
		fresh = uint32(len(ms.PauseNs))
	}
	for i := uint32(0); i < fresh; i++ {
		idx := (ms.NumGC - i + 255) % uint32(len(ms.PauseNs))
		m.systemGCPauseTime.Observe(float64(ms.PauseNs[idx]) / float64(time.Millisecond))
	}
	m.lastGCCount = ms.NumGC
}

// Default returns the process-wide manager.
func Default() *Manager { return globalManager }

// Package-level helpers delegate to the process-wide manager.

func RecordRecompute(format string, d time.Duration, err error) {
	globalManager.RecordRecompute(format, d, err)
}
func RecordRecomputeCoalesced()             { globalManager.RecordRecomputeCoalesced() }
func RecordRecomputeRejected(reason string) { globalManager.RecordRecomputeRejected(reason) }
func UpdateProjectionTiers(format string, counts map[string]int) {
	globalManager.UpdateProjectionTiers(format, counts)
}
func UpdatePositionAccuracy(format, position string, players int, meanCorrelation float64) {
	globalManager.UpdatePositionAccuracy(format, position, players, meanCorrelation)
}
func RecordLoad(d time.Duration, rows map[string]int) { globalManager.RecordLoad(d, rows) }
func RecordSnapshotPublished(retained int)            { globalManager.RecordSnapshotPublished(retained) }
func RecordArchiveWrite(err error)                    { globalManager.RecordArchiveWrite(err) }
func UpdateQueue(size, capacity int)                  { globalManager.UpdateQueue(size, capacity) }
func RecordQueueEnqueue(ok bool)                      { globalManager.RecordQueueEnqueue(ok) }
func RecordQueueDequeue()                             { globalManager.RecordQueueDequeue() }
func UpdateWorkerCount(n int)                         { globalManager.UpdateWorkerCount(n) }
func WorkerStarted()                                  { globalManager.WorkerStarted() }
func WorkerFinished(d time.Duration, err error)       { globalManager.WorkerFinished(d, err) }
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}
func RecordErrorByComponent(component, errorType string) {
	globalManager.RecordErrorByComponent(component, errorType)
}
func CollectRuntime() { globalManager.CollectRuntime() }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
