// Package metrics provides Prometheus metrics for the BeeLine dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the dashboard.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Table load
	rowsLoaded   prometheus.Gauge
	loadDuration prometheus.Histogram
	loadErrors   *prometheus.CounterVec

	// Selections entering the controller
	selectionsSubmitted prometheus.Counter
	selectionsCoalesced prometheus.Counter
	selectionsRejected  *prometheus.CounterVec
	queueDepth          prometheus.Gauge

	// Reactive cycles
	cyclesTotal   prometheus.Counter
	cyclesFailed  prometheus.Counter
	cycleDuration prometheus.Histogram
	currentYear   prometheus.Gauge
	frameVersion  prometheus.Gauge

	// Rendering backends and exports
	renderDuration *prometheus.HistogramVec
	exportsTotal   *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

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
		namespace:        "beeline",
		subsystem:        "dashboard",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		constLabels:      prometheus.Labels{},
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

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.rowsLoaded = m.gauge("table_rows", "Observations in the base table after normalization")
	m.loadDuration = m.histogram("table_load_duration_milliseconds", "Time spent loading and normalizing the source CSV")
	m.loadErrors = m.counterVec("table_load_errors_total", "Failed table loads by error kind", "kind")

	m.selectionsSubmitted = m.counter("selections_submitted_total", "Year selections accepted by the controller")
	m.selectionsCoalesced = m.counter("selections_coalesced_total", "Pending selections replaced by a newer one before processing")
	m.selectionsRejected = m.counterVec("selections_rejected_total", "Year selections rejected before queueing", "reason")
	m.queueDepth = m.gauge("selection_queue_depth", "Selections waiting for the controller")

	m.cyclesTotal = m.counter("cycles_total", "Reactive cycles completed and published")
	m.cyclesFailed = m.counter("cycles_failed_total", "Reactive cycles that failed before publishing")
	m.cycleDuration = m.histogram("cycle_duration_milliseconds", "Duration of one aggregate-and-build cycle")
	m.currentYear = m.gauge("current_year", "Year of the currently published frame")
	m.frameVersion = m.gauge("frame_version", "Version of the currently published frame")

	m.renderDuration = m.histogramVec("render_duration_milliseconds", "Server-side chart rendering time", "backend", "kind")
	m.exportsTotal = m.counterVec("exports_total", "Spreadsheet exports by outcome", "outcome")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds")
}

// UpdateRowsLoaded sets the base table size.
func UpdateRowsLoaded(rows int) {
	globalManager.rowsLoaded.Set(float64(rows))
}

// RecordLoadDuration records how long the table load took.
func RecordLoadDuration(latencyMs float64) {
	globalManager.loadDuration.Observe(latencyMs)
}

// RecordLoadError counts a failed load by error kind.
func RecordLoadError(kind string) {
	globalManager.loadErrors.WithLabelValues(kind).Inc()
}

// RecordSelectionSubmitted counts an accepted selection.
func RecordSelectionSubmitted() {
	globalManager.selectionsSubmitted.Inc()
}

// RecordSelectionCoalesced counts a pending selection that was superseded.
func RecordSelectionCoalesced() {
	globalManager.selectionsCoalesced.Inc()
}

// RecordSelectionRejected counts a selection rejected before queueing.
func RecordSelectionRejected(reason string) {
	globalManager.selectionsRejected.WithLabelValues(reason).Inc()
}

// UpdateQueueDepth sets the number of pending selections.
func UpdateQueueDepth(depth int) {
	globalManager.queueDepth.Set(float64(depth))
}

// RecordCycle records a published cycle.
func RecordCycle(year int, version uint64, latencyMs float64) {
	globalManager.cyclesTotal.Inc()
	globalManager.cycleDuration.Observe(latencyMs)
	globalManager.currentYear.Set(float64(year))
	globalManager.frameVersion.Set(float64(version))
}

// RecordCycleFailure counts a cycle that did not publish.
func RecordCycleFailure() {
	globalManager.cyclesFailed.Inc()
}

// CycleFailures returns the failed-cycle counter.
func CycleFailures() prometheus.Counter {
	return globalManager.cyclesFailed
}

// RecordRenderDuration records server-side rendering time.
func RecordRenderDuration(backend, kind string, latencyMs float64) {
	globalManager.renderDuration.WithLabelValues(backend, kind).Observe(latencyMs)
}

// RecordExport counts a spreadsheet export.
func RecordExport(outcome string) {
	globalManager.exportsTotal.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records errors by HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records errors by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage updates the system memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the package-level helpers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
