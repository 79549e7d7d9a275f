// Package metrics provides Prometheus metrics for the SRIM layering service.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	registry         prometheus.Registerer

	// Pipeline metrics
	filesProcessed     prometheus.Counter
	processingFailures *prometheus.CounterVec
	processingLatency  prometheus.Histogram
	linesScanned       prometheus.Counter
	candidateLines     prometheus.Counter
	recordsParsed      prometheus.Counter
	layersEmitted      prometheus.Counter
	layersDropped      prometheus.Counter

	// Registry metrics
	runsStored prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// millisecondBuckets covers sub-millisecond requests up to multi-second uploads.
var millisecondBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // bucket layout

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(
		WithPrometheusRegistry(customRegistry),
		WithHistogramBuckets(millisecondBuckets),
	)
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "srim",
		subsystem:        "layers",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.filesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "files_processed_total",
		Help:      "Total number of collision logs processed successfully",
	})

	m.processingFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "processing_failures_total",
			Help:      "Total number of failed processing runs by error kind",
		},
		[]string{"kind"},
	)

	m.processingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "processing_latency_milliseconds",
		Help:      "Histogram of parse and aggregate latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.linesScanned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "lines_scanned_total",
		Help:      "Total number of input lines read",
	})

	m.candidateLines = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidate_lines_total",
		Help:      "Total number of lines classified as data lines",
	})

	m.recordsParsed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_parsed_total",
		Help:      "Total number of collision records parsed",
	})

	m.layersEmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "layers_emitted_total",
		Help:      "Total number of layers returned after degeneracy filtering",
	})

	m.layersDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "layers_dropped_total",
		Help:      "Total number of zero-thickness layers discarded",
	})

	m.runsStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_stored",
		Help:      "Current number of runs held in the in-memory registry",
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

	m.httpErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_errors_total",
			Help:      "Total number of HTTP error responses by endpoint, error type and severity",
		},
		[]string{"endpoint", "method", "error_type", "severity"},
	)
}

// Pipeline recorders.

func RecordFileProcessed() {
	if globalManager.enabled.Load() {
		globalManager.filesProcessed.Inc()
	}
}

func RecordProcessingFailure(kind string) {
	if globalManager.enabled.Load() {
		globalManager.processingFailures.WithLabelValues(kind).Inc()
	}
}

func RecordProcessingLatency(latencyMs float64) {
	if globalManager.enabled.Load() {
		globalManager.processingLatency.Observe(latencyMs)
	}
}

func RecordLinesScanned(n int) {
	if globalManager.enabled.Load() {
		globalManager.linesScanned.Add(float64(n))
	}
}

func RecordCandidateLines(n int) {
	if globalManager.enabled.Load() {
		globalManager.candidateLines.Add(float64(n))
	}
}

func RecordRecordsParsed(n int) {
	if globalManager.enabled.Load() {
		globalManager.recordsParsed.Add(float64(n))
	}
}

func RecordLayers(emitted, dropped int) {
	if globalManager.enabled.Load() {
		globalManager.layersEmitted.Add(float64(emitted))
		globalManager.layersDropped.Add(float64(dropped))
	}
}

// Registry recorders.

func UpdateRunsStored(count int) {
	if globalManager.enabled.Load() {
		globalManager.runsStored.Set(float64(count))
	}
}

// HTTP recorders.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled.Load() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled.Load() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

func RecordHTTPError(endpoint, method, errorType, severity string) {
	if globalManager.enabled.Load() {
		globalManager.httpErrors.WithLabelValues(endpoint, method, errorType, severity).Inc()
	}
}

// SetEnabled turns recording on or off for the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled.Store(enabled)
}

// Enabled reports whether the global manager records.
func Enabled() bool {
	return globalManager.enabled.Load()
}

// GetRegistry returns the registry the global manager records into.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
