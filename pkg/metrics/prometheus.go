// Package metrics provides Prometheus metrics for the incremental scoring
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exposes.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Scoring pipeline
	batchesProcessed        prometheus.Counter
	batchesRejected         prometheus.Counter
	entitiesScored          prometheus.Counter
	partialEntities         prometheus.Counter
	modelEvaluationErrors   *prometheus.CounterVec
	batchDuration           prometheus.Histogram
	renormalizationDuration prometheus.Histogram

	// Cumulative result set
	populationSize prometheus.Gauge
	tierCount      *prometheus.GaugeVec
	snapshotCount  prometheus.Counter

	// Stream pump
	queueDepth prometheus.Gauge

	// Export sinks
	exportErrors   prometheus.Counter
	exportDuration prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "itd",
		subsystem:        "scoring",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.batchesProcessed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_processed_total",
		Help:      "Total number of batches merged into the cumulative result set.",
	})
	m.batchesRejected = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_rejected_total",
		Help:      "Total number of batches rejected by the duplicate-entity guard.",
	})
	m.entitiesScored = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entities_scored_total",
		Help:      "Total number of employees scored across all batches.",
	})
	m.partialEntities = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "partial_entities_total",
		Help:      "Total number of employees scored with one or more models absent.",
	})
	m.modelEvaluationErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_evaluation_errors_total",
		Help:      "Model evaluation failures by model name.",
	}, []string{"model"})
	m.batchDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_duration_ms",
		Help:      "End-to-end batch scoring duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.renormalizationDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "renormalization_duration_ms",
		Help:      "Global renormalization and snapshot publication duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.populationSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "resultset",
		Name:      "population_size",
		Help:      "Cumulative number of scored employees.",
	})
	m.tierCount = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "resultset",
		Name:      "tier_count",
		Help:      "Employees per risk tier in the latest snapshot.",
	}, []string{"tier"})
	m.snapshotCount = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "resultset",
		Name:      "snapshots_published_total",
		Help:      "Total number of atomically published snapshots.",
	})

	m.queueDepth = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "stream",
		Name:      "queue_depth",
		Help:      "Batches waiting in the stream queue.",
	})

	m.exportErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "export",
		Name:      "errors_total",
		Help:      "Failed snapshot or journal writes.",
	})
	m.exportDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "export",
		Name:      "write_duration_ms",
		Help:      "Export write duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// Package-level helpers recording through the global manager.

func RecordBatchProcessed() {
	globalManager.batchesProcessed.Inc()
}

func RecordBatchRejected() {
	globalManager.batchesRejected.Inc()
}

func RecordEntitiesScored(n int) {
	globalManager.entitiesScored.Add(float64(n))
}

func RecordPartialEntities(n int) {
	globalManager.partialEntities.Add(float64(n))
}

func RecordModelEvaluationError(modelName string) {
	globalManager.modelEvaluationErrors.WithLabelValues(modelName).Inc()
}

func RecordBatchDuration(ms float64) {
	globalManager.batchDuration.Observe(ms)
}

func RecordRenormalizationDuration(ms float64) {
	globalManager.renormalizationDuration.Observe(ms)
}

func UpdatePopulationSize(n int) {
	globalManager.populationSize.Set(float64(n))
}

func UpdateTierCount(tier string, n int) {
	globalManager.tierCount.WithLabelValues(tier).Set(float64(n))
}

func IncrementSnapshotCount() {
	globalManager.snapshotCount.Inc()
}

func UpdateQueueDepth(n int) {
	globalManager.queueDepth.Set(float64(n))
}

func RecordExportError() {
	globalManager.exportErrors.Inc()
}

func RecordExportDuration(ms float64) {
	globalManager.exportDuration.Observe(ms)
}

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

// GetRegistry returns the custom registry backing the global manager, for
// mounting the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
