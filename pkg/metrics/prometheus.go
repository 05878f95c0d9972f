// Package metrics provides Prometheus metrics for the event evaluation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// scoreBuckets spans the 0-100 overall score range in tens.
var scoreBuckets = prometheus.LinearBuckets(10, 10, 10) //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the evaluation service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion and deduplication
	recordsIngested  prometheus.Counter
	recordsMalformed prometheus.Counter
	matchDecisions   *prometheus.CounterVec
	changeOutcomes   *prometheus.CounterVec

	// Scoring
	factorDefaults   *prometheus.CounterVec
	invalidInputs    *prometheus.CounterVec
	overallScores    prometheus.Histogram
	scoringLatency   prometheus.Histogram
	batchLatency     prometheus.Histogram
	weightRejections prometheus.Counter
	rescores         prometheus.Counter
	workerCount      prometheus.Gauge
	scoringErrors    prometheus.Counter

	// Repository
	storedRecords           prometheus.Gauge
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorRateByComponent *prometheus.CounterVec
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
		namespace:        "eventrank",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
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
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) initializeMetrics() {
	m.recordsIngested = m.counter("records_ingested_total", "Total number of raw records received for evaluation")
	m.recordsMalformed = m.counter("records_malformed_total", "Total number of records rejected for missing identity")
	m.matchDecisions = m.counterVec("match_decisions_total", "Deduplication decisions by tier", "tier")
	m.changeOutcomes = m.counterVec("change_outcomes_total", "Deduplicated records by change log value", "change")

	m.factorDefaults = m.counterVec("factor_defaults_total", "Factors that fell back to their neutral default", "factor")
	m.invalidInputs = m.counterVec("invalid_score_inputs_total", "Invalid scoring inputs by factor", "factor")
	m.overallScores = m.histogram("overall_score", "Distribution of overall scores", scoreBuckets)
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Latency of scoring a single record in milliseconds", m.histogramBuckets)
	m.batchLatency = m.histogram("batch_latency_milliseconds", "Latency of evaluating a whole batch in milliseconds", m.histogramBuckets)
	m.weightRejections = m.counter("weight_rejections_total", "Weight configurations rejected by validation")
	m.rescores = m.counter("rescores_total", "Full re-scoring passes triggered by weight changes")
	m.workerCount = m.gauge("worker_count", "Configured scoring concurrency")
	m.scoringErrors = m.counter("scoring_errors_total", "Total number of scoring calls that failed")

	m.storedRecords = m.gauge("stored_records", "Number of records held by the ranked store")
	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds", "Repository update operation latency in milliseconds", m.histogramBuckets)
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds", "Repository query operation latency in milliseconds", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
}

// RecordRecordsIngested adds n to the ingested records counter.
func RecordRecordsIngested(n int) {
	globalManager.recordsIngested.Add(float64(n))
}

// RecordMalformedRecord increments the malformed records counter.
func RecordMalformedRecord() {
	globalManager.recordsMalformed.Inc()
}

// RecordMatchDecision counts one deduplication decision.
func RecordMatchDecision(tier string) {
	globalManager.matchDecisions.WithLabelValues(tier).Inc()
}

// RecordChangeOutcome counts one change log outcome.
func RecordChangeOutcome(change string) {
	globalManager.changeOutcomes.WithLabelValues(change).Inc()
}

// RecordFactorDefaulted counts a factor scored with its neutral default.
func RecordFactorDefaulted(factor string) {
	globalManager.factorDefaults.WithLabelValues(factor).Inc()
}

// RecordInvalidScoreInput counts an invalid input for a factor.
func RecordInvalidScoreInput(factor string) {
	globalManager.invalidInputs.WithLabelValues(factor).Inc()
}

// RecordOverallScore observes a computed overall score.
func RecordOverallScore(score int) {
	globalManager.overallScores.Observe(float64(score))
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordBatchLatency records whole-batch evaluation latency in milliseconds.
func RecordBatchLatency(latencyMs float64) {
	globalManager.batchLatency.Observe(latencyMs)
}

// RecordWeightRejection increments the rejected weight configuration counter.
func RecordWeightRejection() {
	globalManager.weightRejections.Inc()
}

// RecordRescore increments the re-scoring pass counter.
func RecordRescore() {
	globalManager.rescores.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordScoringError increments the scoring errors counter.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// UpdateStoredRecords sets the number of stored records.
func UpdateStoredRecords(count int) {
	globalManager.storedRecords.Set(float64(count))
}

// RecordRepositoryUpdateLatency records repository update operation latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records repository query operation latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
