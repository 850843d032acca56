// Package metrics provides Prometheus metrics for the graphboard leaderboard.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Manager manages all Prometheus metrics for the leaderboard.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Feed ingestion
	recordsRead      *prometheus.CounterVec
	recordsMalformed prometheus.Counter
	recordsDuplicate prometheus.Counter

	// Merge outcome
	gapRepairs       prometheus.Counter
	recordsDiscarded prometheus.Counter
	teamsUpdated     prometheus.Counter
	teamsTotal       prometheus.Gauge
	lastUpdateUnix   prometheus.Gauge
	mergeDuration    prometheus.Histogram

	// Persistence
	persistDuration prometheus.Histogram
	persistErrors   prometheus.Counter

	// Submission gatekeeping
	submissionChecks *prometheus.CounterVec

	// Read surface
	snapshotReloads     prometheus.Counter
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
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
		namespace:        "graphboard",
		subsystem:        "leaderboard",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.recordsRead = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_read_total",
		Help:      "Score records parsed from the feed, by source",
	}, []string{"source"})

	m.recordsMalformed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_malformed_total",
		Help:      "Feed lines or objects skipped because they could not be parsed",
	})

	m.recordsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_duplicate_total",
		Help:      "Repeated feed lines or redelivered messages dropped before merge",
	})

	m.gapRepairs = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gap_repairs_total",
		Help:      "Records whose supplied gap disagreed with |challenge - original| and was recomputed",
	})

	m.recordsDiscarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_discarded_total",
		Help:      "Records that did not beat the team's existing best",
	})

	m.teamsUpdated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "teams_updated_total",
		Help:      "Teams inserted or improved by a merge",
	})

	m.teamsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "teams",
		Help:      "Teams currently on the leaderboard",
	})

	m.lastUpdateUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_update_unixtime",
		Help:      "Unix time of the most recent successful merge",
	})

	m.mergeDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "merge_duration_milliseconds",
		Help:      "Time spent merging and ranking one batch",
		Buckets:   m.histogramBuckets,
	})

	m.persistDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persist_duration_milliseconds",
		Help:      "Time spent writing the leaderboard document",
		Buckets:   m.histogramBuckets,
	})

	m.persistErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persist_errors_total",
		Help:      "Failed leaderboard writes",
	})

	m.submissionChecks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submission_checks_total",
		Help:      "Submission gatekeeper outcomes",
	}, []string{"result"})

	m.snapshotReloads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_reloads_total",
		Help:      "Read-side snapshot rebuilds",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})
}

// RecordRecordsRead adds n parsed records for the named source.
func RecordRecordsRead(source string, n int) {
	globalManager.recordsRead.WithLabelValues(source).Add(float64(n))
}

// RecordMalformedRecords adds n skipped records.
func RecordMalformedRecords(n int) {
	globalManager.recordsMalformed.Add(float64(n))
}

// RecordDuplicateRecords adds n dropped duplicates.
func RecordDuplicateRecords(n int) {
	globalManager.recordsDuplicate.Add(float64(n))
}

// RecordGapRepairs adds n gap corrections.
func RecordGapRepairs(n int) {
	globalManager.gapRepairs.Add(float64(n))
}

// RecordDiscardedRecords adds n records that did not improve a team.
func RecordDiscardedRecords(n int) {
	globalManager.recordsDiscarded.Add(float64(n))
}

// RecordTeamsUpdated adds n inserted or improved teams.
func RecordTeamsUpdated(n int) {
	globalManager.teamsUpdated.Add(float64(n))
}

// UpdateTeamsTotal sets the current leaderboard size.
func UpdateTeamsTotal(n int) {
	globalManager.teamsTotal.Set(float64(n))
}

// UpdateLastUpdate records the time of the latest merge.
func UpdateLastUpdate(t time.Time) {
	globalManager.lastUpdateUnix.Set(float64(t.Unix()))
}

// RecordMergeDuration observes merge+rank latency in milliseconds.
func RecordMergeDuration(ms float64) {
	globalManager.mergeDuration.Observe(ms)
}

// RecordPersistDuration observes write latency in milliseconds.
func RecordPersistDuration(ms float64) {
	globalManager.persistDuration.Observe(ms)
}

// RecordPersistError increments the failed write counter.
func RecordPersistError() {
	globalManager.persistErrors.Inc()
}

// RecordSubmissionCheck counts a gatekeeper outcome ("ok" or an error kind).
func RecordSubmissionCheck(result string) {
	globalManager.submissionChecks.WithLabelValues(result).Inc()
}

// RecordSnapshotReload counts a read-side snapshot rebuild.
func RecordSnapshotReload() {
	globalManager.snapshotReloads.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records errors by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// Configure rebuilds the global metrics on a fresh registry with opts
// applied. Call it once at startup, before any recorder or /metrics handler
// is used.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(customRegistry))...)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Push sends the current registry contents to a Prometheus Pushgateway under
// the given job name. Batch invocations call it once before exiting.
func Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(customRegistry).PushContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrPushFailed, err)
	}
	return nil
}
