// Package metrics provides Prometheus metrics for backend traffic, data
// store state and imports.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "horizon"

// Connection statuses tracked by ConnectionStatus.
var connectionStatuses = []string{"connected", "offline", "error"}

var (
	// BackendRequests counts backend requests.
	// Labels: action (fetch_all, post_call, update_person, ...), result (success, error)
	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Total number of backend requests",
		},
		[]string{"action", "result"},
	)

	// BackendDuration tracks backend request latency.
	BackendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	// Refreshes counts data store refreshes by outcome.
	// Labels: outcome (connected, offline, stale)
	Refreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "datastore",
			Name:      "refreshes_total",
			Help:      "Total number of data store refreshes by outcome",
		},
		[]string{"outcome"},
	)

	// SyncFailures counts optimistic adds whose remote sync failed.
	SyncFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "datastore",
			Name:      "sync_failures_total",
			Help:      "Total number of locally saved calls that failed to sync",
		},
	)

	// CallsLoaded is the number of calls currently held in memory.
	CallsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "datastore",
			Name:      "calls",
			Help:      "Number of calls currently loaded",
		},
	)

	// ConnectionStatus is 1 for the current connection status, 0 otherwise.
	ConnectionStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "datastore",
			Name:      "connection_status",
			Help:      "Current connection status (1 for the active status)",
		},
		[]string{"status"},
	)

	// NormalizedRecords counts normalized call rows by derived status.
	NormalizedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "records_total",
			Help:      "Total number of normalized call records by status",
		},
		[]string{"status"},
	)

	// AnalysisRequests counts brief generations.
	// Labels: analyzer (gemini, backend), result (success, error)
	AnalysisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "requests_total",
			Help:      "Total number of transcript analyses",
		},
		[]string{"analyzer", "result"},
	)

	// ImportedRows counts call-recorder rows by ingest result.
	// Labels: result (parsed, skipped, uploaded, failed)
	ImportedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acr",
			Name:      "rows_total",
			Help:      "Total number of call-recorder rows by result",
		},
		[]string{"result"},
	)
)

// ObserveBackend records one backend request.
func ObserveBackend(action string, start time.Time, err error) {
	BackendDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	BackendRequests.WithLabelValues(action, result(err)).Inc()
}

// ObserveAnalysis records one analysis attempt.
func ObserveAnalysis(analyzer string, err error) {
	AnalysisRequests.WithLabelValues(analyzer, result(err)).Inc()
}

// SetConnectionStatus marks status as the active one.
func SetConnectionStatus(status string) {
	for _, s := range connectionStatuses {
		v := 0.0
		if s == status {
			v = 1
		}
		ConnectionStatus.WithLabelValues(s).Set(v)
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
