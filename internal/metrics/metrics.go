// file: internal/metrics/metrics.go
// version: 1.0.0
// guid: 8f9e0d1c-2b3a-4958-8f7e-6d5c4b3a2910

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	operationStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidybooks",
		Name:      "operations_started_total",
		Help:      "Total number of operations started by type",
	}, []string{"type"})
	operationCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidybooks",
		Name:      "operations_completed_total",
		Help:      "Total number of operations successfully completed by type",
	}, []string{"type"})
	operationFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidybooks",
		Name:      "operations_failed_total",
		Help:      "Total number of operations failed by type",
	}, []string{"type"})
	operationCanceled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidybooks",
		Name:      "operations_canceled_total",
		Help:      "Total number of operations canceled by type",
	}, []string{"type"})
	operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tidybooks",
		Name:      "operation_duration_seconds",
		Help:      "Histogram of operation durations in seconds by type",
		Buckets:   prometheus.ExponentialBuckets(0.05, 1.6, 10),
	}, []string{"type"})

	filesImported = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tidybooks",
		Name:      "files_imported_total",
		Help:      "Total number of audio files copied into the library",
	})
	bytesImported = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tidybooks",
		Name:      "bytes_imported_total",
		Help:      "Total bytes copied into the library",
	})

	candidatesGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tidybooks",
		Name:      "candidates",
		Help:      "Download candidates from the last scan by status",
	}, []string{"status"})
	libraryEntriesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tidybooks",
		Name:      "library_entries",
		Help:      "Current number of indexed library entries",
	})
	historyEntriesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tidybooks",
		Name:      "history_entries",
		Help:      "Current number of processed-history records",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(operationStarted, operationCompleted, operationFailed, operationCanceled, operationDuration,
			filesImported, bytesImported, candidatesGauge, libraryEntriesGauge, historyEntriesGauge)
	})
}

// Operation lifecycle helpers
func IncOperationStarted(opType string)   { operationStarted.WithLabelValues(opType).Inc() }
func IncOperationCompleted(opType string) { operationCompleted.WithLabelValues(opType).Inc() }
func IncOperationFailed(opType string)    { operationFailed.WithLabelValues(opType).Inc() }
func IncOperationCanceled(opType string)  { operationCanceled.WithLabelValues(opType).Inc() }
func ObserveOperationDuration(opType string, d time.Duration) {
	operationDuration.WithLabelValues(opType).Observe(d.Seconds())
}

// Import counters
func AddFilesImported(n int)   { filesImported.Add(float64(n)) }
func AddBytesImported(b int64) { bytesImported.Add(float64(b)) }

// Gauges
func SetCandidates(status string, n int) { candidatesGauge.WithLabelValues(status).Set(float64(n)) }
func SetLibraryEntries(n int)            { libraryEntriesGauge.Set(float64(n)) }
func SetHistoryEntries(n int)            { historyEntriesGauge.Set(float64(n)) }
