package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal tracks wallet scans by outcome
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoard_scans_total",
			Help: "The total number of wallet scans",
		},
		[]string{"status"},
	)

	// ScanSeconds tracks time taken to scan a wallet
	ScanSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hoard_scan_seconds",
		Help:    "Time taken to scan a wallet in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// HoldingsSkipped tracks holdings dropped by per-record validation
	HoldingsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoard_holdings_skipped_total",
		Help: "The total number of malformed holdings skipped during scans",
	})

	// PnlSnapshotsTotal tracks PnL snapshots by outcome
	PnlSnapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoard_pnl_snapshots_total",
			Help: "The total number of PnL snapshots",
		},
		[]string{"status"},
	)

	// ProviderRequestsTotal tracks portfolio data provider requests
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoard_provider_requests_total",
			Help: "The total number of portfolio data provider requests",
		},
		[]string{"operation", "status"},
	)

	// DatabaseOperations tracks ledger writes
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoard_database_operations_total",
			Help: "The total number of database operations",
		},
		[]string{"operation", "status"}, // upsert/create, success/failed
	)
)

// RecordScan records a completed scan with the given status
func RecordScan(status string) {
	ScansTotal.WithLabelValues(status).Inc()
}

// RecordScanDuration records the time taken to scan a wallet
func RecordScanDuration(duration float64) {
	ScanSeconds.Observe(duration)
}

// RecordSkippedHolding records a holding dropped by validation
func RecordSkippedHolding() {
	HoldingsSkipped.Inc()
}

// RecordPnlSnapshot records a PnL snapshot attempt
func RecordPnlSnapshot(status string) {
	PnlSnapshotsTotal.WithLabelValues(status).Inc()
}

// RecordProviderRequest records a provider request with the given status
func RecordProviderRequest(operation, status string) {
	ProviderRequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDatabaseOperation records a database operation
func RecordDatabaseOperation(operation, status string) {
	DatabaseOperations.WithLabelValues(operation, status).Inc()
}
