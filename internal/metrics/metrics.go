package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IssueDuration tracks the latency of the synchronous part of an
	// issuance (validate + generate + render), labeled by staged outcome.
	IssueDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "rewards_issue_duration_seconds",
			Help: "Duration of code issuance (generate + render) in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
			},
		},
		[]string{"outcome"},
	)

	// ReplicationTotal counts settled ledger writes by result.
	ReplicationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewards_replication_total",
			Help: "Ledger write attempts by result",
		},
		[]string{"status"}, // success or failure
	)

	// LookupDuration tracks the latency of stats lookups against the ledger.
	LookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "rewards_lookup_duration_seconds",
			Help: "Duration of candidate stats lookups in seconds",
			Buckets: []float64{
				0.01, // 10ms
				0.05, // 50ms
				0.1,  // 100ms
				0.25, // 250ms
				0.5,  // 500ms
				1.0,  // 1s
				2.5,  // 2.5s
				5.0,  // 5s
				10.0, // 10s
			},
		},
		[]string{"status"}, // ok or failed
	)
)

// RecordIssueDuration records the duration of one issuance's synchronous stage
func RecordIssueDuration(outcome string, duration float64) {
	IssueDuration.WithLabelValues(outcome).Observe(duration)
}

// RecordReplication counts one settled replication attempt
func RecordReplication(status string) {
	ReplicationTotal.WithLabelValues(status).Inc()
}

// RecordLookupDuration records the duration of one stats lookup
func RecordLookupDuration(status string, duration float64) {
	LookupDuration.WithLabelValues(status).Observe(duration)
}
