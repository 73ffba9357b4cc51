// Package metrics exposes Prometheus collectors for the billing engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentsGenerated counts payments created by the generator, including
	// manual and prorated charges.
	PaymentsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rent_engine",
		Name:      "payments_generated_total",
		Help:      "Payments created by the billing engine.",
	})

	// StatusTransitions counts lifecycle moves, labelled by edge.
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rent_engine",
		Name:      "status_transitions_total",
		Help:      "Payment status transitions, by from/to status.",
	}, []string{"from", "to"})

	// BillingRuns counts full engine passes (statuses + generation).
	BillingRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rent_engine",
		Name:      "billing_runs_total",
		Help:      "Completed billing engine runs.",
	})

	// BillingRunDuration observes how long a full pass takes.
	BillingRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rent_engine",
		Name:      "billing_run_duration_seconds",
		Help:      "Duration of billing engine runs.",
		Buckets:   prometheus.DefBuckets,
	})
)
