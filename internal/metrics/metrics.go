package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess            = "success"
	OutcomeInvalid            = "invalid_request"
	OutcomeFlightNotFound     = "flight_not_found"
	OutcomeInsufficientFunds  = "insufficient_funds"
	OutcomeReferenceExhausted = "reference_exhausted"
	OutcomeError              = "error"
)

var (
	// BookingsTotal counts booking attempts by outcome.
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "The total number of booking attempts",
		},
		[]string{"outcome"},
	)

	// PricingActions counts price decisions that were taken, no_change included.
	PricingActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_actions_total",
			Help: "The total number of price recomputations by action",
		},
		[]string{"action"},
	)

	ReferenceCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_reference_collisions_total",
			Help: "The total number of booking reference collisions",
		},
	)

	BookingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_duration_seconds",
			Help:    "Time spent booking a flight",
			Buckets: prometheus.DefBuckets,
		},
	)
)
