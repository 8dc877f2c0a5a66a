package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhive_bookings_total",
			Help: "Booking requests by outcome",
		},
		[]string{"outcome"},
	)

	ticketsReserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventhive_tickets_reserved_total",
			Help: "Tickets reserved by committed bookings",
		},
	)

	bookingRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhive_booking_retries_total",
			Help: "Booking attempts replayed after storage contention",
		},
		[]string{"reason"},
	)

	bookingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventhive_booking_duration_seconds",
			Help:    "End-to-end CreateBooking latency",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"outcome"},
	)

	promoResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhive_promo_results_total",
			Help: "Promo code evaluations by outcome and reason",
		},
		[]string{"outcome", "reason"},
	)

	checkIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhive_checkins_total",
			Help: "Check-in attempts by result",
		},
		[]string{"result"},
	)

	promoSweeps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventhive_promo_codes_expired_total",
			Help: "Promo codes deactivated by the expiry sweep",
		},
	)
)

// Booking outcomes
const (
	OutcomeCreated     = "created"
	OutcomeReplayed    = "replayed"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// ObserveBooking records one CreateBooking call.
func ObserveBooking(outcome string, d time.Duration) {
	bookingsTotal.WithLabelValues(outcome).Inc()
	bookingDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func TicketsReserved(n int) {
	ticketsReserved.Add(float64(n))
}

func BookingRetry(reason string) {
	bookingRetries.WithLabelValues(reason).Inc()
}

func PromoResult(outcome, reason string) {
	promoResults.WithLabelValues(outcome, reason).Inc()
}

func CheckIn(result string) {
	checkIns.WithLabelValues(result).Inc()
}

func PromoCodesExpired(n int64) {
	promoSweeps.Add(float64(n))
}
