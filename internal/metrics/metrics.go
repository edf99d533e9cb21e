package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studioz",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	reservationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "studioz",
			Name:      "reservations_created_total",
			Help:      "Reservations that successfully acquired a hold.",
		},
	)

	slotConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "studioz",
			Name:      "slot_conflicts_total",
			Help:      "Reservation attempts rejected because a slot was taken.",
		},
	)

	reservationsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "studioz",
			Name:      "reservations_expired_total",
			Help:      "Pending holds released by the expiry sweeper.",
		},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "studioz",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of expiry sweep runs.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			reservationsCreated,
			slotConflicts,
			reservationsExpired,
			sweepDuration,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncReservationsCreated() {
	reservationsCreated.Inc()
}

func IncSlotConflicts() {
	slotConflicts.Inc()
}

func AddReservationsExpired(n int) {
	reservationsExpired.Add(float64(n))
}

func ObserveSweepDuration(seconds float64) {
	sweepDuration.Observe(seconds)
}
