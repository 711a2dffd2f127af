package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkspot",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		},
		[]string{"route", "status"},
	)

	bookingOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkspot",
			Name:      "booking_outcomes_total",
			Help:      "Booking create attempts by outcome.",
		},
		[]string{"outcome"},
	)

	liveSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "parkspot",
			Name:      "live_subscribers",
			Help:      "Currently connected live-stream subscribers.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingOutcomes, liveSubscribers)
	})
}

// IncHTTP increments the request counter for a route/status pair.
func IncHTTP(route, status string) {
	httpRequests.WithLabelValues(route, status).Inc()
}

// IncBookingOutcome counts a booking create attempt by outcome label
// ("created", "conflict", "invalid", "error").
func IncBookingOutcome(outcome string) {
	bookingOutcomes.WithLabelValues(outcome).Inc()
}

// SetLiveSubscribers updates the live subscriber gauge.
func SetLiveSubscribers(n int) {
	liveSubscribers.Set(float64(n))
}
