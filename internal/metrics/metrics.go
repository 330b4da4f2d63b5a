package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shareit"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		},
		[]string{"route", "code"},
	)

	bookingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_events_total",
			Help:      "Booking lifecycle events by type.",
		},
		[]string{"type"},
	)

	upstreamRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "upstream_retries_total",
			Help:      "Gateway requests to the server that were retried.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingEvents, upstreamRetries)
	})
}

// IncHTTP counts a served request.
func IncHTTP(route string, code int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// IncBookingEvent counts a booking lifecycle event.
func IncBookingEvent(eventType string) {
	bookingEvents.WithLabelValues(eventType).Inc()
}

// IncUpstreamRetry counts one gateway retry.
func IncUpstreamRetry() {
	upstreamRetries.Inc()
}
