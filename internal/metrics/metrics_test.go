package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET /bookings/{id}", "200"))
	assert.NotPanics(t, func() {
		IncHTTP("GET /bookings/{id}", 200)
	})
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET /bookings/{id}", "200")))

	IncBookingEvent("booking_created")
	assert.GreaterOrEqual(t, testutil.ToFloat64(bookingEvents.WithLabelValues("booking_created")), 1.0)

	retries := testutil.ToFloat64(upstreamRetries)
	IncUpstreamRetry()
	assert.Equal(t, retries+1, testutil.ToFloat64(upstreamRetries))
}
