package events

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus(nil)

	var received []*Event
	bus.Subscribe(EventBookingCreated, func(event *Event) error {
		received = append(received, event)
		return nil
	})

	payload := BookingEventPayload{BookingID: 1, ItemID: 2, BookerID: 3, OwnerID: 4, Status: "WAITING"}
	require.NoError(t, bus.PublishJSON(EventBookingCreated, payload))
	require.NoError(t, bus.PublishJSON(EventBookingApproved, payload))

	require.Len(t, received, 1)
	assert.Equal(t, EventBookingCreated, received[0].Type)
	assert.False(t, received[0].CreatedAt.IsZero())

	var decoded BookingEventPayload
	require.NoError(t, received[0].Decode(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestEventBus_HandlerOrderAndErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bus := NewEventBus(&logger)

	var order []int
	bus.Subscribe(EventBookingRejected, func(*Event) error {
		order = append(order, 1)
		return errors.New("boom")
	})
	bus.Subscribe(EventBookingRejected, func(*Event) error {
		order = append(order, 2)
		return nil
	})

	bus.Publish(&Event{Type: EventBookingRejected})

	assert.Equal(t, []int{1, 2}, order)
	assert.Contains(t, buf.String(), "event handler failed")
	assert.Contains(t, buf.String(), EventBookingRejected)
}

func TestEventBus_NilSafe(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventBookingCreated, map[string]int{"a": 1}))
}

func TestEventBus_MarshalError(t *testing.T) {
	bus := NewEventBus(nil)
	assert.Error(t, bus.PublishJSON(EventBookingCreated, make(chan int)))
}
