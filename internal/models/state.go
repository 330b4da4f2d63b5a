package models

import "strings"

// BookingState is a query-time classification of bookings, distinct from BookingStatus.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

var knownStates = []BookingState{StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected}

// LookupBookingState matches raw case-insensitively against the known states.
// An empty string means ALL.
func LookupBookingState(raw string) (BookingState, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return StateAll, true
	}
	for _, s := range knownStates {
		if strings.EqualFold(string(s), raw) {
			return s, true
		}
	}
	return "", false
}
