package models

import (
	"slices"
	"time"
)

// BookingFilter is the query shape a store evaluates when listing bookings.
// Zero values mean "no constraint".
type BookingFilter struct {
	BookerID int64
	OwnerID  int64
	ItemIDs  []int64
	Statuses []BookingStatus

	StartBefore   time.Time // start < t
	StartNotAfter time.Time // start <= t
	StartAfter    time.Time // start > t
	EndBefore     time.Time // end < t
	EndAfter      time.Time // end > t

	// Ascending orders by start ascending; the default is start descending.
	Ascending bool
	Page      Page
}

// ForState returns the filter for a state classification evaluated at now.
func ForState(state BookingState, now time.Time) BookingFilter {
	switch state {
	case StateCurrent:
		return BookingFilter{StartNotAfter: now, EndAfter: now}
	case StatePast:
		return BookingFilter{EndBefore: now}
	case StateFuture:
		return BookingFilter{StartAfter: now}
	case StateWaiting:
		return BookingFilter{Statuses: []BookingStatus{StatusWaiting}}
	case StateRejected:
		return BookingFilter{Statuses: []BookingStatus{StatusRejected}}
	default:
		return BookingFilter{}
	}
}

// Match evaluates the filter predicates against a single booking. Ordering and
// paging are left to the caller.
func (f BookingFilter) Match(b *Booking) bool {
	if f.BookerID != 0 && b.BookerID != f.BookerID {
		return false
	}
	if f.OwnerID != 0 && b.OwnerID != f.OwnerID {
		return false
	}
	if len(f.ItemIDs) > 0 && !slices.Contains(f.ItemIDs, b.ItemID) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, b.Status) {
		return false
	}
	if !f.StartBefore.IsZero() && !b.Start.Before(f.StartBefore) {
		return false
	}
	if !f.StartNotAfter.IsZero() && b.Start.After(f.StartNotAfter) {
		return false
	}
	if !f.StartAfter.IsZero() && !b.Start.After(f.StartAfter) {
		return false
	}
	if !f.EndBefore.IsZero() && !b.End.Before(f.EndBefore) {
		return false
	}
	if !f.EndAfter.IsZero() && !b.End.After(f.EndAfter) {
		return false
	}
	return true
}

// Page is a from/size window over an ordered result set.
type Page struct {
	From int
	Size int
}

// Unpaged reports whether the page places no limit on the result set.
func (p Page) Unpaged() bool { return p.Size <= 0 }

// Offset returns the first row of the page containing From.
func (p Page) Offset() int {
	if p.Unpaged() {
		return 0
	}
	return (p.From / p.Size) * p.Size
}

// Limit returns the page size.
func (p Page) Limit() int { return p.Size }
