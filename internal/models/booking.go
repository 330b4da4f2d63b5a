package models

import "time"

// BookingStatus is the persisted lifecycle value of a booking.
type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusWaiting: {StatusApproved, StatusRejected},
}

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a booking in status s may move to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// BlocksItem reports whether a booking in status s occupies its window.
func (s BookingStatus) BlocksItem() bool {
	return s == StatusWaiting || s == StatusApproved
}

type Booking struct {
	ID         int64         `json:"id"`
	ItemID     int64         `json:"item_id"`
	ItemName   string        `json:"item_name"`
	OwnerID    int64         `json:"owner_id"`
	BookerID   int64         `json:"booker_id"`
	BookerName string        `json:"booker_name"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Overlaps reports whether the booking window intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && b.End.After(start)
}

// BookingRequest is the caller input for a new booking.
type BookingRequest struct {
	ItemID int64     `json:"itemId"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}
