package models

import "time"

type Item struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"owner_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	// RequestID is the item request this item answers, 0 when none.
	RequestID int64     `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemPatch carries a partial item update; nil fields are left unchanged.
type ItemPatch struct {
	Name        *string
	Description *string
	Available   *bool
}

// Apply copies the set fields onto item.
func (p ItemPatch) Apply(item *Item) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Available != nil {
		item.Available = *p.Available
	}
}

// ItemDetails is an item together with its comments and, for the owner, the
// adjacent approved bookings.
type ItemDetails struct {
	Item
	LastBooking *Booking   `json:"last_booking,omitempty"`
	NextBooking *Booking   `json:"next_booking,omitempty"`
	Comments    []*Comment `json:"comments"`
}

type Comment struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"item_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	Created    time.Time `json:"created"`
}
