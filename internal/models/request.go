package models

import "time"

// ItemRequest is a user's public ask for an item nobody has listed yet.
type ItemRequest struct {
	ID          int64     `json:"id"`
	RequesterID int64     `json:"requester_id"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
}

// RequestDetails is a request with the items offered in answer to it.
type RequestDetails struct {
	ItemRequest
	Items []*Item `json:"items"`
}
