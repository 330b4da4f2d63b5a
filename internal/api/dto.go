package api

import (
	"time"

	"shareit/internal/models"
)

type userDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserDTO(u *models.User) userDTO {
	return userDTO{ID: u.ID, Name: u.Name, Email: u.Email}
}

type refDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type bookingDTO struct {
	ID     int64     `json:"id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
	Booker refDTO    `json:"booker"`
	Item   refDTO    `json:"item"`
}

func toBookingDTO(b *models.Booking) bookingDTO {
	return bookingDTO{
		ID:     b.ID,
		Start:  b.Start.UTC(),
		End:    b.End.UTC(),
		Status: string(b.Status),
		Booker: refDTO{ID: b.BookerID, Name: b.BookerName},
		Item:   refDTO{ID: b.ItemID, Name: b.ItemName},
	}
}

func toBookingDTOs(bookings []*models.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return out
}

// shortBookingDTO is the lastBooking/nextBooking shape on item views.
type shortBookingDTO struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

func toShortBooking(b *models.Booking) *shortBookingDTO {
	if b == nil {
		return nil
	}
	return &shortBookingDTO{ID: b.ID, BookerID: b.BookerID, Start: b.Start.UTC(), End: b.End.UTC()}
}

type itemDTO struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"ownerId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	RequestID   *int64 `json:"requestId,omitempty"`
}

func toItemDTO(item *models.Item) itemDTO {
	dto := itemDTO{
		ID:          item.ID,
		OwnerID:     item.OwnerID,
		Name:        item.Name,
		Description: item.Description,
		Available:   item.Available,
	}
	if item.RequestID != 0 {
		id := item.RequestID
		dto.RequestID = &id
	}
	return dto
}

func toItemDTOs(items []*models.Item) []itemDTO {
	out := make([]itemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toItemDTO(item))
	}
	return out
}

type commentDTO struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"itemId"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	Created    time.Time `json:"created"`
}

func toCommentDTO(c *models.Comment) commentDTO {
	return commentDTO{ID: c.ID, ItemID: c.ItemID, Text: c.Text, AuthorName: c.AuthorName, Created: c.Created.UTC()}
}

type itemDetailsDTO struct {
	itemDTO
	LastBooking *shortBookingDTO `json:"lastBooking"`
	NextBooking *shortBookingDTO `json:"nextBooking"`
	Comments    []commentDTO     `json:"comments"`
}

func toItemDetailsDTO(d *models.ItemDetails) itemDetailsDTO {
	comments := make([]commentDTO, 0, len(d.Comments))
	for _, c := range d.Comments {
		comments = append(comments, toCommentDTO(c))
	}
	return itemDetailsDTO{
		itemDTO:     toItemDTO(&d.Item),
		LastBooking: toShortBooking(d.LastBooking),
		NextBooking: toShortBooking(d.NextBooking),
		Comments:    comments,
	}
}

type requestDTO struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
	Items       []itemDTO `json:"items"`
}

func toRequestDTO(d *models.RequestDetails) requestDTO {
	return requestDTO{
		ID:          d.ID,
		Description: d.Description,
		Created:     d.Created.UTC(),
		Items:       toItemDTOs(d.Items),
	}
}

func toRequestDTOs(details []*models.RequestDetails) []requestDTO {
	out := make([]requestDTO, 0, len(details))
	for _, d := range details {
		out = append(out, toRequestDTO(d))
	}
	return out
}

// Request bodies.

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type updateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type createItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   *bool  `json:"available"`
	RequestID   int64  `json:"requestId"`
}

type updateItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

type commentRequest struct {
	Text string `json:"text"`
}

type itemRequestBody struct {
	Description string `json:"description"`
}
