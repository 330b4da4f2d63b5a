package gormstore

import (
	"time"

	"shareit/internal/models"
)

type userRow struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

func (userRow) TableName() string { return "users" }

func (r *userRow) toModel() *models.User {
	return &models.User{ID: r.ID, Name: r.Name, Email: r.Email, CreatedAt: r.CreatedAt}
}

type requestRow struct {
	ID          int64     `gorm:"primaryKey"`
	RequesterID int64     `gorm:"index;not null"`
	Description string    `gorm:"not null"`
	Created     time.Time `gorm:"not null"`
}

func (requestRow) TableName() string { return "requests" }

func (r *requestRow) toModel() *models.ItemRequest {
	return &models.ItemRequest{ID: r.ID, RequesterID: r.RequesterID, Description: r.Description, Created: r.Created}
}

type itemRow struct {
	ID          int64  `gorm:"primaryKey"`
	OwnerID     int64  `gorm:"index;not null"`
	Name        string `gorm:"not null"`
	Description string
	Available   bool   `gorm:"not null"`
	RequestID   *int64 `gorm:"index"`
	CreatedAt   time.Time
}

func (itemRow) TableName() string { return "items" }

func (r *itemRow) toModel() *models.Item {
	item := &models.Item{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Name:        r.Name,
		Description: r.Description,
		Available:   r.Available,
		CreatedAt:   r.CreatedAt,
	}
	if r.RequestID != nil {
		item.RequestID = *r.RequestID
	}
	return item
}

func requestRef(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

type bookingRow struct {
	ID        int64     `gorm:"primaryKey"`
	ItemID    int64     `gorm:"index:idx_bookings_item_window,priority:1;not null"`
	BookerID  int64     `gorm:"index;not null"`
	StartTime time.Time `gorm:"index:idx_bookings_item_window,priority:2;not null"`
	EndTime   time.Time `gorm:"not null"`
	Status    string    `gorm:"size:16;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (bookingRow) TableName() string { return "bookings" }

// bookingView is a booking joined with its item and booker. Scan only fills
// top-level fields, so the booking columns are listed here again.
type bookingView struct {
	ID         int64
	ItemID     int64
	BookerID   int64
	StartTime  time.Time
	EndTime    time.Time
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ItemName   string
	OwnerID    int64
	BookerName string
}

func (v *bookingView) toModel() *models.Booking {
	return &models.Booking{
		ID:         v.ID,
		ItemID:     v.ItemID,
		ItemName:   v.ItemName,
		OwnerID:    v.OwnerID,
		BookerID:   v.BookerID,
		BookerName: v.BookerName,
		Start:      v.StartTime,
		End:        v.EndTime,
		Status:     models.BookingStatus(v.Status),
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

type commentRow struct {
	ID       int64     `gorm:"primaryKey"`
	ItemID   int64     `gorm:"index;not null"`
	AuthorID int64     `gorm:"index;not null"`
	Text     string    `gorm:"not null"`
	Created  time.Time `gorm:"not null"`
}

func (commentRow) TableName() string { return "comments" }

type commentView struct {
	ID         int64
	ItemID     int64
	AuthorID   int64
	Text       string
	Created    time.Time
	AuthorName string
}

func (v *commentView) toModel() *models.Comment {
	return &models.Comment{
		ID:         v.ID,
		ItemID:     v.ItemID,
		AuthorID:   v.AuthorID,
		AuthorName: v.AuthorName,
		Text:       v.Text,
		Created:    v.Created,
	}
}
