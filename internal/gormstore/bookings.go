package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const bookingColumns = `b.id, b.item_id, b.booker_id, b.start_time, b.end_time, b.status,
	b.created_at, b.updated_at, i.name AS item_name, i.owner_id AS owner_id, u.name AS booker_name`

func (s *Store) bookings(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("bookings AS b").
		Select(bookingColumns).
		Joins("JOIN items i ON i.id = b.item_id").
		Joins("JOIN users u ON u.id = b.booker_id")
}

// CreateBookingIfFree locks the item row (postgres) and checks for blocking
// bookings in the same transaction as the insert.
func (s *Store) CreateBookingIfFree(ctx context.Context, booking *models.Booking) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item itemRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", booking.ItemID).Error
		if err != nil {
			return notFound(err, "item", booking.ItemID)
		}

		var overlapping int64
		err = tx.Model(&bookingRow{}).
			Where("item_id = ? AND status IN ?", booking.ItemID,
				[]string{string(models.StatusWaiting), string(models.StatusApproved)}).
			Where("start_time < ? AND end_time > ?", booking.End.UTC(), booking.Start.UTC()).
			Count(&overlapping).Error
		if err != nil {
			return fmt.Errorf("failed to check overlap in tx: %w", err)
		}
		if overlapping > 0 {
			return fmt.Errorf("item %d is booked for the requested window: %w", booking.ItemID, domain.ErrNotAvailable)
		}

		row := bookingRow{
			ItemID:    booking.ItemID,
			BookerID:  booking.BookerID,
			StartTime: booking.Start.UTC(),
			EndTime:   booking.End.UTC(),
			Status:    string(booking.Status),
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert booking in tx: %w", err)
		}

		booking.ID = row.ID
		booking.OwnerID = item.OwnerID
		booking.CreatedAt = row.CreatedAt
		booking.UpdatedAt = row.UpdatedAt
		return nil
	})
}

func (s *Store) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var view bookingView
	res := s.bookings(ctx).Where("b.id = ?", id).Limit(1).Scan(&view)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to get booking %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	return view.toModel(), nil
}

func (s *Store) UpdateBookingStatus(ctx context.Context, id int64, from, to models.BookingStatus) error {
	res := s.db.WithContext(ctx).
		Model(&bookingRow{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return fmt.Errorf("failed to update booking status: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var row bookingRow
	if err := s.db.WithContext(ctx).Select("id").First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to check booking: %w", err)
	}
	return fmt.Errorf("booking %d is no longer %s: %w", id, from, domain.ErrNotAvailable)
}

func (s *Store) FindBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	q := s.bookings(ctx)
	if filter.BookerID != 0 {
		q = q.Where("b.booker_id = ?", filter.BookerID)
	}
	if filter.OwnerID != 0 {
		q = q.Where("i.owner_id = ?", filter.OwnerID)
	}
	if len(filter.ItemIDs) > 0 {
		q = q.Where("b.item_id IN ?", filter.ItemIDs)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		q = q.Where("b.status IN ?", statuses)
	}
	bounds := []struct {
		cond string
		t    time.Time
	}{
		{"b.start_time < ?", filter.StartBefore},
		{"b.start_time <= ?", filter.StartNotAfter},
		{"b.start_time > ?", filter.StartAfter},
		{"b.end_time < ?", filter.EndBefore},
		{"b.end_time > ?", filter.EndAfter},
	}
	for _, b := range bounds {
		if b.t.IsZero() {
			continue
		}
		q = q.Where(b.cond, b.t.UTC())
	}

	if filter.Ascending {
		q = q.Order("b.start_time ASC, b.id ASC")
	} else {
		q = q.Order("b.start_time DESC, b.id DESC")
	}

	var views []bookingView
	if err := paged(q, filter.Page).Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	out := make([]*models.Booking, 0, len(views))
	for i := range views {
		out = append(out, views[i].toModel())
	}
	return out, nil
}
