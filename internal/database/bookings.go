package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const bookingSelect = `SELECT b.id, b.item_id, i.name, i.owner_id, b.booker_id, u.name,
                 b.start_time, b.end_time, b.status, b.created_at, b.updated_at
          FROM bookings b
          JOIN items i ON i.id = b.item_id
          JOIN users u ON u.id = b.booker_id`

func (db *DB) CreateBookingIfFree(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var overlapping int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
         WHERE item_id = ? AND status IN (?, ?) AND start_time < ? AND end_time > ?`,
		booking.ItemID, models.StatusWaiting, models.StatusApproved, utc(booking.End), utc(booking.Start),
	).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("failed to check overlap in tx: %w", err)
	}
	if overlapping > 0 {
		return fmt.Errorf("item %d is booked for the requested window: %w", booking.ItemID, domain.ErrNotAvailable)
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (item_id, booker_id, start_time, end_time, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		booking.ItemID, booking.BookerID, utc(booking.Start), utc(booking.End), booking.Status, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id)
	booking, err := scanBooking(row)
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	return booking, nil
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, from, to models.BookingStatus) error {
	result, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		return nil
	}

	var exists bool
	if err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check booking: %w", err)
	}
	if !exists {
		return fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("booking %d is no longer %s: %w", id, from, domain.ErrNotAvailable)
}

func (db *DB) FindBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	where, args := bookingWhere(filter)
	query := bookingSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if filter.Ascending {
		query += ` ORDER BY b.start_time ASC, b.id ASC`
	} else {
		query += ` ORDER BY b.start_time DESC, b.id DESC`
	}
	query, args = withPage(query, args, filter.Page)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func bookingWhere(f models.BookingFilter) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	if f.BookerID != 0 {
		where = append(where, `b.booker_id = ?`)
		args = append(args, f.BookerID)
	}
	if f.OwnerID != 0 {
		where = append(where, `i.owner_id = ?`)
		args = append(args, f.OwnerID)
	}
	if len(f.ItemIDs) > 0 {
		placeholders, ids := inClause(f.ItemIDs)
		where = append(where, `b.item_id IN (`+placeholders+`)`)
		args = append(args, ids...)
	}
	if len(f.Statuses) > 0 {
		where = append(where, `b.status IN (`+strings.TrimSuffix(strings.Repeat("?, ", len(f.Statuses)), ", ")+`)`)
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}

	timeBounds := []struct {
		cond string
		t    time.Time
	}{
		{`b.start_time < ?`, f.StartBefore},
		{`b.start_time <= ?`, f.StartNotAfter},
		{`b.start_time > ?`, f.StartAfter},
		{`b.end_time < ?`, f.EndBefore},
		{`b.end_time > ?`, f.EndAfter},
	}
	for _, tb := range timeBounds {
		if tb.t.IsZero() {
			continue
		}
		where = append(where, tb.cond)
		args = append(args, utc(tb.t))
	}
	return where, args
}

func scanBooking(s scanner) (*models.Booking, error) {
	var (
		b      models.Booking
		status string
	)
	if err := s.Scan(&b.ID, &b.ItemID, &b.ItemName, &b.OwnerID, &b.BookerID, &b.BookerName,
		&b.Start, &b.End, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Status = models.BookingStatus(status)
	return &b, nil
}
