package service

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// BookingService owns the booking lifecycle: creation with the availability
// and overlap checks, party-restricted reads, state-filtered listings and the
// owner's approve/reject decision.
type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

var _ domain.BookingService = (*BookingService)(nil)

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *BookingService) AddBooking(ctx context.Context, userID int64, req models.BookingRequest) (*models.Booking, error) {
	item, err := s.repo.GetItemByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	booker, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Start.IsZero() || req.End.IsZero() {
		return nil, fmt.Errorf("%w: start and end are required", domain.ErrValidation)
	}
	if !req.Start.Before(req.End) {
		return nil, fmt.Errorf("booking start must be before end: %w", domain.ErrNotAvailable)
	}
	if item.OwnerID == userID {
		return nil, fmt.Errorf("owner cannot book own item %d: %w", item.ID, domain.ErrForbidden)
	}
	if !item.Available {
		return nil, fmt.Errorf("item %d is not available: %w", item.ID, domain.ErrNotAvailable)
	}

	booking := &models.Booking{
		ItemID:     item.ID,
		ItemName:   item.Name,
		OwnerID:    item.OwnerID,
		BookerID:   booker.ID,
		BookerName: booker.Name,
		Start:      req.Start,
		End:        req.End,
		Status:     models.StatusWaiting,
	}
	if err := s.repo.CreateBookingIfFree(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("item_id", booking.ItemID).
		Int64("user_id", userID).
		Msg("booking created")
	s.publishEvent(events.EventBookingCreated, booking, userID)

	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, userID, bookingID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.BookerID != userID && booking.OwnerID != userID {
		return nil, fmt.Errorf("booking %d for user %d: %w", bookingID, userID, domain.ErrForbidden)
	}
	return booking, nil
}

func (s *BookingService) ListBookingsForBooker(ctx context.Context, userID int64, state string, page models.Page) ([]*models.Booking, error) {
	filter, err := s.stateFilter(ctx, userID, state, page)
	if err != nil {
		return nil, err
	}
	filter.BookerID = userID
	return s.repo.FindBookings(ctx, filter)
}

func (s *BookingService) ListBookingsForOwner(ctx context.Context, userID int64, state string, page models.Page) ([]*models.Booking, error) {
	filter, err := s.stateFilter(ctx, userID, state, page)
	if err != nil {
		return nil, err
	}
	filter.OwnerID = userID
	return s.repo.FindBookings(ctx, filter)
}

// stateFilter parses the state before looking at the user, so an unknown
// state is reported even for unknown users.
func (s *BookingService) stateFilter(ctx context.Context, userID int64, raw string, page models.Page) (models.BookingFilter, error) {
	state, err := domain.ParseBookingState(raw)
	if err != nil {
		return models.BookingFilter{}, err
	}

	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return models.BookingFilter{}, err
	}
	if !exists {
		return models.BookingFilter{}, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}

	filter := models.ForState(state, s.now())
	filter.Page = page
	return filter, nil
}

func (s *BookingService) ApproveBooking(ctx context.Context, userID, bookingID int64, approved bool) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.OwnerID != userID {
		return nil, fmt.Errorf("only the owner decides booking %d: %w", bookingID, domain.ErrForbidden)
	}

	next := models.StatusRejected
	if approved {
		next = models.StatusApproved
	}
	if !booking.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("booking %d already %s: %w", bookingID, booking.Status, domain.ErrNotAvailable)
	}

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, booking.Status, next); err != nil {
		return nil, err
	}
	booking.Status = next
	booking.UpdatedAt = s.now()

	eventType := events.EventBookingRejected
	if approved {
		eventType = events.EventBookingApproved
	}
	s.logger.Info().
		Int64("booking_id", bookingID).
		Int64("user_id", userID).
		Str("status", string(next)).
		Msg("booking decided")
	s.publishEvent(eventType, booking, userID)

	return booking, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedBy int64) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		ItemID:      booking.ItemID,
		BookerID:    booking.BookerID,
		OwnerID:     booking.OwnerID,
		Status:      string(booking.Status),
		Start:       booking.Start,
		End:         booking.End,
		ChangedByID: changedBy,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
