package service

import (
	"context"
	"io"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"
	"shareit/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

var baseTime = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store  *repository.MemoryStore
	svc    *BookingService
	owner  *models.User
	booker *models.User
	other  *models.User
	item   *models.Item
}

func newFixture(t *testing.T, bus domain.EventPublisher) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	f := &fixture{store: repository.NewMemoryStore()}
	f.owner = &models.User{Name: "owner", Email: "owner@example.com"}
	f.booker = &models.User{Name: "booker", Email: "booker@example.com"}
	f.other = &models.User{Name: "other", Email: "other@example.com"}
	for _, u := range []*models.User{f.owner, f.booker, f.other} {
		require.NoError(t, f.store.CreateUser(ctx, u))
	}
	f.item = &models.Item{OwnerID: f.owner.ID, Name: "Drill", Description: "cordless", Available: true}
	require.NoError(t, f.store.CreateItem(ctx, f.item))

	f.svc = NewBookingService(f.store, bus, &logger)
	f.svc.now = func() time.Time { return baseTime }
	return f
}

func (f *fixture) book(t *testing.T, userID int64, start, end time.Time) *models.Booking {
	t.Helper()
	b, err := f.svc.AddBooking(context.Background(), userID, models.BookingRequest{ItemID: f.item.ID, Start: start, End: end})
	require.NoError(t, err)
	return b
}

func TestAddBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("creates waiting booking and publishes event", func(t *testing.T) {
		bus := new(mockEventBus)
		bus.On("PublishJSON", events.EventBookingCreated, mock.AnythingOfType("events.BookingEventPayload")).Return(nil).Once()
		f := newFixture(t, bus)

		b := f.book(t, f.booker.ID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
		assert.NotZero(t, b.ID)
		assert.Equal(t, models.StatusWaiting, b.Status)
		assert.Equal(t, f.owner.ID, b.OwnerID)
		assert.Equal(t, "Drill", b.ItemName)
		assert.Equal(t, "booker", b.BookerName)
		bus.AssertExpectations(t)
	})

	t.Run("overlapping booking is not available", func(t *testing.T) {
		f := newFixture(t, nil)
		f.book(t, f.booker.ID, baseTime.Add(time.Hour), baseTime.Add(3*time.Hour))

		_, err := f.svc.AddBooking(ctx, f.other.ID, models.BookingRequest{
			ItemID: f.item.ID, Start: baseTime.Add(2 * time.Hour), End: baseTime.Add(4 * time.Hour),
		})
		assert.ErrorIs(t, err, domain.ErrNotAvailable)
	})

	t.Run("adjacent booking is allowed", func(t *testing.T) {
		f := newFixture(t, nil)
		f.book(t, f.booker.ID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
		f.book(t, f.other.ID, baseTime.Add(2*time.Hour), baseTime.Add(3*time.Hour))
	})

	t.Run("rejected booking does not block", func(t *testing.T) {
		f := newFixture(t, nil)
		b := f.book(t, f.booker.ID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
		_, err := f.svc.ApproveBooking(ctx, f.owner.ID, b.ID, false)
		require.NoError(t, err)
		f.book(t, f.other.ID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
	})

	t.Run("start not before end", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.AddBooking(ctx, f.booker.ID, models.BookingRequest{
			ItemID: f.item.ID, Start: baseTime.Add(time.Hour), End: baseTime.Add(time.Hour),
		})
		assert.ErrorIs(t, err, domain.ErrNotAvailable)
	})

	t.Run("missing times", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.AddBooking(ctx, f.booker.ID, models.BookingRequest{ItemID: f.item.ID})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("owner cannot book own item", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.AddBooking(ctx, f.owner.ID, models.BookingRequest{
			ItemID: f.item.ID, Start: baseTime.Add(time.Hour), End: baseTime.Add(2 * time.Hour),
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unavailable item", func(t *testing.T) {
		f := newFixture(t, nil)
		f.item.Available = false
		require.NoError(t, f.store.UpdateItem(ctx, f.item))
		_, err := f.svc.AddBooking(ctx, f.booker.ID, models.BookingRequest{
			ItemID: f.item.ID, Start: baseTime.Add(time.Hour), End: baseTime.Add(2 * time.Hour),
		})
		assert.ErrorIs(t, err, domain.ErrNotAvailable)
	})

	t.Run("unknown item and user", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.AddBooking(ctx, f.booker.ID, models.BookingRequest{
			ItemID: 999, Start: baseTime.Add(time.Hour), End: baseTime.Add(2 * time.Hour),
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = f.svc.AddBooking(ctx, 999, models.BookingRequest{
			ItemID: f.item.ID, Start: baseTime.Add(time.Hour), End: baseTime.Add(2 * time.Hour),
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestGetBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	b := f.book(t, f.booker.ID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))

	for _, id := range []int64{f.booker.ID, f.owner.ID} {
		got, err := f.svc.GetBooking(ctx, id, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
	}

	_, err := f.svc.GetBooking(ctx, f.other.ID, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.GetBooking(ctx, f.booker.ID, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApproveBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("owner approves once", func(t *testing.T) {
		bus := new(mockEventBus)
		bus.On("PublishJSON", events.EventBookingCreated, mock.Anything).Return(nil)
		bus.On("PublishJSON", events.EventBookingApproved, mock.MatchedBy(func(p events.BookingEventPayload) bool {
			return p.Status == string(models.StatusApproved)
		})).Return(nil).Once()
		f := newFixture(t, bus)
		b := f.book(t, f.booker.ID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))

		got, err := f.svc.ApproveBooking(ctx, f.owner.ID, b.ID, true)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, got.Status)

		_, err = f.svc.ApproveBooking(ctx, f.owner.ID, b.ID, false)
		assert.ErrorIs(t, err, domain.ErrNotAvailable)
		_, err = f.svc.ApproveBooking(ctx, f.owner.ID, b.ID, true)
		assert.ErrorIs(t, err, domain.ErrNotAvailable)
		bus.AssertExpectations(t)
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		f := newFixture(t, nil)
		b := f.book(t, f.booker.ID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))

		got, err := f.svc.ApproveBooking(ctx, f.owner.ID, b.ID, false)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, got.Status)

		_, err = f.svc.ApproveBooking(ctx, f.owner.ID, b.ID, true)
		assert.ErrorIs(t, err, domain.ErrNotAvailable)
	})

	t.Run("only owner decides", func(t *testing.T) {
		f := newFixture(t, nil)
		b := f.book(t, f.booker.ID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))

		_, err := f.svc.ApproveBooking(ctx, f.booker.ID, b.ID, true)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		stored, err := f.store.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusWaiting, stored.Status)
	})

	t.Run("publish failure does not fail decision", func(t *testing.T) {
		bus := new(mockEventBus)
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(assert.AnError)
		f := newFixture(t, bus)
		b := f.book(t, f.booker.ID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))

		_, err := f.svc.ApproveBooking(ctx, f.owner.ID, b.ID, true)
		assert.NoError(t, err)
	})
}

func TestListBookings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	past := f.book(t, f.booker.ID, baseTime.Add(-48*time.Hour), baseTime.Add(-24*time.Hour))
	current := f.book(t, f.booker.ID, baseTime.Add(-time.Hour), baseTime.Add(time.Hour))
	future := f.book(t, f.booker.ID, baseTime.Add(24*time.Hour), baseTime.Add(48*time.Hour))
	rejected := f.book(t, f.booker.ID, baseTime.Add(72*time.Hour), baseTime.Add(96*time.Hour))
	_, err := f.svc.ApproveBooking(ctx, f.owner.ID, past.ID, true)
	require.NoError(t, err)
	_, err = f.svc.ApproveBooking(ctx, f.owner.ID, rejected.ID, false)
	require.NoError(t, err)

	ids := func(bs []*models.Booking) []int64 {
		out := make([]int64, len(bs))
		for i, b := range bs {
			out[i] = b.ID
		}
		return out
	}

	cases := []struct {
		state string
		want  []int64
	}{
		{"", []int64{rejected.ID, future.ID, current.ID, past.ID}},
		{"ALL", []int64{rejected.ID, future.ID, current.ID, past.ID}},
		{"current", []int64{current.ID}},
		{"PAST", []int64{past.ID}},
		{"FUTURE", []int64{rejected.ID, future.ID}},
		{"WAITING", []int64{future.ID, current.ID}},
		{"REJECTED", []int64{rejected.ID}},
	}
	for _, tc := range cases {
		t.Run("booker "+tc.state, func(t *testing.T) {
			got, err := f.svc.ListBookingsForBooker(ctx, f.booker.ID, tc.state, models.Page{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(got))
		})
		t.Run("owner "+tc.state, func(t *testing.T) {
			got, err := f.svc.ListBookingsForOwner(ctx, f.owner.ID, tc.state, models.Page{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(got))
		})
	}

	t.Run("other user sees nothing", func(t *testing.T) {
		got, err := f.svc.ListBookingsForBooker(ctx, f.other.ID, "ALL", models.Page{})
		require.NoError(t, err)
		assert.Empty(t, got)
		got, err = f.svc.ListBookingsForOwner(ctx, f.booker.ID, "ALL", models.Page{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("paged", func(t *testing.T) {
		got, err := f.svc.ListBookingsForBooker(ctx, f.booker.ID, "ALL", models.Page{From: 2, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, []int64{current.ID, past.ID}, ids(got))
	})

	t.Run("unknown state wins over unknown user", func(t *testing.T) {
		_, err := f.svc.ListBookingsForBooker(ctx, 999, "BOGUS", models.Page{})
		assert.ErrorIs(t, err, domain.ErrUnsupportedState)
		assert.Contains(t, err.Error(), "BOGUS")
		_, err = f.svc.ListBookingsForOwner(ctx, 999, "BOGUS", models.Page{})
		assert.ErrorIs(t, err, domain.ErrUnsupportedState)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.svc.ListBookingsForBooker(ctx, 999, "ALL", models.Page{})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
