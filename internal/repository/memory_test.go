package repository

import (
	"context"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreConformance(t *testing.T) {
	storetest.Run(t, func(*testing.T) domain.Repository { return NewMemoryStore() })
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := &models.User{Name: "ann", Email: "ann@example.com"}
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann", again.Name)
}

func TestMemoryStore_BookingNamesFollowRenames(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	owner := &models.User{Name: "owner", Email: "owner@example.com"}
	booker := &models.User{Name: "booker", Email: "booker@example.com"}
	require.NoError(t, s.CreateUser(ctx, owner))
	require.NoError(t, s.CreateUser(ctx, booker))
	item := &models.Item{OwnerID: owner.ID, Name: "Tent", Available: true}
	require.NoError(t, s.CreateItem(ctx, item))

	start := time.Now().Add(time.Hour)
	b := &models.Booking{ItemID: item.ID, BookerID: booker.ID, Start: start, End: start.Add(time.Hour), Status: models.StatusWaiting}
	require.NoError(t, s.CreateBookingIfFree(ctx, b))
	assert.Equal(t, owner.ID, b.OwnerID)

	booker.Name = "renamed"
	require.NoError(t, s.UpdateUser(ctx, booker))

	got, err := s.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.BookerName)
	assert.Equal(t, "Tent", got.ItemName)
}

func TestPaginate(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}
	assert.Equal(t, rows, paginate(rows, models.Page{}))
	assert.Equal(t, []int{3, 4}, paginate(rows, models.Page{From: 2, Size: 2}))
	assert.Equal(t, []int{5}, paginate(rows, models.Page{From: 4, Size: 2}))
	assert.Empty(t, paginate(rows, models.Page{From: 10, Size: 2}))
}
