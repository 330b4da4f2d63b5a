package service

import (
	"context"
	"io"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItemService(f *fixture) *ItemService {
	logger := zerolog.New(io.Discard)
	svc := NewItemService(f.store, &logger)
	svc.now = func() time.Time { return baseTime }
	return svc
}

func TestItemService_AddAndUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	svc := newItemService(f)

	item, err := svc.AddItem(ctx, f.owner.ID, &models.Item{Name: "Saw", Description: "hand saw", Available: true})
	require.NoError(t, err)
	assert.Equal(t, f.owner.ID, item.OwnerID)

	_, err = svc.AddItem(ctx, 999, &models.Item{Name: "Saw", Description: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.AddItem(ctx, f.owner.ID, &models.Item{Name: " ", Description: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.AddItem(ctx, f.owner.ID, &models.Item{Name: "Saw", Description: "x", RequestID: 42})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	available := false
	updated, err := svc.UpdateItem(ctx, f.owner.ID, item.ID, models.ItemPatch{Available: &available})
	require.NoError(t, err)
	assert.False(t, updated.Available)
	assert.Equal(t, "Saw", updated.Name)

	_, err = svc.UpdateItem(ctx, f.booker.ID, item.ID, models.ItemPatch{Available: &available})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	blank := ""
	_, err = svc.UpdateItem(ctx, f.owner.ID, item.ID, models.ItemPatch{Name: &blank})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestItemService_GetItemBookingsForOwnerOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	svc := newItemService(f)

	last := f.book(t, f.booker.ID, baseTime.Add(-48*time.Hour), baseTime.Add(-24*time.Hour))
	next := f.book(t, f.booker.ID, baseTime.Add(24*time.Hour), baseTime.Add(48*time.Hour))
	later := f.book(t, f.other.ID, baseTime.Add(72*time.Hour), baseTime.Add(96*time.Hour))
	for _, b := range []*models.Booking{last, next, later} {
		_, err := f.svc.ApproveBooking(ctx, f.owner.ID, b.ID, true)
		require.NoError(t, err)
	}
	f.book(t, f.other.ID, baseTime.Add(2*time.Hour), baseTime.Add(3*time.Hour))

	details, err := svc.GetItem(ctx, f.owner.ID, f.item.ID)
	require.NoError(t, err)
	require.NotNil(t, details.LastBooking)
	require.NotNil(t, details.NextBooking)
	assert.Equal(t, last.ID, details.LastBooking.ID)
	assert.Equal(t, next.ID, details.NextBooking.ID)
	assert.Empty(t, details.Comments)

	details, err = svc.GetItem(ctx, f.booker.ID, f.item.ID)
	require.NoError(t, err)
	assert.Nil(t, details.LastBooking)
	assert.Nil(t, details.NextBooking)

	list, err := svc.ListOwnerItems(ctx, f.owner.ID, models.Page{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, next.ID, list[0].NextBooking.ID)
}

func TestItemService_Search(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	svc := newItemService(f)

	got, err := svc.SearchItems(ctx, "dRiLl", models.Page{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.SearchItems(ctx, "  ", models.Page{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestItemService_AddComment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	svc := newItemService(f)

	_, err := svc.AddComment(ctx, f.booker.ID, f.item.ID, "great")
	assert.ErrorIs(t, err, domain.ErrNotAvailable)

	finished := f.book(t, f.booker.ID, baseTime.Add(-48*time.Hour), baseTime.Add(-24*time.Hour))
	_, err = svc.AddComment(ctx, f.booker.ID, f.item.ID, "great")
	assert.ErrorIs(t, err, domain.ErrNotAvailable, "waiting booking does not count")

	_, err = f.svc.ApproveBooking(ctx, f.owner.ID, finished.ID, true)
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, f.booker.ID, f.item.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	c, err := svc.AddComment(ctx, f.booker.ID, f.item.ID, "great")
	require.NoError(t, err)
	assert.Equal(t, "booker", c.AuthorName)

	details, err := svc.GetItem(ctx, f.other.ID, f.item.ID)
	require.NoError(t, err)
	require.Len(t, details.Comments, 1)
	assert.Equal(t, "great", details.Comments[0].Text)
}

func TestItemService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	svc := newItemService(f)

	assert.ErrorIs(t, svc.DeleteItem(ctx, f.booker.ID, f.item.ID), domain.ErrNotFound)
	require.NoError(t, svc.DeleteItem(ctx, f.owner.ID, f.item.ID))
	_, err := svc.GetItem(ctx, f.owner.ID, f.item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
