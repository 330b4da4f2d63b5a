// Package storetest holds behavioural tests shared by every domain.Repository backend.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty repository. Cleanup is the factory's job.
type Factory func(t *testing.T) domain.Repository

// Run executes the whole suite against repositories built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newRepo(t)) })
	t.Run("Items", func(t *testing.T) { testItems(t, newRepo(t)) })
	t.Run("Bookings", func(t *testing.T) { testBookings(t, newRepo(t)) })
	t.Run("BookingFilters", func(t *testing.T) { testBookingFilters(t, newRepo(t)) })
	t.Run("ConcurrentBookings", func(t *testing.T) { testConcurrentBookings(t, newRepo(t)) })
	t.Run("Comments", func(t *testing.T) { testComments(t, newRepo(t)) })
	t.Run("Requests", func(t *testing.T) { testRequests(t, newRepo(t)) })
	t.Run("Cascade", func(t *testing.T) { testCascade(t, newRepo(t)) })
}

var base = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

func mustUser(t *testing.T, repo domain.Repository, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com"}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

func mustItem(t *testing.T, repo domain.Repository, owner *models.User, name string, available bool) *models.Item {
	t.Helper()
	item := &models.Item{OwnerID: owner.ID, Name: name, Description: name + " description", Available: available}
	require.NoError(t, repo.CreateItem(context.Background(), item))
	require.NotZero(t, item.ID)
	return item
}

func mustBooking(t *testing.T, repo domain.Repository, item *models.Item, booker *models.User,
	start, end time.Time, status models.BookingStatus,
) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ItemID:     item.ID,
		ItemName:   item.Name,
		OwnerID:    item.OwnerID,
		BookerID:   booker.ID,
		BookerName: booker.Name,
		Start:      start,
		End:        end,
		Status:     status,
	}
	require.NoError(t, repo.CreateBookingIfFree(context.Background(), b))
	require.NotZero(t, b.ID)
	return b
}

func ids(bookings []*models.Booking) []int64 {
	out := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.ID)
	}
	return out
}

func testUsers(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	ann := mustUser(t, repo, "ann")
	bob := mustUser(t, repo, "bob")

	err := repo.CreateUser(ctx, &models.User{Name: "other", Email: "ann@example.com"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	got, err := repo.GetUserByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann", got.Name)
	assert.Equal(t, "ann@example.com", got.Email)

	_, err = repo.GetUserByID(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	bob.Name = "robert"
	require.NoError(t, repo.UpdateUser(ctx, bob))
	got, err = repo.GetUserByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "robert", got.Name)

	bob.Email = ann.Email
	assert.ErrorIs(t, repo.UpdateUser(ctx, bob), domain.ErrAlreadyExists)
	assert.ErrorIs(t, repo.UpdateUser(ctx, &models.User{ID: 9999, Name: "x", Email: "x@example.com"}), domain.ErrNotFound)

	users, err := repo.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, ann.ID, users[0].ID)
	assert.Equal(t, bob.ID, users[1].ID)

	exists, err := repo.UserExists(ctx, ann.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.DeleteUser(ctx, ann.ID))
	exists, err = repo.UserExists(ctx, ann.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.ErrorIs(t, repo.DeleteUser(ctx, ann.ID), domain.ErrNotFound)

	// Stores compare emails byte for byte; case folding happens in the service.
	require.NoError(t, repo.CreateUser(ctx, &models.User{Name: "loud", Email: "BOB@example.com"}))
}

func testItems(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	owner := mustUser(t, repo, "owner")
	other := mustUser(t, repo, "other")

	drill := mustItem(t, repo, owner, "Drill", true)
	saw := mustItem(t, repo, owner, "Saw", false)
	mustItem(t, repo, other, "Ladder", true)

	got, err := repo.GetItemByID(ctx, drill.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drill", got.Name)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.True(t, got.Available)
	assert.Zero(t, got.RequestID)

	_, err = repo.GetItemByID(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	saw.Available = true
	saw.Description = "Cordless DRILL-free saw"
	require.NoError(t, repo.UpdateItem(ctx, saw))
	assert.ErrorIs(t, repo.UpdateItem(ctx, &models.Item{ID: 9999}), domain.ErrNotFound)

	owned, err := repo.GetItemsByOwner(ctx, owner.ID, models.Page{})
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, drill.ID, owned[0].ID)
	assert.Equal(t, saw.ID, owned[1].ID)

	paged, err := repo.GetItemsByOwner(ctx, owner.ID, models.Page{From: 1, Size: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, saw.ID, paged[0].ID)

	found, err := repo.SearchItems(ctx, "drill", models.Page{})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, drill.ID, found[0].ID)
	assert.Equal(t, saw.ID, found[1].ID)

	saw.Available = false
	require.NoError(t, repo.UpdateItem(ctx, saw))
	found, err = repo.SearchItems(ctx, "DRILL", models.Page{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, drill.ID, found[0].ID)

	require.NoError(t, repo.DeleteItem(ctx, saw.ID))
	assert.ErrorIs(t, repo.DeleteItem(ctx, saw.ID), domain.ErrNotFound)
	_, err = repo.GetItemByID(ctx, saw.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testBookings(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	owner := mustUser(t, repo, "owner")
	booker := mustUser(t, repo, "booker")
	item := mustItem(t, repo, owner, "Tent", true)

	first := mustBooking(t, repo, item, booker, base.Add(24*time.Hour), base.Add(48*time.Hour), models.StatusWaiting)

	got, err := repo.GetBooking(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ItemID)
	assert.Equal(t, "Tent", got.ItemName)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, booker.ID, got.BookerID)
	assert.Equal(t, "booker", got.BookerName)
	assert.True(t, got.Start.Equal(first.Start))
	assert.True(t, got.End.Equal(first.End))
	assert.Equal(t, models.StatusWaiting, got.Status)

	_, err = repo.GetBooking(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	overlapping := &models.Booking{
		ItemID: item.ID, OwnerID: owner.ID, BookerID: booker.ID,
		Start: base.Add(36 * time.Hour), End: base.Add(60 * time.Hour), Status: models.StatusWaiting,
	}
	assert.ErrorIs(t, repo.CreateBookingIfFree(ctx, overlapping), domain.ErrNotAvailable)

	// Touching windows do not overlap.
	mustBooking(t, repo, item, booker, base.Add(48*time.Hour), base.Add(72*time.Hour), models.StatusWaiting)

	require.NoError(t, repo.UpdateBookingStatus(ctx, first.ID, models.StatusWaiting, models.StatusRejected))
	got, err = repo.GetBooking(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)

	err = repo.UpdateBookingStatus(ctx, first.ID, models.StatusWaiting, models.StatusApproved)
	assert.ErrorIs(t, err, domain.ErrNotAvailable)
	err = repo.UpdateBookingStatus(ctx, 9999, models.StatusWaiting, models.StatusApproved)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A rejected booking no longer blocks its window.
	mustBooking(t, repo, item, booker, base.Add(30*time.Hour), base.Add(40*time.Hour), models.StatusWaiting)
}

func testBookingFilters(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	owner := mustUser(t, repo, "owner")
	booker := mustUser(t, repo, "booker")
	other := mustUser(t, repo, "other")
	tent := mustItem(t, repo, owner, "Tent", true)
	kayak := mustItem(t, repo, owner, "Kayak", true)
	bike := mustItem(t, repo, other, "Bike", true)

	now := base
	past := mustBooking(t, repo, tent, booker, now.Add(-72*time.Hour), now.Add(-48*time.Hour), models.StatusWaiting)
	current := mustBooking(t, repo, kayak, booker, now.Add(-time.Hour), now.Add(time.Hour), models.StatusWaiting)
	future := mustBooking(t, repo, tent, booker, now.Add(24*time.Hour), now.Add(48*time.Hour), models.StatusWaiting)
	foreign := mustBooking(t, repo, bike, owner, now.Add(2*time.Hour), now.Add(3*time.Hour), models.StatusWaiting)

	require.NoError(t, repo.UpdateBookingStatus(ctx, past.ID, models.StatusWaiting, models.StatusApproved))
	require.NoError(t, repo.UpdateBookingStatus(ctx, current.ID, models.StatusWaiting, models.StatusRejected))

	find := func(f models.BookingFilter) []int64 {
		t.Helper()
		got, err := repo.FindBookings(ctx, f)
		require.NoError(t, err)
		for i := 1; i < len(got); i++ {
			if f.Ascending {
				assert.False(t, got[i-1].Start.After(got[i].Start))
			} else {
				assert.False(t, got[i-1].Start.Before(got[i].Start))
			}
		}
		return ids(got)
	}

	byBooker := func(state models.BookingState) models.BookingFilter {
		f := models.ForState(state, now)
		f.BookerID = booker.ID
		return f
	}

	assert.Equal(t, []int64{future.ID, current.ID, past.ID}, find(byBooker(models.StateAll)))
	assert.Equal(t, []int64{current.ID}, find(byBooker(models.StateCurrent)))
	assert.Equal(t, []int64{past.ID}, find(byBooker(models.StatePast)))
	assert.Equal(t, []int64{future.ID}, find(byBooker(models.StateFuture)))
	assert.Equal(t, []int64{future.ID}, find(byBooker(models.StateWaiting)))
	assert.Equal(t, []int64{current.ID}, find(byBooker(models.StateRejected)))

	byOwner := models.ForState(models.StateAll, now)
	byOwner.OwnerID = owner.ID
	assert.Equal(t, []int64{future.ID, current.ID, past.ID}, find(byOwner))

	byOwner.OwnerID = other.ID
	assert.Equal(t, []int64{foreign.ID}, find(byOwner))

	paged := byBooker(models.StateAll)
	paged.Page = models.Page{From: 2, Size: 2}
	assert.Equal(t, []int64{past.ID}, find(paged))

	last := models.BookingFilter{
		ItemIDs:       []int64{tent.ID},
		Statuses:      []models.BookingStatus{models.StatusApproved},
		StartNotAfter: now,
		Page:          models.Page{Size: 1},
	}
	assert.Equal(t, []int64{past.ID}, find(last))

	next := models.BookingFilter{
		ItemIDs:    []int64{tent.ID, kayak.ID},
		StartAfter: now,
		Ascending:  true,
	}
	assert.Equal(t, []int64{future.ID}, find(next))

	empty, err := repo.FindBookings(ctx, models.BookingFilter{BookerID: 9999})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func testConcurrentBookings(t *testing.T, repo domain.Repository) {
	owner := mustUser(t, repo, "owner")
	booker := mustUser(t, repo, "booker")
	item := mustItem(t, repo, owner, "Boat", true)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := &models.Booking{
				ItemID:   item.ID,
				OwnerID:  owner.ID,
				BookerID: booker.ID,
				Start:    base.Add(time.Duration(i) * time.Minute),
				End:      base.Add(24 * time.Hour),
				Status:   models.StatusWaiting,
			}
			if err := repo.CreateBookingIfFree(context.Background(), b); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, domain.ErrNotAvailable)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func testComments(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	owner := mustUser(t, repo, "owner")
	author := mustUser(t, repo, "author")
	tent := mustItem(t, repo, owner, "Tent", true)
	kayak := mustItem(t, repo, owner, "Kayak", true)

	later := &models.Comment{ItemID: tent.ID, AuthorID: author.ID, Text: "second", Created: base.Add(time.Hour)}
	earlier := &models.Comment{ItemID: tent.ID, AuthorID: author.ID, Text: "first", Created: base}
	other := &models.Comment{ItemID: kayak.ID, AuthorID: author.ID, Text: "kayak", Created: base}
	for _, c := range []*models.Comment{later, earlier, other} {
		require.NoError(t, repo.CreateComment(ctx, c))
		require.NotZero(t, c.ID)
	}

	comments, err := repo.GetCommentsByItems(ctx, []int64{tent.ID})
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "second", comments[1].Text)
	assert.Equal(t, "author", comments[0].AuthorName)
	assert.True(t, comments[0].Created.Equal(base))

	comments, err = repo.GetCommentsByItems(ctx, []int64{tent.ID, kayak.ID})
	require.NoError(t, err)
	assert.Len(t, comments, 3)

	comments, err = repo.GetCommentsByItems(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func testRequests(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	ann := mustUser(t, repo, "ann")
	bob := mustUser(t, repo, "bob")

	older := &models.ItemRequest{RequesterID: ann.ID, Description: "need a tent", Created: base}
	newer := &models.ItemRequest{RequesterID: ann.ID, Description: "need a stove", Created: base.Add(time.Hour)}
	bobs := &models.ItemRequest{RequesterID: bob.ID, Description: "need a bike", Created: base.Add(2 * time.Hour)}
	for _, r := range []*models.ItemRequest{older, newer, bobs} {
		require.NoError(t, repo.CreateRequest(ctx, r))
		require.NotZero(t, r.ID)
	}

	got, err := repo.GetRequestByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "need a tent", got.Description)
	assert.Equal(t, ann.ID, got.RequesterID)
	assert.True(t, got.Created.Equal(base))

	_, err = repo.GetRequestByID(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	own, err := repo.GetRequestsByRequester(ctx, ann.ID, models.Page{})
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, newer.ID, own[0].ID)
	assert.Equal(t, older.ID, own[1].ID)

	others, err := repo.GetRequestsExcept(ctx, ann.ID, models.Page{From: 0, Size: 10})
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, bobs.ID, others[0].ID)

	answer := &models.Item{OwnerID: bob.ID, Name: "Tent", Description: "2 person", Available: true, RequestID: older.ID}
	require.NoError(t, repo.CreateItem(ctx, answer))
	mustItem(t, repo, bob, "Unrelated", true)

	answers, err := repo.GetItemsByRequests(ctx, []int64{older.ID, newer.ID})
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, answer.ID, answers[0].ID)
	assert.Equal(t, older.ID, answers[0].RequestID)
}

func testCascade(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	owner := mustUser(t, repo, "owner")
	booker := mustUser(t, repo, "booker")
	item := mustItem(t, repo, owner, "Tent", true)
	b := mustBooking(t, repo, item, booker, base, base.Add(time.Hour), models.StatusWaiting)
	require.NoError(t, repo.CreateComment(ctx, &models.Comment{ItemID: item.ID, AuthorID: booker.ID, Text: "ok", Created: base}))

	require.NoError(t, repo.DeleteItem(ctx, item.ID))
	_, err := repo.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	comments, err := repo.GetCommentsByItems(ctx, []int64{item.ID})
	require.NoError(t, err)
	assert.Empty(t, comments)

	other := mustItem(t, repo, owner, "Kayak", true)
	require.NoError(t, repo.DeleteUser(ctx, owner.ID))
	_, err = repo.GetItemByID(ctx, other.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
