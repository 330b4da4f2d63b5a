package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

// MemoryStore keeps every entity in process memory. It implements
// domain.Repository and is used for tests and the "memory" database driver.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[int64]*models.User
	items    map[int64]*models.Item
	bookings map[int64]*models.Booking
	comments map[int64]*models.Comment
	requests map[int64]*models.ItemRequest

	userSeq, itemSeq, bookingSeq, commentSeq, requestSeq atomic.Int64
}

var _ domain.Repository = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]*models.User),
		items:    make(map[int64]*models.Item),
		bookings: make(map[int64]*models.Booking),
		comments: make(map[int64]*models.Comment),
		requests: make(map[int64]*models.ItemRequest),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(user.Email, 0) {
		return fmt.Errorf("email %s: %w", user.Email, domain.ErrAlreadyExists)
	}
	user.ID = s.userSeq.Add(1)
	user.CreatedAt = time.Now().UTC()
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[user.ID]
	if !ok {
		return fmt.Errorf("user %d: %w", user.ID, domain.ErrNotFound)
	}
	if s.emailTaken(user.Email, user.ID) {
		return fmt.Errorf("email %s: %w", user.Email, domain.ErrAlreadyExists)
	}
	stored.Name = user.Name
	stored.Email = user.Email
	return nil
}

// emailTaken mirrors the SQL unique index: emails compare byte for byte.
func (s *MemoryStore) emailTaken(email string, exceptID int64) bool {
	for id, u := range s.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (s *MemoryStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	out := *u
	return &out, nil
}

func (s *MemoryStore) GetAllUsers(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		out := *u
		users = append(users, &out)
	}
	slices.SortFunc(users, func(a, b *models.User) int { return cmp.Compare(a.ID, b.ID) })
	return users, nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	delete(s.users, id)

	for itemID, item := range s.items {
		if item.OwnerID == id {
			s.deleteItemLocked(itemID)
		}
	}
	for bookingID, b := range s.bookings {
		if b.BookerID == id {
			delete(s.bookings, bookingID)
		}
	}
	for commentID, c := range s.comments {
		if c.AuthorID == id {
			delete(s.comments, commentID)
		}
	}
	for requestID, r := range s.requests {
		if r.RequesterID != id {
			continue
		}
		delete(s.requests, requestID)
		for _, item := range s.items {
			if item.RequestID == requestID {
				item.RequestID = 0
			}
		}
	}
	return nil
}

func (s *MemoryStore) UserExists(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok, nil
}

func (s *MemoryStore) CreateItem(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[item.OwnerID]; !ok {
		return fmt.Errorf("owner %d: %w", item.OwnerID, domain.ErrNotFound)
	}
	item.ID = s.itemSeq.Add(1)
	item.CreatedAt = time.Now().UTC()
	stored := *item
	s.items[item.ID] = &stored
	return nil
}

func (s *MemoryStore) UpdateItem(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[item.ID]
	if !ok {
		return fmt.Errorf("item %d: %w", item.ID, domain.ErrNotFound)
	}
	stored.Name = item.Name
	stored.Description = item.Description
	stored.Available = item.Available
	return nil
}

func (s *MemoryStore) GetItemByID(_ context.Context, id int64) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	out := *item
	return &out, nil
}

func (s *MemoryStore) GetItemsByOwner(_ context.Context, ownerID int64, page models.Page) ([]*models.Item, error) {
	return s.selectItems(page, func(item *models.Item) bool { return item.OwnerID == ownerID }), nil
}

func (s *MemoryStore) SearchItems(_ context.Context, text string, page models.Page) ([]*models.Item, error) {
	needle := strings.ToLower(text)
	return s.selectItems(page, func(item *models.Item) bool {
		return item.Available &&
			(strings.Contains(strings.ToLower(item.Name), needle) ||
				strings.Contains(strings.ToLower(item.Description), needle))
	}), nil
}

func (s *MemoryStore) GetItemsByRequests(_ context.Context, requestIDs []int64) ([]*models.Item, error) {
	return s.selectItems(models.Page{}, func(item *models.Item) bool {
		return item.RequestID != 0 && slices.Contains(requestIDs, item.RequestID)
	}), nil
}

func (s *MemoryStore) selectItems(page models.Page, keep func(*models.Item) bool) []*models.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*models.Item, 0)
	for _, item := range s.items {
		if keep(item) {
			out := *item
			items = append(items, &out)
		}
	}
	slices.SortFunc(items, func(a, b *models.Item) int { return cmp.Compare(a.ID, b.ID) })
	return paginate(items, page)
}

func (s *MemoryStore) DeleteItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	s.deleteItemLocked(id)
	return nil
}

func (s *MemoryStore) deleteItemLocked(id int64) {
	delete(s.items, id)
	for bookingID, b := range s.bookings {
		if b.ItemID == id {
			delete(s.bookings, bookingID)
		}
	}
	for commentID, c := range s.comments {
		if c.ItemID == id {
			delete(s.comments, commentID)
		}
	}
}

func (s *MemoryStore) CreateBookingIfFree(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[booking.ItemID]
	if !ok {
		return fmt.Errorf("item %d: %w", booking.ItemID, domain.ErrNotFound)
	}
	if _, ok := s.users[booking.BookerID]; !ok {
		return fmt.Errorf("user %d: %w", booking.BookerID, domain.ErrNotFound)
	}

	for _, existing := range s.bookings {
		if existing.ItemID == booking.ItemID && existing.Status.BlocksItem() &&
			existing.Overlaps(booking.Start, booking.End) {
			return fmt.Errorf("item %d is booked for the requested window: %w", booking.ItemID, domain.ErrNotAvailable)
		}
	}

	now := time.Now().UTC()
	booking.ID = s.bookingSeq.Add(1)
	booking.OwnerID = item.OwnerID
	booking.CreatedAt = now
	booking.UpdatedAt = now
	stored := *booking
	s.bookings[booking.ID] = &stored
	return nil
}

func (s *MemoryStore) GetBooking(_ context.Context, id int64) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	return s.decorate(b), nil
}

func (s *MemoryStore) UpdateBookingStatus(_ context.Context, id int64, from, to models.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	if b.Status != from {
		return fmt.Errorf("booking %d is no longer %s: %w", id, from, domain.ErrNotAvailable)
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) FindBookings(_ context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := make([]*models.Booking, 0)
	for _, b := range s.bookings {
		out := s.decorate(b)
		if filter.Match(out) {
			bookings = append(bookings, out)
		}
	}

	slices.SortFunc(bookings, func(a, b *models.Booking) int {
		c := a.Start.Compare(b.Start)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if filter.Ascending {
			return c
		}
		return -c
	})
	return paginate(bookings, filter.Page), nil
}

// decorate returns a copy of b with names resolved from the current users and items.
func (s *MemoryStore) decorate(b *models.Booking) *models.Booking {
	out := *b
	if item, ok := s.items[b.ItemID]; ok {
		out.ItemName = item.Name
		out.OwnerID = item.OwnerID
	}
	if u, ok := s.users[b.BookerID]; ok {
		out.BookerName = u.Name
	}
	return &out
}

func (s *MemoryStore) CreateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.Created.IsZero() {
		comment.Created = time.Now().UTC()
	}
	comment.ID = s.commentSeq.Add(1)
	stored := *comment
	s.comments[comment.ID] = &stored
	return nil
}

func (s *MemoryStore) GetCommentsByItems(_ context.Context, itemIDs []int64) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]*models.Comment, 0)
	for _, c := range s.comments {
		if !slices.Contains(itemIDs, c.ItemID) {
			continue
		}
		out := *c
		if u, ok := s.users[c.AuthorID]; ok {
			out.AuthorName = u.Name
		}
		comments = append(comments, &out)
	}
	slices.SortFunc(comments, func(a, b *models.Comment) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return comments, nil
}

func (s *MemoryStore) CreateRequest(_ context.Context, req *models.ItemRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Created.IsZero() {
		req.Created = time.Now().UTC()
	}
	req.ID = s.requestSeq.Add(1)
	stored := *req
	s.requests[req.ID] = &stored
	return nil
}

func (s *MemoryStore) GetRequestByID(_ context.Context, id int64) (*models.ItemRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %d: %w", id, domain.ErrNotFound)
	}
	out := *r
	return &out, nil
}

func (s *MemoryStore) GetRequestsByRequester(_ context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error) {
	return s.selectRequests(page, func(r *models.ItemRequest) bool { return r.RequesterID == requesterID }), nil
}

func (s *MemoryStore) GetRequestsExcept(_ context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error) {
	return s.selectRequests(page, func(r *models.ItemRequest) bool { return r.RequesterID != requesterID }), nil
}

func (s *MemoryStore) selectRequests(page models.Page, keep func(*models.ItemRequest) bool) []*models.ItemRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requests := make([]*models.ItemRequest, 0)
	for _, r := range s.requests {
		if keep(r) {
			out := *r
			requests = append(requests, &out)
		}
	}
	slices.SortFunc(requests, func(a, b *models.ItemRequest) int {
		if c := b.Created.Compare(a.Created); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return paginate(requests, page)
}

func paginate[T any](rows []T, page models.Page) []T {
	if page.Unpaged() {
		return rows
	}
	offset := page.Offset()
	if offset >= len(rows) {
		return rows[:0]
	}
	end := min(offset+page.Limit(), len(rows))
	return rows[offset:end]
}
