package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	now    func() time.Time
}

var _ domain.ItemService = (*ItemService)(nil)

func NewItemService(repo domain.Repository, logger *zerolog.Logger) *ItemService {
	return &ItemService{repo: repo, logger: logger, now: time.Now}
}

func (s *ItemService) AddItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(item.Name) == "" || strings.TrimSpace(item.Description) == "" {
		return nil, fmt.Errorf("%w: name and description are required", domain.ErrValidation)
	}
	if item.RequestID != 0 {
		if _, err := s.repo.GetRequestByID(ctx, item.RequestID); err != nil {
			return nil, err
		}
	}

	item.OwnerID = ownerID
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("item_id", item.ID).Int64("user_id", ownerID).Msg("item created")
	return item, nil
}

func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error) {
	item, err := s.ownedItem(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	patch.Apply(item)
	if strings.TrimSpace(item.Name) == "" || strings.TrimSpace(item.Description) == "" {
		return nil, fmt.Errorf("%w: name and description must not be blank", domain.ErrValidation)
	}
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemService) GetItem(ctx context.Context, userID, itemID int64) (*models.ItemDetails, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	details, err := s.describe(ctx, []*models.Item{item}, item.OwnerID == userID)
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

func (s *ItemService) ListOwnerItems(ctx context.Context, ownerID int64, page models.Page) ([]*models.ItemDetails, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	items, err := s.repo.GetItemsByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, items, true)
}

func (s *ItemService) SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error) {
	if strings.TrimSpace(text) == "" {
		return []*models.Item{}, nil
	}
	return s.repo.SearchItems(ctx, text, page)
}

func (s *ItemService) DeleteItem(ctx context.Context, ownerID, itemID int64) error {
	if _, err := s.ownedItem(ctx, ownerID, itemID); err != nil {
		return err
	}
	return s.repo.DeleteItem(ctx, itemID)
}

// AddComment lets a user review an item they have actually used: an approved
// booking of that item must have ended before now.
func (s *ItemService) AddComment(ctx context.Context, userID, itemID int64, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", domain.ErrValidation)
	}
	author, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetItemByID(ctx, itemID); err != nil {
		return nil, err
	}

	now := s.now()
	finished, err := s.repo.FindBookings(ctx, models.BookingFilter{
		BookerID:  userID,
		ItemIDs:   []int64{itemID},
		Statuses:  []models.BookingStatus{models.StatusApproved},
		EndBefore: now,
		Page:      models.Page{Size: 1},
	})
	if err != nil {
		return nil, err
	}
	if len(finished) == 0 {
		return nil, fmt.Errorf("user %d has no finished booking of item %d: %w", userID, itemID, domain.ErrNotAvailable)
	}

	comment := &models.Comment{
		ItemID:     itemID,
		AuthorID:   userID,
		AuthorName: author.Name,
		Text:       text,
		Created:    now,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *ItemService) ownedItem(ctx context.Context, ownerID, itemID int64) (*models.Item, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, fmt.Errorf("item %d is not owned by user %d: %w", itemID, ownerID, domain.ErrForbidden)
	}
	return item, nil
}

// describe attaches comments to every item and, when withBookings is set, the
// last and next approved bookings relative to now.
func (s *ItemService) describe(ctx context.Context, items []*models.Item, withBookings bool) ([]*models.ItemDetails, error) {
	out := make([]*models.ItemDetails, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}

	ids := make([]int64, len(items))
	byID := make(map[int64]*models.ItemDetails, len(items))
	for i, item := range items {
		ids[i] = item.ID
		d := &models.ItemDetails{Item: *item, Comments: []*models.Comment{}}
		byID[item.ID] = d
		out = append(out, d)
	}

	comments, err := s.repo.GetCommentsByItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		if d, ok := byID[c.ItemID]; ok {
			d.Comments = append(d.Comments, c)
		}
	}

	if !withBookings {
		return out, nil
	}

	now := s.now()
	approved, err := s.repo.FindBookings(ctx, models.BookingFilter{
		ItemIDs:  ids,
		Statuses: []models.BookingStatus{models.StatusApproved},
	})
	if err != nil {
		return nil, err
	}
	// approved is ordered by start descending.
	for _, b := range approved {
		d := byID[b.ItemID]
		if d == nil {
			continue
		}
		if b.Start.After(now) {
			d.NextBooking = b
		} else if d.LastBooking == nil {
			d.LastBooking = b
		}
	}
	return out, nil
}
