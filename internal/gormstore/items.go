package gormstore

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"gorm.io/gorm"
)

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	row := itemRow{
		OwnerID:     item.OwnerID,
		Name:        item.Name,
		Description: item.Description,
		Available:   item.Available,
		RequestID:   requestRef(item.RequestID),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	item.ID = row.ID
	item.CreatedAt = row.CreatedAt
	return nil
}

func (s *Store) UpdateItem(ctx context.Context, item *models.Item) error {
	res := s.db.WithContext(ctx).
		Model(&itemRow{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"name":        item.Name,
			"description": item.Description,
			"available":   item.Available,
			"request_id":  requestRef(item.RequestID),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("item %d: %w", item.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	var row itemRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "item", id)
	}
	return row.toModel(), nil
}

func (s *Store) GetItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error) {
	q := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id")
	return findItems(paged(q, page))
}

// SearchItems matches available items whose name or description contains
// text, ignoring case.
func (s *Store) SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error) {
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	q := s.db.WithContext(ctx).
		Where("available = ?", true).
		Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", pattern, pattern).
		Order("id")
	return findItems(paged(q, page))
}

func (s *Store) GetItemsByRequests(ctx context.Context, requestIDs []int64) ([]*models.Item, error) {
	if len(requestIDs) == 0 {
		return []*models.Item{}, nil
	}
	return findItems(s.db.WithContext(ctx).Where("request_id IN ?", requestIDs).Order("id"))
}

func findItems(q *gorm.DB) ([]*models.Item, error) {
	var rows []itemRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	items := make([]*models.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toModel())
	}
	return items, nil
}

func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&itemRow{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
		}
		if err := tx.Where("item_id = ?", id).Delete(&bookingRow{}).Error; err != nil {
			return fmt.Errorf("failed to delete item bookings: %w", err)
		}
		if err := tx.Where("item_id = ?", id).Delete(&commentRow{}).Error; err != nil {
			return fmt.Errorf("failed to delete item comments: %w", err)
		}
		return nil
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
