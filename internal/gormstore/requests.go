package gormstore

import (
	"context"
	"fmt"

	"shareit/internal/models"

	"gorm.io/gorm"
)

func (s *Store) CreateRequest(ctx context.Context, req *models.ItemRequest) error {
	row := requestRow{RequesterID: req.RequesterID, Description: req.Description, Created: req.Created.UTC()}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.ID = row.ID
	return nil
}

func (s *Store) GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	var row requestRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "request", id)
	}
	return row.toModel(), nil
}

func (s *Store) GetRequestsByRequester(ctx context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error) {
	return findRequests(paged(s.db.WithContext(ctx).Where("requester_id = ?", requesterID), page))
}

func (s *Store) GetRequestsExcept(ctx context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error) {
	return findRequests(paged(s.db.WithContext(ctx).Where("requester_id <> ?", requesterID), page))
}

func findRequests(q *gorm.DB) ([]*models.ItemRequest, error) {
	var rows []requestRow
	if err := q.Order("created DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	out := make([]*models.ItemRequest, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}
