package gormstore

import (
	"context"
	"fmt"

	"shareit/internal/models"
)

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	row := commentRow{
		ItemID:   comment.ItemID,
		AuthorID: comment.AuthorID,
		Text:     comment.Text,
		Created:  comment.Created.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	comment.ID = row.ID
	return nil
}

func (s *Store) GetCommentsByItems(ctx context.Context, itemIDs []int64) ([]*models.Comment, error) {
	if len(itemIDs) == 0 {
		return []*models.Comment{}, nil
	}

	var views []commentView
	err := s.db.WithContext(ctx).
		Table("comments AS c").
		Select("c.id, c.item_id, c.author_id, c.text, c.created, u.name AS author_name").
		Joins("JOIN users u ON u.id = c.author_id").
		Where("c.item_id IN ?", itemIDs).
		Order("c.created, c.id").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	comments := make([]*models.Comment, 0, len(views))
	for i := range views {
		comments = append(comments, views[i].toModel())
	}
	return comments, nil
}
