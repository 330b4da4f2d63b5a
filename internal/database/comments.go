package database

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/models"
)

func (db *DB) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.Created.IsZero() {
		comment.Created = time.Now()
	}
	comment.Created = utc(comment.Created)

	result, err := db.ExecContext(ctx,
		`INSERT INTO comments (item_id, author_id, text, created) VALUES (?, ?, ?, ?)`,
		comment.ItemID, comment.AuthorID, comment.Text, comment.Created)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	comment.ID = id
	return nil
}

func (db *DB) GetCommentsByItems(ctx context.Context, itemIDs []int64) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	if len(itemIDs) == 0 {
		return comments, nil
	}

	placeholders, args := inClause(itemIDs)
	rows, err := db.QueryContext(ctx,
		`SELECT c.id, c.item_id, c.author_id, u.name, c.text, c.created
         FROM comments c JOIN users u ON u.id = c.author_id
         WHERE c.item_id IN (`+placeholders+`)
         ORDER BY c.created, c.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c := &models.Comment{}
		if err := rows.Scan(&c.ID, &c.ItemID, &c.AuthorID, &c.AuthorName, &c.Text, &c.Created); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
