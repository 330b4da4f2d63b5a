package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const itemColumns = `id, owner_id, name, description, available, request_id, created_at`

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (owner_id, name, description, available, request_id, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		item.OwnerID, item.Name, item.Description, item.Available, nullableID(item.RequestID), now)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	return nil
}

func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, available = ? WHERE id = ?`,
		item.Name, item.Description, item.Available, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("item %d: %w", item.ID, domain.ErrNotFound)
	}
	return nil
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err != nil {
		return nil, notFound(err, "item", id)
	}
	return item, nil
}

func (db *DB) GetItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id = ? ORDER BY id`
	args := []any{ownerID}
	query, args = withPage(query, args, page)
	return db.queryItems(ctx, query, args...)
}

func (db *DB) SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error) {
	needle := strings.ToLower(text)
	query := `SELECT ` + itemColumns + ` FROM items
              WHERE available = 1 AND (instr(lower(name), ?) > 0 OR instr(lower(description), ?) > 0)
              ORDER BY id`
	args := []any{needle, needle}
	query, args = withPage(query, args, page)
	return db.queryItems(ctx, query, args...)
}

func (db *DB) GetItemsByRequests(ctx context.Context, requestIDs []int64) ([]*models.Item, error) {
	if len(requestIDs) == 0 {
		return []*models.Item{}, nil
	}
	placeholders, args := inClause(requestIDs)
	query := `SELECT ` + itemColumns + ` FROM items WHERE request_id IN (` + placeholders + `) ORDER BY id`
	return db.queryItems(ctx, query, args...)
}

func (db *DB) DeleteItem(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (db *DB) queryItems(ctx context.Context, query string, args ...any) ([]*models.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.Item, error) {
	var (
		item      models.Item
		requestID sql.NullInt64
	)
	if err := s.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Description,
		&item.Available, &requestID, &item.CreatedAt); err != nil {
		return nil, err
	}
	item.RequestID = requestID.Int64
	return &item, nil
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func withPage(query string, args []any, page models.Page) (string, []any) {
	if page.Unpaged() {
		return query, args
	}
	return query + ` LIMIT ? OFFSET ?`, append(args, page.Limit(), page.Offset())
}
