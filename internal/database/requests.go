package database

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/models"
)

func (db *DB) CreateRequest(ctx context.Context, req *models.ItemRequest) error {
	if req.Created.IsZero() {
		req.Created = time.Now()
	}
	req.Created = utc(req.Created)

	result, err := db.ExecContext(ctx,
		`INSERT INTO requests (requester_id, description, created) VALUES (?, ?, ?)`,
		req.RequesterID, req.Description, req.Created)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	req.ID = id
	return nil
}

func (db *DB) GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	var req models.ItemRequest
	err := db.QueryRowContext(ctx,
		`SELECT id, requester_id, description, created FROM requests WHERE id = ?`, id,
	).Scan(&req.ID, &req.RequesterID, &req.Description, &req.Created)
	if err != nil {
		return nil, notFound(err, "request", id)
	}
	return &req, nil
}

func (db *DB) GetRequestsByRequester(ctx context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error) {
	query, args := withPage(
		`SELECT id, requester_id, description, created FROM requests
         WHERE requester_id = ? ORDER BY created DESC, id DESC`,
		[]any{requesterID}, page)
	return db.queryRequests(ctx, query, args...)
}

func (db *DB) GetRequestsExcept(ctx context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error) {
	query, args := withPage(
		`SELECT id, requester_id, description, created FROM requests
         WHERE requester_id <> ? ORDER BY created DESC, id DESC`,
		[]any{requesterID}, page)
	return db.queryRequests(ctx, query, args...)
}

func (db *DB) queryRequests(ctx context.Context, query string, args ...any) ([]*models.ItemRequest, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.ItemRequest, 0)
	for rows.Next() {
		r := &models.ItemRequest{}
		if err := rows.Scan(&r.ID, &r.RequesterID, &r.Description, &r.Created); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}
