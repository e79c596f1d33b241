package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sharekeep/internal/models"
)

func (db *DB) CreateRequest(ctx context.Context, req *models.ItemRequest) error {
	query := `INSERT INTO requests (description, requestor_id, created) VALUES (?, ?, ?)`
	result, err := db.ExecContext(ctx, query, req.Description, req.RequestorID, req.Created.UTC())
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

func (db *DB) GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error) {
	query := `SELECT id, description, requestor_id, created FROM requests WHERE id = ?`
	var req models.ItemRequest
	err := db.QueryRowContext(ctx, query, id).Scan(&req.ID, &req.Description, &req.RequestorID, &req.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return &req, nil
}

func (db *DB) ListRequests(ctx context.Context, offset, limit int) ([]models.ItemRequest, error) {
	query := `SELECT id, description, requestor_id, created FROM requests
              ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`
	return db.queryRequests(ctx, query, limit, offset)
}

func (db *DB) ListRequestsByRequestor(ctx context.Context, requestorID int64, offset, limit int) ([]models.ItemRequest, error) {
	query := `SELECT id, description, requestor_id, created FROM requests
              WHERE requestor_id = ? ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`
	return db.queryRequests(ctx, query, requestorID, limit, offset)
}

func (db *DB) queryRequests(ctx context.Context, query string, args ...interface{}) ([]models.ItemRequest, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []models.ItemRequest
	for rows.Next() {
		var req models.ItemRequest
		if err := rows.Scan(&req.ID, &req.Description, &req.RequestorID, &req.Created); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}
