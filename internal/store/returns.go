package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/SkundKumar/yezee/pkg/models"
)

func (s *Store) InsertReturnRequest(req *models.ReturnRequest) (*models.ReturnRequest, error) {
	query := `
		INSERT INTO return_requests (order_id, user_id, reason, image_url, tags_intact, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRow(query, req.OrderID, req.UserID, req.Reason, req.ImageURL,
		req.TagsIntact, req.Status).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert return request: %w", err)
	}
	return req, nil
}

// GetReturnRequest loads one request joined with the order's receipt id and
// the shipping address name for the admin detail view.
func (s *Store) GetReturnRequest(id int64) (*models.ReturnRequestDetail, error) {
	detail := &models.ReturnRequestDetail{}
	var blob []byte
	var customerName sql.NullString

	query := `
		SELECT r.id, r.order_id, r.user_id, r.reason, r.image_url, r.tags_intact,
		       r.status, r.created_at, r.updated_at, o.order_details, a.name
		FROM return_requests r
		JOIN orders o ON o.id = r.order_id
		LEFT JOIN addresses a ON a.id = o.shipping_address_id
		WHERE r.id = $1
	`
	err := s.db.QueryRow(query, id).Scan(&detail.ID, &detail.OrderID, &detail.UserID,
		&detail.Reason, &detail.ImageURL, &detail.TagsIntact, &detail.Status,
		&detail.CreatedAt, &detail.UpdatedAt, &blob, &customerName)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get return request: %w", err)
	}

	var details models.OrderDetails
	if err := json.Unmarshal(blob, &details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order details: %w", err)
	}
	detail.ReceiptID = details.ReceiptID
	if customerName.Valid {
		detail.CustomerName = customerName.String
	}

	return detail, nil
}

func (s *Store) ListReturnRequests() ([]models.ReturnRequestDetail, error) {
	query := `
		SELECT r.id, r.order_id, r.user_id, r.status, r.created_at, o.order_details
		FROM return_requests r
		JOIN orders o ON o.id = r.order_id
		ORDER BY r.created_at DESC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list return requests: %w", err)
	}
	defer rows.Close()

	requests := []models.ReturnRequestDetail{}
	for rows.Next() {
		var detail models.ReturnRequestDetail
		var blob []byte
		err := rows.Scan(&detail.ID, &detail.OrderID, &detail.UserID, &detail.Status,
			&detail.CreatedAt, &blob)
		if err != nil {
			return nil, fmt.Errorf("failed to scan return request: %w", err)
		}
		var details models.OrderDetails
		if err := json.Unmarshal(blob, &details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal order details: %w", err)
		}
		detail.ReceiptID = details.ReceiptID
		requests = append(requests, detail)
	}
	return requests, rows.Err()
}

// UpdateReturnStatus sets the request status. Callers validate the status
// against the closed set before reaching the store.
func (s *Store) UpdateReturnStatus(id int64, status string) (*models.ReturnRequest, error) {
	req := &models.ReturnRequest{}
	query := `
		UPDATE return_requests
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, order_id, user_id, reason, image_url, tags_intact, status, created_at, updated_at
	`
	err := s.db.QueryRow(query, id, status).Scan(&req.ID, &req.OrderID, &req.UserID,
		&req.Reason, &req.ImageURL, &req.TagsIntact, &req.Status, &req.CreatedAt,
		&req.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update return request: %w", err)
	}
	return req, nil
}
