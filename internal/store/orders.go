package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/SkundKumar/yezee/pkg/models"
)

// DefaultTrackingStatus is what readers report for an order whose tracking
// row is absent (the checkout's tracking insert is best-effort).
const DefaultTrackingStatus = "processing"

// InsertOrder persists the order with its immutable details blob and returns
// the new internal order id.
func (s *Store) InsertOrder(userID string, details *models.OrderDetails, addressID int64) (int64, error) {
	blob, err := json.Marshal(details)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal order details: %w", err)
	}

	var id int64
	query := `
		INSERT INTO orders (user_id, order_details, shipping_address_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := s.db.QueryRow(query, userID, blob, addressID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}
	return id, nil
}

// GetOrder loads one order with its shipping address and tracking row
// joined. Tracking is nil when no row exists yet.
func (s *Store) GetOrder(orderID int64) (*models.Order, error) {
	order := &models.Order{}
	var blob []byte
	var addressID sql.NullInt64

	query := `
		SELECT id, user_id, order_details, shipping_address_id, created_at
		FROM orders WHERE id = $1
	`
	err := s.db.QueryRow(query, orderID).Scan(&order.ID, &order.UserID, &blob,
		&addressID, &order.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := json.Unmarshal(blob, &order.Details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order details: %w", err)
	}

	if addressID.Valid {
		order.ShippingAddressID = addressID.Int64
		addr := &models.Address{}
		addrQuery := `
			SELECT id, user_id, name, phone, street, city, state, postal_code, country
			FROM addresses WHERE id = $1
		`
		err := s.db.QueryRow(addrQuery, addressID.Int64).Scan(&addr.ID, &addr.UserID,
			&addr.Name, &addr.Phone, &addr.Street, &addr.City, &addr.State,
			&addr.PostalCode, &addr.Country)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to get order address: %w", err)
		}
		if err == nil {
			order.ShippingAddress = addr
		}
	}

	tracking, err := s.getTracking(orderID)
	if err != nil {
		return nil, err
	}
	order.Tracking = tracking

	return order, nil
}

// ListOrdersByUser returns the user's orders newest first, with the derived
// status (tracking status, defaulting to "processing").
func (s *Store) ListOrdersByUser(userID string) ([]models.OrderSummary, error) {
	query := `
		SELECT o.id, o.order_details, o.created_at, COALESCE(t.status, $2)
		FROM orders o
		LEFT JOIN tracking_details t ON t.order_id = o.id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC
	`
	return s.listOrderSummaries(query, userID, DefaultTrackingStatus)
}

// ListOrders returns every order for the admin back office, newest first.
func (s *Store) ListOrders() ([]models.OrderSummary, error) {
	query := `
		SELECT o.id, o.order_details, o.created_at, COALESCE(t.status, $1)
		FROM orders o
		LEFT JOIN tracking_details t ON t.order_id = o.id
		ORDER BY o.created_at DESC
	`
	return s.listOrderSummaries(query, DefaultTrackingStatus)
}

func (s *Store) listOrderSummaries(query string, args ...interface{}) ([]models.OrderSummary, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	summaries := []models.OrderSummary{}
	for rows.Next() {
		var summary models.OrderSummary
		var blob []byte
		if err := rows.Scan(&summary.ID, &blob, &summary.CreatedAt, &summary.Status); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		var details models.OrderDetails
		if err := json.Unmarshal(blob, &details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal order details: %w", err)
		}
		summary.ReceiptID = details.ReceiptID
		summary.Total = details.Total
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// InsertOrderNotes persists one row per noted line. The authoritative copy
// of each note already lives in the order's details blob.
func (s *Store) InsertOrderNotes(orderID int64, notes []models.CartNote) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin notes transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO order_notes (order_id, product_id, note) VALUES ($1, $2, $3)`
	for _, note := range notes {
		if _, err := tx.Exec(query, orderID, note.ProductID, note.Note); err != nil {
			return fmt.Errorf("failed to insert order note: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) getTracking(orderID int64) (*models.TrackingDetail, error) {
	tracking := &models.TrackingDetail{}
	query := `
		SELECT id, order_id, status, courier, tracking_number, created_at, updated_at
		FROM tracking_details WHERE order_id = $1
	`
	err := s.db.QueryRow(query, orderID).Scan(&tracking.ID, &tracking.OrderID,
		&tracking.Status, &tracking.Courier, &tracking.TrackingNumber,
		&tracking.CreatedAt, &tracking.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracking details: %w", err)
	}
	return tracking, nil
}

// InsertTracking creates the initial tracking row for a fresh order.
func (s *Store) InsertTracking(orderID int64, status string) error {
	query := `INSERT INTO tracking_details (order_id, status) VALUES ($1, $2)`
	if _, err := s.db.Exec(query, orderID, status); err != nil {
		return fmt.Errorf("failed to insert tracking details: %w", err)
	}
	return nil
}

// UpdateTracking sets the shipment state for an order, creating the row if
// the checkout-time insert never landed.
func (s *Store) UpdateTracking(orderID int64, status, courier, trackingNumber string) error {
	query := `
		INSERT INTO tracking_details (order_id, status, courier, tracking_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id) DO UPDATE SET
			status = EXCLUDED.status,
			courier = CASE WHEN EXCLUDED.courier <> '' THEN EXCLUDED.courier ELSE tracking_details.courier END,
			tracking_number = CASE WHEN EXCLUDED.tracking_number <> '' THEN EXCLUDED.tracking_number ELSE tracking_details.tracking_number END,
			updated_at = now()
	`
	if _, err := s.db.Exec(query, orderID, status, courier, trackingNumber); err != nil {
		return fmt.Errorf("failed to update tracking details: %w", err)
	}
	return nil
}
