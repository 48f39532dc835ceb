package store

import (
	"database/sql"
	"fmt"

	"github.com/SkundKumar/yezee/pkg/models"
)

// UpsertAddress writes the user's single current address, replacing any
// previous one. Returns the address row id.
func (s *Store) UpsertAddress(userID string, addr *models.Address) (int64, error) {
	query := `
		INSERT INTO addresses (user_id, name, phone, street, city, state, postal_code, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			street = EXCLUDED.street,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			postal_code = EXCLUDED.postal_code,
			country = EXCLUDED.country
		RETURNING id
	`
	var id int64
	err := s.db.QueryRow(query, userID, addr.Name, addr.Phone, addr.Street,
		addr.City, addr.State, addr.PostalCode, addr.Country).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert address: %w", err)
	}
	return id, nil
}

func (s *Store) GetAddress(userID string) (*models.Address, error) {
	addr := &models.Address{}
	query := `
		SELECT id, user_id, name, phone, street, city, state, postal_code, country
		FROM addresses WHERE user_id = $1
	`
	err := s.db.QueryRow(query, userID).Scan(&addr.ID, &addr.UserID, &addr.Name,
		&addr.Phone, &addr.Street, &addr.City, &addr.State, &addr.PostalCode, &addr.Country)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	return addr, nil
}

// ListCartItems returns the user's cart rows with any saved note joined in.
func (s *Store) ListCartItems(userID string) ([]models.CartItem, error) {
	query := `
		SELECT ci.id, ci.product_id, ci.quantity, COALESCE(n.note, '')
		FROM cart_items ci
		LEFT JOIN cart_item_notes n ON n.cart_item_id = ci.id
		WHERE ci.user_id = $1
		ORDER BY ci.id
	`
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.Note); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// PutCartItem sets the quantity for (user, product). Quantity <= 0 removes
// the row, matching the client's remove-by-zero behavior.
func (s *Store) PutCartItem(userID string, productID int64, quantity int) error {
	if quantity <= 0 {
		return s.DeleteCartItem(userID, productID)
	}

	query := `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
	`
	if _, err := s.db.Exec(query, userID, productID, quantity); err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

func (s *Store) DeleteCartItem(userID string, productID int64) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`
	if _, err := s.db.Exec(query, userID, productID); err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// UpsertCartItemNote saves the note for a cart row after verifying the row
// belongs to the caller. ErrNotFound when the item is missing or not theirs.
func (s *Store) UpsertCartItemNote(userID string, itemID int64, note string) error {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM cart_items WHERE id = $1 AND user_id = $2`,
		itemID, userID).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to verify cart item: %w", err)
	}

	query := `
		INSERT INTO cart_item_notes (cart_item_id, user_id, note)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_item_id) DO UPDATE SET note = EXCLUDED.note
	`
	if _, err := s.db.Exec(query, itemID, userID, note); err != nil {
		return fmt.Errorf("failed to upsert cart item note: %w", err)
	}
	return nil
}

func (s *Store) ListWishlist(userID string) ([]models.WishlistItem, error) {
	rows, err := s.db.Query(
		`SELECT product_id, created_at FROM wishlist_items WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	defer rows.Close()

	items := []models.WishlistItem{}
	for rows.Next() {
		var item models.WishlistItem
		if err := rows.Scan(&item.ProductID, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) AddWishlistItem(userID string, productID int64) error {
	query := `
		INSERT INTO wishlist_items (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`
	if _, err := s.db.Exec(query, userID, productID); err != nil {
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return nil
}

func (s *Store) RemoveWishlistItem(userID string, productID int64) error {
	query := `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`
	if _, err := s.db.Exec(query, userID, productID); err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	return nil
}
