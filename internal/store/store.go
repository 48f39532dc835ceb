// Package store is the persistence layer over the managed Postgres database.
// Row shapes mirror the external tables: one address row per user, one
// JSON details blob per order, zero-or-one tracking row per order.
package store

import (
	"database/sql"
	"errors"

	"github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	db     *sql.DB
	logger *logrus.Logger
}

func New(db *sql.DB, logger *logrus.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func CreateTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS addresses (
			id SERIAL PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			phone VARCHAR(50) NOT NULL,
			street VARCHAR(255) NOT NULL,
			city VARCHAR(255) NOT NULL,
			state VARCHAR(255) NOT NULL,
			postal_code VARCHAR(20) NOT NULL,
			country VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			id SERIAL PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			product_id BIGINT NOT NULL,
			quantity INTEGER NOT NULL,
			UNIQUE (user_id, product_id)
		)`,
		`CREATE TABLE IF NOT EXISTS cart_item_notes (
			id SERIAL PRIMARY KEY,
			cart_item_id INTEGER NOT NULL UNIQUE REFERENCES cart_items(id) ON DELETE CASCADE,
			user_id VARCHAR(255) NOT NULL,
			note TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id SERIAL PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			order_details JSONB NOT NULL,
			shipping_address_id INTEGER REFERENCES addresses(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS order_notes (
			id SERIAL PRIMARY KEY,
			order_id INTEGER NOT NULL REFERENCES orders(id),
			product_id BIGINT NOT NULL,
			note TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tracking_details (
			id SERIAL PRIMARY KEY,
			order_id INTEGER NOT NULL UNIQUE REFERENCES orders(id),
			status VARCHAR(100) NOT NULL,
			courier VARCHAR(255) NOT NULL DEFAULT '',
			tracking_number VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS return_requests (
			id SERIAL PRIMARY KEY,
			order_id INTEGER NOT NULL REFERENCES orders(id),
			user_id VARCHAR(255) NOT NULL,
			reason TEXT NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			tags_intact BOOLEAN NOT NULL DEFAULT false,
			status VARCHAR(50) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS wishlist_items (
			id SERIAL PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			product_id BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (user_id, product_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cart_items_user_id ON cart_items(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_return_requests_order_id ON return_requests(order_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
