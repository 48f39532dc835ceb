package models

import (
	"time"
)

// CartLine is one product line inside a checkout payload. Prices are unit
// prices in major currency units; a zero price is treated as "unpriced" and
// contributes nothing to the total.
type CartLine struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Note      string  `json:"note,omitempty"`
}

// CartNote attaches free text to one product line of the cart payload.
type CartNote struct {
	ProductID int64  `json:"product_id"`
	Note      string `json:"note"`
}

// CartPayload is what the client submits at checkout.
type CartPayload struct {
	Products        []CartLine `json:"products"`
	Notes           []CartNote `json:"notes"`
	ShippingAddress *Address   `json:"shippingAddress"`
}

// Address is the single current shipping address of a user. The latest
// upsert is authoritative; no history is kept.
type Address struct {
	ID         int64  `json:"id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderDetails is the immutable blob captured at checkout time. Prices are
// never re-derived from the live catalog after this is written.
type OrderDetails struct {
	GatewayOrderID string     `json:"razorpay_order_id"`
	ReceiptID      string     `json:"receipt_id"`
	Products       []CartLine `json:"products"`
	Subtotal       float64    `json:"subtotal"`
	NotesTotal     float64    `json:"notes_total"`
	Total          float64    `json:"total"`
}

type Order struct {
	ID                int64           `json:"id"`
	UserID            string          `json:"user_id"`
	CreatedAt         time.Time       `json:"created_at"`
	Details           OrderDetails    `json:"order_details"`
	ShippingAddressID int64           `json:"shipping_address_id"`
	ShippingAddress   *Address        `json:"shipping_address,omitempty"`
	Tracking          *TrackingDetail `json:"tracking_details,omitempty"`
}

// OrderSummary is the list-view projection: status comes from the tracking
// row when present and defaults to "processing" otherwise.
type OrderSummary struct {
	ID        int64     `json:"id"`
	ReceiptID string    `json:"receiptId"`
	CreatedAt time.Time `json:"createdAt"`
	Total     float64   `json:"total"`
	Status    string    `json:"status"`
}

// TrackingDetail is the zero-or-one shipment record of an order. Status is a
// free string in the store; readers treat an absent row as "processing".
type TrackingDetail struct {
	ID             int64     `json:"id"`
	OrderID        int64     `json:"order_id"`
	Status         string    `json:"status"`
	Courier        string    `json:"courier,omitempty"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Return request statuses. Unlike tracking, this set is closed on write.
const (
	ReturnStatusProcessing = "Processing"
	ReturnStatusAccepted   = "Accepted"
	ReturnStatusDenied     = "Denied"
	ReturnStatusReturned   = "Returned"
)

type ReturnRequest struct {
	ID         int64     `json:"id"`
	OrderID    int64     `json:"order_id"`
	UserID     string    `json:"user_id"`
	Reason     string    `json:"reason"`
	ImageURL   string    `json:"image_url,omitempty"`
	TagsIntact bool      `json:"tags_intact"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ReturnRequestDetail joins the request with its order's receipt and the
// buyer's name for the admin detail view.
type ReturnRequestDetail struct {
	ReturnRequest
	ReceiptID    string `json:"receiptId"`
	CustomerName string `json:"customerName"`
}

// CartItem is one persisted cart row, keyed (user, product). Note is the
// side-table text, empty when none has been saved.
type CartItem struct {
	ID        int64  `json:"cart_item_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Note      string `json:"note,omitempty"`
}

type WishlistItem struct {
	ProductID int64     `json:"product_id"`
	AddedAt   time.Time `json:"added_at"`
}

// Product is the catalog service's product record, read-only for us.
type Product struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Slug         string         `json:"slug"`
	Price        string         `json:"price"`
	RegularPrice string         `json:"regular_price"`
	SalePrice    string         `json:"sale_price"`
	OnSale       bool           `json:"on_sale"`
	Description  string         `json:"description"`
	Images       []ProductImage `json:"images"`
	Categories   []Category     `json:"categories"`
	RelatedIDs   []int64        `json:"related_ids"`
}

type ProductImage struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
	Alt string `json:"alt"`
}

type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// GatewayOrder is the payment gateway's order record. Amount is in minor
// currency units.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CheckoutResponse drives the client-side payment widget.
type CheckoutResponse struct {
	Order      *GatewayOrder `json:"order"`
	NewOrderID int64         `json:"newOrderId"`
}
