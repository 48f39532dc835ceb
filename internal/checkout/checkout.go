// Package checkout assembles a payable order out of one request: totals,
// gateway order, address upsert, order insert, then best-effort side writes.
package checkout

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SkundKumar/yezee/internal/apperr"
	"github.com/SkundKumar/yezee/internal/events"
	"github.com/SkundKumar/yezee/pkg/models"
)

// NoteSurcharge is the flat charge added per noted line, regardless of note
// length. Kept exact for compatibility with existing order blobs.
const NoteSurcharge = 10.0

const Currency = "INR"

// OrderStore is the slice of the persistence layer checkout writes through.
type OrderStore interface {
	UpsertAddress(userID string, addr *models.Address) (int64, error)
	InsertOrder(userID string, details *models.OrderDetails, addressID int64) (int64, error)
	InsertOrderNotes(orderID int64, notes []models.CartNote) error
	InsertTracking(orderID int64, status string) error
}

type GatewayClient interface {
	CreateOrder(amountMinor int64, currency, receipt string) (*models.GatewayOrder, error)
}

type EventPublisher interface {
	PublishOrderCreated(event events.OrderCreatedEvent) error
}

type Service struct {
	store     OrderStore
	gateway   GatewayClient
	publisher EventPublisher
	logger    *logrus.Logger
}

// New wires the orchestrator. publisher may be nil; event publishing is a
// non-critical side effect and is skipped when no broker is configured.
func New(store OrderStore, gateway GatewayClient, publisher EventPublisher, logger *logrus.Logger) *Service {
	return &Service{
		store:     store,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
	}
}

// Checkout runs the one-shot order assembly for an authenticated user. The
// caller is guaranteed a consistent, payable order only when it returns
// without error; the notes, tracking, and event side writes are best-effort.
func (s *Service) Checkout(userID string, cart *models.CartPayload) (*models.CheckoutResponse, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	if cart == nil || cart.Products == nil || cart.ShippingAddress == nil {
		return nil, apperr.Validation("Invalid cart data: Missing products or shipping address.")
	}

	productsTotal := ProductsTotal(cart.Products)
	notesTotal := NotesTotal(cart.Notes)
	total := productsTotal + notesTotal
	amountMinor := int64(math.Round(total * 100))
	receiptID := NewReceiptID()

	gatewayOrder, err := s.gateway.CreateOrder(amountMinor, Currency, receiptID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to create gateway order")
		return nil, apperr.Upstream("Could not create payment order.", err)
	}

	addressID, err := s.store.UpsertAddress(userID, cart.ShippingAddress)
	if err != nil {
		// The gateway order stays orphaned: it is uncharged and expires on
		// its own, so no void call is made.
		s.logger.WithError(err).Error("Failed to upsert shipping address")
		return nil, apperr.Persistence("Could not save/update shipping address.", err)
	}

	details := &models.OrderDetails{
		GatewayOrderID: gatewayOrder.ID,
		ReceiptID:      receiptID,
		Products:       linesWithNotes(cart.Products, cart.Notes),
		Subtotal:       productsTotal,
		NotesTotal:     notesTotal,
		Total:          total,
	}

	orderID, err := s.store.InsertOrder(userID, details, addressID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to save order")
		return nil, apperr.Persistence("Could not save order.", err)
	}

	logger := s.logger.WithFields(logrus.Fields{
		"order_id":   orderID,
		"user_id":    userID,
		"receipt_id": receiptID,
		"total":      total,
	})

	if notes := nonEmptyNotes(cart.Notes); len(notes) > 0 {
		if err := s.store.InsertOrderNotes(orderID, notes); err != nil {
			// The details blob already holds every note; this table is a
			// convenience copy.
			logger.WithError(err).Error("Failed to save order notes, continuing")
		}
	}

	if err := s.store.InsertTracking(orderID, "processing"); err != nil {
		// Readers default a missing tracking row to "processing".
		logger.WithError(err).Error("Failed to create initial tracking record, continuing")
	}

	if s.publisher != nil {
		event := events.OrderCreatedEvent{
			OrderID:   orderID,
			UserID:    userID,
			ReceiptID: receiptID,
			Total:     total,
			CreatedAt: time.Now(),
		}
		if err := s.publisher.PublishOrderCreated(event); err != nil {
			logger.WithError(err).Error("Failed to publish order created event, continuing")
		}
	}

	logger.Info("Checkout completed")

	return &models.CheckoutResponse{
		Order:      gatewayOrder,
		NewOrderID: orderID,
	}, nil
}

// ProductsTotal sums price×quantity over the cart lines. A missing price
// contributes 0; it never fails.
func ProductsTotal(lines []models.CartLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

// NotesTotal charges the flat surcharge once per line whose note has any
// non-whitespace content.
func NotesTotal(notes []models.CartNote) float64 {
	var total float64
	for _, note := range notes {
		if strings.TrimSpace(note.Note) != "" {
			total += NoteSurcharge
		}
	}
	return total
}

// NewReceiptID mints the human-readable reconciliation token for one checkout
// attempt. Distinct from the internal numeric order id.
func NewReceiptID() string {
	return fmt.Sprintf("rcpt_%d", time.Now().UnixMilli())
}

func linesWithNotes(lines []models.CartLine, notes []models.CartNote) []models.CartLine {
	noteByProduct := make(map[int64]string, len(notes))
	for _, note := range notes {
		noteByProduct[note.ProductID] = note.Note
	}

	out := make([]models.CartLine, len(lines))
	for i, line := range lines {
		line.Note = noteByProduct[line.ProductID]
		out[i] = line
	}
	return out
}

func nonEmptyNotes(notes []models.CartNote) []models.CartNote {
	out := []models.CartNote{}
	for _, note := range notes {
		if strings.TrimSpace(note.Note) != "" {
			out = append(out, note)
		}
	}
	return out
}
