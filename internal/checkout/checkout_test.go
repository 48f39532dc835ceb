package checkout

import (
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/SkundKumar/yezee/internal/apperr"
	"github.com/SkundKumar/yezee/internal/events"
	"github.com/SkundKumar/yezee/pkg/models"
)

type fakeStore struct {
	addressErr  error
	orderErr    error
	notesErr    error
	trackingErr error

	addressID     int64
	nextOrderID   int64
	orders        []*models.OrderDetails
	notesInserted []models.CartNote
	trackingRows  int
}

func (f *fakeStore) UpsertAddress(userID string, addr *models.Address) (int64, error) {
	if f.addressErr != nil {
		return 0, f.addressErr
	}
	if f.addressID == 0 {
		f.addressID = 42
	}
	return f.addressID, nil
}

func (f *fakeStore) InsertOrder(userID string, details *models.OrderDetails, addressID int64) (int64, error) {
	if f.orderErr != nil {
		return 0, f.orderErr
	}
	f.orders = append(f.orders, details)
	f.nextOrderID++
	return f.nextOrderID, nil
}

func (f *fakeStore) InsertOrderNotes(orderID int64, notes []models.CartNote) error {
	if f.notesErr != nil {
		return f.notesErr
	}
	f.notesInserted = append(f.notesInserted, notes...)
	return nil
}

func (f *fakeStore) InsertTracking(orderID int64, status string) error {
	if f.trackingErr != nil {
		return f.trackingErr
	}
	if status != "processing" {
		return errors.New("unexpected initial status " + status)
	}
	f.trackingRows++
	return nil
}

type fakeGateway struct {
	err    error
	orders []*models.GatewayOrder
}

func (f *fakeGateway) CreateOrder(amountMinor int64, currency, receipt string) (*models.GatewayOrder, error) {
	if f.err != nil {
		return nil, f.err
	}
	order := &models.GatewayOrder{
		ID:       "order_test_1",
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}
	f.orders = append(f.orders, order)
	return order, nil
}

type fakePublisher struct {
	err       error
	published []events.OrderCreatedEvent
}

func (f *fakePublisher) PublishOrderCreated(event events.OrderCreatedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, event)
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func validCart() *models.CartPayload {
	return &models.CartPayload{
		Products: []models.CartLine{
			{ProductID: 1, Name: "Kurta", Price: 500, Quantity: 2},
			{ProductID: 2, Name: "Scarf", Price: 300, Quantity: 1},
		},
		Notes: []models.CartNote{
			{ProductID: 1, Note: "gift wrap"},
			{ProductID: 2, Note: ""},
		},
		ShippingAddress: &models.Address{Name: "A", Phone: "1", Street: "S", City: "C", State: "ST", PostalCode: "0", Country: "IN"},
	}
}

func TestProductsTotal(t *testing.T) {
	lines := []models.CartLine{
		{Price: 500, Quantity: 2},
		{Price: 300, Quantity: 1},
		{Quantity: 3}, // unpriced line contributes nothing
	}
	if got := ProductsTotal(lines); got != 1300 {
		t.Fatalf("products total = %v, want 1300", got)
	}
	if got := ProductsTotal(nil); got != 0 {
		t.Fatalf("empty total = %v, want 0", got)
	}
}

func TestNotesTotal(t *testing.T) {
	notes := []models.CartNote{
		{Note: "gift wrap"},
		{Note: ""},
		{Note: "   "},
		{Note: "fragile"},
	}
	if got := NotesTotal(notes); got != 2*NoteSurcharge {
		t.Fatalf("notes total = %v, want %v", got, 2*NoteSurcharge)
	}
}

func TestCheckoutHappyPath(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{}
	pub := &fakePublisher{}
	svc := New(store, gw, pub, testLogger())

	resp, err := svc.Checkout("user_1", validCart())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// 500*2 + 300*1 = 1300 products, one noted line = 10.
	if resp.Order.Amount != 131000 {
		t.Fatalf("gateway amount = %d, want 131000", resp.Order.Amount)
	}
	if resp.Order.Currency != Currency {
		t.Fatalf("currency = %q", resp.Order.Currency)
	}
	if resp.NewOrderID != 1 {
		t.Fatalf("order id = %d, want 1", resp.NewOrderID)
	}

	if len(store.orders) != 1 {
		t.Fatalf("orders persisted = %d", len(store.orders))
	}
	details := store.orders[0]
	if details.Subtotal != 1300 || details.NotesTotal != 10 || details.Total != 1310 {
		t.Fatalf("details totals = %v/%v/%v", details.Subtotal, details.NotesTotal, details.Total)
	}
	if details.GatewayOrderID != "order_test_1" {
		t.Fatalf("gateway order id = %q", details.GatewayOrderID)
	}
	if !strings.HasPrefix(details.ReceiptID, "rcpt_") {
		t.Fatalf("receipt id = %q", details.ReceiptID)
	}
	if details.Products[0].Note != "gift wrap" || details.Products[1].Note != "" {
		t.Fatalf("line notes not embedded: %+v", details.Products)
	}

	if len(store.notesInserted) != 1 {
		t.Fatalf("note rows = %d, want 1", len(store.notesInserted))
	}
	if store.trackingRows != 1 {
		t.Fatalf("tracking rows = %d, want 1", store.trackingRows)
	}
	if len(pub.published) != 1 || pub.published[0].OrderID != 1 {
		t.Fatalf("published events = %+v", pub.published)
	}
}

func TestCheckoutValidation(t *testing.T) {
	svc := New(&fakeStore{}, &fakeGateway{}, nil, testLogger())

	if _, err := svc.Checkout("", validCart()); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("missing user: %v", err)
	}

	cart := validCart()
	cart.Products = nil
	if _, err := svc.Checkout("user_1", cart); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("missing products: %v", err)
	}

	cart = validCart()
	cart.ShippingAddress = nil
	if _, err := svc.Checkout("user_1", cart); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("missing address: %v", err)
	}
}

func TestCheckoutGatewayFailureHasNoSideEffects(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{err: errors.New("gateway down")}
	svc := New(store, gw, nil, testLogger())

	_, err := svc.Checkout("user_1", validCart())
	if !apperr.IsKind(err, apperr.KindUpstream) {
		t.Fatalf("want upstream error, got %v", err)
	}
	if store.addressID != 0 || len(store.orders) != 0 || store.trackingRows != 0 {
		t.Fatalf("side effects after gateway failure: %+v", store)
	}
}

func TestCheckoutAddressFailureCreatesNoOrder(t *testing.T) {
	store := &fakeStore{addressErr: errors.New("db down")}
	svc := New(store, &fakeGateway{}, nil, testLogger())

	_, err := svc.Checkout("user_1", validCart())
	if !apperr.IsKind(err, apperr.KindPersistence) {
		t.Fatalf("want persistence error, got %v", err)
	}
	if len(store.orders) != 0 {
		t.Fatalf("order created after address failure")
	}
}

func TestCheckoutOrderFailure(t *testing.T) {
	store := &fakeStore{orderErr: errors.New("db down")}
	svc := New(store, &fakeGateway{}, nil, testLogger())

	_, err := svc.Checkout("user_1", validCart())
	if !apperr.IsKind(err, apperr.KindPersistence) {
		t.Fatalf("want persistence error, got %v", err)
	}
	if store.trackingRows != 0 || len(store.notesInserted) != 0 {
		t.Fatalf("side writes after order failure")
	}
}

func TestCheckoutBestEffortWritesAreSwallowed(t *testing.T) {
	store := &fakeStore{
		notesErr:    errors.New("notes table gone"),
		trackingErr: errors.New("tracking table gone"),
	}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := New(store, &fakeGateway{}, pub, testLogger())

	resp, err := svc.Checkout("user_1", validCart())
	if err != nil {
		t.Fatalf("checkout should succeed despite side-write failures: %v", err)
	}
	if resp.NewOrderID == 0 {
		t.Fatalf("no order id returned")
	}
}

func TestReceiptIDsDistinctPerAttempt(t *testing.T) {
	store := &fakeStore{}
	svc := New(store, &fakeGateway{}, nil, testLogger())

	if _, err := svc.Checkout("user_1", validCart()); err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	if _, err := svc.Checkout("user_1", validCart()); err != nil {
		t.Fatalf("second checkout: %v", err)
	}

	if len(store.orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(store.orders))
	}
	// No dedup across attempts: two orders, and distinct receipts unless the
	// clock failed to advance a millisecond between them.
	if store.orders[0] == store.orders[1] {
		t.Fatalf("orders not distinct")
	}
}
