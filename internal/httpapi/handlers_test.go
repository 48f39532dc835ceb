package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/SkundKumar/yezee/internal/apperr"
	"github.com/SkundKumar/yezee/internal/auth"
	"github.com/SkundKumar/yezee/internal/catalog"
	"github.com/SkundKumar/yezee/internal/store"
	"github.com/SkundKumar/yezee/pkg/models"
)

type fakeVerifier struct{}

func (fakeVerifier) VerifyToken(token string) (*auth.Session, error) {
	switch token {
	case "buyer-token":
		return &auth.Session{UserID: "user_1"}, nil
	case "admin-token":
		return &auth.Session{UserID: "user_admin", Role: auth.RoleAdmin}, nil
	default:
		return nil, auth.ErrInvalidToken
	}
}

type fakeStore struct {
	addresses map[string]*models.Address
	cartItems []models.CartItem
	orders    map[int64]*models.Order
	summaries []models.OrderSummary
	returns   map[int64]*models.ReturnRequest
	wishlist  []models.WishlistItem

	trackingUpdates []string
	returnUpdates   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		addresses: map[string]*models.Address{},
		orders:    map[int64]*models.Order{},
		returns:   map[int64]*models.ReturnRequest{},
	}
}

func (f *fakeStore) UpsertAddress(userID string, addr *models.Address) (int64, error) {
	f.addresses[userID] = addr
	return 7, nil
}

func (f *fakeStore) GetAddress(userID string) (*models.Address, error) {
	addr, ok := f.addresses[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return addr, nil
}

func (f *fakeStore) ListCartItems(userID string) ([]models.CartItem, error) {
	return f.cartItems, nil
}

func (f *fakeStore) PutCartItem(userID string, productID int64, quantity int) error {
	return nil
}

func (f *fakeStore) DeleteCartItem(userID string, productID int64) error {
	return nil
}

func (f *fakeStore) UpsertCartItemNote(userID string, itemID int64, note string) error {
	for _, item := range f.cartItems {
		if item.ID == itemID {
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) GetOrder(orderID int64) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return order, nil
}

func (f *fakeStore) ListOrdersByUser(userID string) ([]models.OrderSummary, error) {
	out := []models.OrderSummary{}
	for _, order := range f.orders {
		if order.UserID != userID {
			continue
		}
		status := store.DefaultTrackingStatus
		if order.Tracking != nil {
			status = order.Tracking.Status
		}
		out = append(out, models.OrderSummary{
			ID:        order.ID,
			ReceiptID: order.Details.ReceiptID,
			Total:     order.Details.Total,
			Status:    status,
		})
	}
	return out, nil
}

func (f *fakeStore) ListOrders() ([]models.OrderSummary, error) {
	return f.summaries, nil
}

func (f *fakeStore) UpdateTracking(orderID int64, status, courier, trackingNumber string) error {
	f.trackingUpdates = append(f.trackingUpdates, status)
	return nil
}

func (f *fakeStore) InsertReturnRequest(req *models.ReturnRequest) (*models.ReturnRequest, error) {
	req.ID = int64(len(f.returns) + 1)
	f.returns[req.ID] = req
	return req, nil
}

func (f *fakeStore) GetReturnRequest(id int64) (*models.ReturnRequestDetail, error) {
	req, ok := f.returns[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &models.ReturnRequestDetail{ReturnRequest: *req}, nil
}

func (f *fakeStore) ListReturnRequests() ([]models.ReturnRequestDetail, error) {
	out := []models.ReturnRequestDetail{}
	for _, req := range f.returns {
		out = append(out, models.ReturnRequestDetail{ReturnRequest: *req})
	}
	return out, nil
}

func (f *fakeStore) UpdateReturnStatus(id int64, status string) (*models.ReturnRequest, error) {
	req, ok := f.returns[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	req.Status = status
	f.returnUpdates = append(f.returnUpdates, status)
	return req, nil
}

func (f *fakeStore) ListWishlist(userID string) ([]models.WishlistItem, error) {
	return f.wishlist, nil
}

func (f *fakeStore) AddWishlistItem(userID string, productID int64) error {
	f.wishlist = append(f.wishlist, models.WishlistItem{ProductID: productID})
	return nil
}

func (f *fakeStore) RemoveWishlistItem(userID string, productID int64) error {
	return nil
}

type fakeCatalog struct {
	products []models.Product
}

func (f *fakeCatalog) GetProducts(query *catalog.ProductQuery) ([]models.Product, error) {
	return f.products, nil
}

type fakeCheckout struct {
	err  error
	resp *models.CheckoutResponse
}

func (f *fakeCheckout) Checkout(userID string, cart *models.CartPayload) (*models.CheckoutResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type testEnv struct {
	store    *fakeStore
	catalog  *fakeCatalog
	checkout *fakeCheckout
	router   *mux.Router
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	env := &testEnv{
		store:   newFakeStore(),
		catalog: &fakeCatalog{},
		checkout: &fakeCheckout{
			resp: &models.CheckoutResponse{
				Order:      &models.GatewayOrder{ID: "order_x", Amount: 131000, Currency: "INR"},
				NewOrderID: 1,
			},
		},
	}

	handler := NewHandler(env.store, env.catalog, env.checkout, logger)
	env.router = mux.NewRouter()
	handler.Routes(env.router, fakeVerifier{})
	return env
}

func doJSON(t *testing.T, router *mux.Router, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	env := setup(t)

	w := doJSON(t, env.router, http.MethodGet, "/api/orders", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: code %d", w.Code)
	}

	w = doJSON(t, env.router, http.MethodGet, "/api/orders", "bogus", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: code %d", w.Code)
	}
}

func TestAdminGateRejectsBuyers(t *testing.T) {
	env := setup(t)

	w := doJSON(t, env.router, http.MethodGet, "/api/admin/orders", "buyer-token", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("buyer on admin route: code %d", w.Code)
	}

	w = doJSON(t, env.router, http.MethodGet, "/api/admin/orders", "admin-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin on admin route: code %d", w.Code)
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	env := setup(t)

	w := doJSON(t, env.router, http.MethodPost, "/api/checkout", "buyer-token", map[string]interface{}{
		"cartDetails": map[string]interface{}{
			"products":        []map[string]interface{}{{"product_id": 1, "price": 500, "quantity": 2}},
			"notes":           []map[string]interface{}{},
			"shippingAddress": map[string]interface{}{"name": "A"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("checkout code %d: %s", w.Code, w.Body.String())
	}

	var resp models.CheckoutResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.NewOrderID != 1 || resp.Order.ID != "order_x" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCheckoutEndpointMapsErrors(t *testing.T) {
	env := setup(t)

	env.checkout.err = apperr.Validation("Invalid cart data: Missing products or shipping address.")
	w := doJSON(t, env.router, http.MethodPost, "/api/checkout", "buyer-token", map[string]interface{}{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("validation error code %d", w.Code)
	}

	env.checkout.err = apperr.Persistence("Could not save order.", errors.New("db down"))
	w = doJSON(t, env.router, http.MethodPost, "/api/checkout", "buyer-token", map[string]interface{}{})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("persistence error code %d", w.Code)
	}

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Success || body.Message != "Could not save order." {
		t.Fatalf("error body: %+v", body)
	}
}

func TestCartNoteNotFound(t *testing.T) {
	env := setup(t)
	env.store.cartItems = []models.CartItem{{ID: 3, ProductID: 9, Quantity: 1}}

	w := doJSON(t, env.router, http.MethodPost, "/api/cart/note", "buyer-token",
		map[string]interface{}{"itemId": 99, "note": "gift"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing item: code %d", w.Code)
	}

	w = doJSON(t, env.router, http.MethodPost, "/api/cart/note", "buyer-token",
		map[string]interface{}{"itemId": 3, "note": "gift"})
	if w.Code != http.StatusOK {
		t.Fatalf("owned item: code %d", w.Code)
	}
}

func TestGetOrderScopedToOwner(t *testing.T) {
	env := setup(t)
	env.store.orders[5] = &models.Order{ID: 5, UserID: "someone_else"}

	w := doJSON(t, env.router, http.MethodGet, "/api/order/5", "buyer-token", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("foreign order: code %d", w.Code)
	}

	// Admins can read any order.
	w = doJSON(t, env.router, http.MethodGet, "/api/order/5", "admin-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin read: code %d", w.Code)
	}
}

func TestOrderStatusDefaultsToProcessing(t *testing.T) {
	env := setup(t)
	env.store.orders[1] = &models.Order{
		ID:      1,
		UserID:  "user_1",
		Details: models.OrderDetails{ReceiptID: "rcpt_1", Total: 1310},
	}

	w := doJSON(t, env.router, http.MethodGet, "/api/orders", "buyer-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list code %d", w.Code)
	}

	var resp struct {
		Orders []models.OrderSummary `json:"orders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Orders) != 1 || resp.Orders[0].Status != "processing" {
		t.Fatalf("orders: %+v", resp.Orders)
	}
}

func TestAdminUpdateOrderStatusLowercases(t *testing.T) {
	env := setup(t)

	w := doJSON(t, env.router, http.MethodPatch, "/api/admin/orders/1", "admin-token",
		map[string]interface{}{"status": "Shipped", "courier": "BlueDart"})
	if w.Code != http.StatusOK {
		t.Fatalf("update code %d: %s", w.Code, w.Body.String())
	}
	if len(env.store.trackingUpdates) != 1 || env.store.trackingUpdates[0] != "shipped" {
		t.Fatalf("tracking updates: %v", env.store.trackingUpdates)
	}

	w = doJSON(t, env.router, http.MethodPatch, "/api/admin/orders/1", "admin-token",
		map[string]interface{}{"status": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty status: code %d", w.Code)
	}
}

func TestAdminUpdateReturnStatusValidation(t *testing.T) {
	env := setup(t)
	env.store.returns[1] = &models.ReturnRequest{ID: 1, Status: models.ReturnStatusProcessing}

	// Anything outside the closed set is rejected before touching the store.
	w := doJSON(t, env.router, http.MethodPut, "/api/admin/returns/1", "admin-token",
		map[string]interface{}{"status": "Refunded"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid status: code %d", w.Code)
	}
	if len(env.store.returnUpdates) != 0 {
		t.Fatalf("store mutated on invalid status")
	}
	if env.store.returns[1].Status != models.ReturnStatusProcessing {
		t.Fatalf("status changed: %s", env.store.returns[1].Status)
	}

	w = doJSON(t, env.router, http.MethodPut, "/api/admin/returns/1", "admin-token",
		map[string]interface{}{"status": models.ReturnStatusDenied})
	if w.Code != http.StatusOK {
		t.Fatalf("valid status: code %d", w.Code)
	}
	if env.store.returns[1].Status != models.ReturnStatusDenied {
		t.Fatalf("status not applied: %s", env.store.returns[1].Status)
	}
}

func TestGetCartHydratesProducts(t *testing.T) {
	env := setup(t)
	env.store.cartItems = []models.CartItem{{ID: 3, ProductID: 9, Quantity: 2, Note: "gift"}}
	env.catalog.products = []models.Product{{ID: 9, Name: "Kurta", Price: "500"}}

	w := doJSON(t, env.router, http.MethodGet, "/api/cart", "buyer-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cart code %d", w.Code)
	}

	var entries []struct {
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		CartItemID int64  `json:"cart_item_id"`
		Quantity   int    `json:"quantity"`
		Note       string `json:"note"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries: %d", len(entries))
	}
	if entries[0].CartItemID != 3 || entries[0].Quantity != 2 || entries[0].Note != "gift" {
		t.Fatalf("entry: %+v", entries[0])
	}
}

func TestEmptyCartIsEmptyArray(t *testing.T) {
	env := setup(t)

	w := doJSON(t, env.router, http.MethodGet, "/api/cart", "buyer-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cart code %d", w.Code)
	}
	if got := w.Body.String(); got != "[]" {
		t.Fatalf("empty cart body: %q", got)
	}
}
