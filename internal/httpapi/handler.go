// Package httpapi exposes the storefront and admin back-office JSON API.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/SkundKumar/yezee/internal/apperr"
	"github.com/SkundKumar/yezee/internal/auth"
	"github.com/SkundKumar/yezee/internal/catalog"
	"github.com/SkundKumar/yezee/internal/events"
	"github.com/SkundKumar/yezee/internal/store"
	"github.com/SkundKumar/yezee/pkg/models"
)

// Store is the persistence surface the handlers read and write through.
// Satisfied by *store.Store; tests substitute a fake.
type Store interface {
	UpsertAddress(userID string, addr *models.Address) (int64, error)
	GetAddress(userID string) (*models.Address, error)

	ListCartItems(userID string) ([]models.CartItem, error)
	PutCartItem(userID string, productID int64, quantity int) error
	DeleteCartItem(userID string, productID int64) error
	UpsertCartItemNote(userID string, itemID int64, note string) error

	GetOrder(orderID int64) (*models.Order, error)
	ListOrdersByUser(userID string) ([]models.OrderSummary, error)
	ListOrders() ([]models.OrderSummary, error)
	UpdateTracking(orderID int64, status, courier, trackingNumber string) error

	InsertReturnRequest(req *models.ReturnRequest) (*models.ReturnRequest, error)
	GetReturnRequest(id int64) (*models.ReturnRequestDetail, error)
	ListReturnRequests() ([]models.ReturnRequestDetail, error)
	UpdateReturnStatus(id int64, status string) (*models.ReturnRequest, error)

	ListWishlist(userID string) ([]models.WishlistItem, error)
	AddWishlistItem(userID string, productID int64) error
	RemoveWishlistItem(userID string, productID int64) error
}

type Catalog interface {
	GetProducts(query *catalog.ProductQuery) ([]models.Product, error)
}

type CheckoutService interface {
	Checkout(userID string, cart *models.CartPayload) (*models.CheckoutResponse, error)
}

type ImageUploader interface {
	UploadReturnImage(userID, filename, contentType string, body io.Reader) (string, error)
}

type TrackingPublisher interface {
	PublishTrackingUpdated(event events.TrackingUpdatedEvent) error
}

type DashboardHub interface {
	Broadcast(eventType string, data interface{})
}

type Handler struct {
	store     Store
	catalog   Catalog
	checkout  CheckoutService
	uploader  ImageUploader
	publisher TrackingPublisher
	hub       DashboardHub
	logger    *logrus.Logger
}

func NewHandler(st Store, cat Catalog, checkout CheckoutService, logger *logrus.Logger) *Handler {
	return &Handler{
		store:    st,
		catalog:  cat,
		checkout: checkout,
		logger:   logger,
	}
}

// SetImageUploader enables return-image uploads. Without it, return requests
// are accepted with no image attached.
func (h *Handler) SetImageUploader(uploader ImageUploader) {
	h.uploader = uploader
}

// SetTrackingPublisher enables best-effort tracking events on admin status
// updates.
func (h *Handler) SetTrackingPublisher(publisher TrackingPublisher) {
	h.publisher = publisher
}

func (h *Handler) SetDashboardHub(hub DashboardHub) {
	h.hub = hub
}

// Routes mounts the API on router. The auth verifier guards every /api
// route; admin routes additionally require the admin role claim.
func (h *Handler) Routes(router *mux.Router, verifier auth.Verifier) {
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware(verifier, h.logger))

	api.HandleFunc("/checkout", h.Checkout).Methods("POST")

	api.HandleFunc("/cart", h.GetCart).Methods("GET")
	api.HandleFunc("/cart", h.PutCartItem).Methods("POST")
	api.HandleFunc("/cart", h.DeleteCartItem).Methods("DELETE")
	api.HandleFunc("/cart/note", h.SaveCartNote).Methods("POST")

	api.HandleFunc("/user/address", h.GetAddress).Methods("GET")
	api.HandleFunc("/user/address", h.SaveAddress).Methods("POST")

	api.HandleFunc("/wishlist", h.GetWishlist).Methods("GET")
	api.HandleFunc("/wishlist", h.AddWishlistItem).Methods("POST")
	api.HandleFunc("/wishlist", h.RemoveWishlistItem).Methods("DELETE")

	api.HandleFunc("/orders", h.ListMyOrders).Methods("GET")
	api.HandleFunc("/order/{id:[0-9]+}", h.GetOrder).Methods("GET")

	api.HandleFunc("/returns", h.CreateReturn).Methods("POST")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminOnly)
	admin.HandleFunc("/orders", h.AdminListOrders).Methods("GET")
	admin.HandleFunc("/orders/{id:[0-9]+}", h.AdminGetOrder).Methods("GET")
	admin.HandleFunc("/orders/{id:[0-9]+}", h.AdminUpdateOrderStatus).Methods("PATCH", "PUT")
	admin.HandleFunc("/returns", h.AdminListReturns).Methods("GET")
	admin.HandleFunc("/returns/{id:[0-9]+}", h.AdminGetReturn).Methods("GET")
	admin.HandleFunc("/returns/{id:[0-9]+}", h.AdminUpdateReturnStatus).Methods("PUT")
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "storefront",
	})
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())

	var payload struct {
		CartDetails *models.CartPayload `json:"cartDetails"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.WithError(err).Error("Failed to decode checkout request")
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.checkout.Checkout(session.UserID, payload.CartDetails)
	if err != nil {
		h.respondWithAppError(w, err, "Checkout failed")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast("order_created", resp)
	}

	h.respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// respondWithAppError maps a classified error to its status and logs the
// wrapped cause; the client only ever sees the classified message.
func (h *Handler) respondWithAppError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, store.ErrNotFound) {
		h.respondWithError(w, http.StatusNotFound, "Not found")
		return
	}
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).Error(logMsg)
	}
	h.respondWithError(w, status, apperr.Message(err))
}
