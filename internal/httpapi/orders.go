package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/SkundKumar/yezee/internal/auth"
	"github.com/SkundKumar/yezee/internal/events"
	"github.com/SkundKumar/yezee/internal/store"
	"github.com/SkundKumar/yezee/internal/ws"
)

// ListMyOrders returns the caller's orders with derived status (tracking
// status, or "processing" when no tracking row exists).
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())

	orders, err := h.store.ListOrdersByUser(session.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list orders")
		h.respondWithError(w, http.StatusInternalServerError, "Could not load orders.")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// GetOrder returns one order with its address and tracking. Buyers only see
// their own orders; admins see any.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())
	orderID := pathID(r)

	order, err := h.store.GetOrder(orderID)
	if errors.Is(err, store.ErrNotFound) {
		h.respondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get order")
		h.respondWithError(w, http.StatusInternalServerError, "Could not load order.")
		return
	}

	if order.UserID != session.UserID && session.Role != auth.RoleAdmin {
		h.respondWithError(w, http.StatusNotFound, "Order not found")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"order": order})
}

func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListOrders()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list orders for admin")
		h.respondWithError(w, http.StatusInternalServerError, "Could not load orders.")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *Handler) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := pathID(r)

	order, err := h.store.GetOrder(orderID)
	if errors.Is(err, store.ErrNotFound) {
		h.respondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get order for admin")
		h.respondWithError(w, http.StatusInternalServerError, "Could not load order.")
		return
	}

	status := store.DefaultTrackingStatus
	if order.Tracking != nil {
		status = order.Tracking.Status
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"order":  order,
		"status": status,
	})
}

// AdminUpdateOrderStatus writes the tracking state for an order. The status
// is an unconstrained string here, lowercased on write; only return requests
// carry a closed status set.
func (h *Handler) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := pathID(r)

	var payload struct {
		Status         string `json:"status"`
		Courier        string `json:"courier"`
		TrackingNumber string `json:"tracking_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Status == "" {
		h.respondWithError(w, http.StatusBadRequest, "Status is required")
		return
	}

	status := strings.ToLower(payload.Status)
	if err := h.store.UpdateTracking(orderID, status, payload.Courier, payload.TrackingNumber); err != nil {
		h.logger.WithError(err).Error("Failed to update tracking details")
		h.respondWithError(w, http.StatusInternalServerError, "Could not update order status.")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"status":   status,
	}).Info("Order status updated")

	event := events.TrackingUpdatedEvent{
		OrderID: orderID,
		Status:  status,
		Courier: payload.Courier,
	}
	if h.publisher != nil {
		if err := h.publisher.PublishTrackingUpdated(event); err != nil {
			h.logger.WithError(err).Error("Failed to publish tracking updated event, continuing")
		}
	}
	if h.hub != nil {
		h.hub.Broadcast(ws.EventTrackingUpdated, event)
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Order status updated successfully",
	})
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}
