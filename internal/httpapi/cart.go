package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SkundKumar/yezee/internal/auth"
	"github.com/SkundKumar/yezee/internal/catalog"
	"github.com/SkundKumar/yezee/internal/store"
	"github.com/SkundKumar/yezee/pkg/models"
)

// cartEntry is a catalog product enriched with the caller's cart row.
type cartEntry struct {
	models.Product
	CartItemID int64  `json:"cart_item_id"`
	Quantity   int    `json:"quantity"`
	Note       string `json:"note,omitempty"`
}

// GetCart reconstructs the cart from the store on every read and hydrates
// each row with the live catalog product.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())

	items, err := h.store.ListCartItems(session.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list cart items")
		h.respondWithError(w, http.StatusInternalServerError, "Could not load cart.")
		return
	}
	if len(items) == 0 {
		h.respondWithJSON(w, http.StatusOK, []cartEntry{})
		return
	}

	ids := make([]int64, len(items))
	itemByProduct := make(map[int64]models.CartItem, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
		itemByProduct[item.ProductID] = item
	}

	products, err := h.catalog.GetProducts(&catalog.ProductQuery{Include: ids})
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch cart products from catalog")
		h.respondWithError(w, http.StatusBadGateway, "Could not load cart products.")
		return
	}

	entries := make([]cartEntry, 0, len(products))
	for _, product := range products {
		item, ok := itemByProduct[product.ID]
		if !ok {
			continue
		}
		entries = append(entries, cartEntry{
			Product:    product,
			CartItemID: item.ID,
			Quantity:   item.Quantity,
			Note:       item.Note,
		})
	}

	h.respondWithJSON(w, http.StatusOK, entries)
}

// PutCartItem sets the quantity for one product; zero or less removes it.
func (h *Handler) PutCartItem(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())

	var payload struct {
		ProductID int64 `json:"productId"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.ProductID == 0 {
		h.respondWithError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	if err := h.store.PutCartItem(session.UserID, payload.ProductID, payload.Quantity); err != nil {
		h.logger.WithError(err).Error("Failed to update cart item")
		h.respondWithError(w, http.StatusInternalServerError, "Could not update cart.")
		return
	}

	if payload.Quantity <= 0 {
		h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"product_id": payload.ProductID,
		"quantity":   payload.Quantity,
	})
}

func (h *Handler) DeleteCartItem(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())

	var payload struct {
		ProductID int64 `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.store.DeleteCartItem(session.UserID, payload.ProductID); err != nil {
		h.logger.WithError(err).Error("Failed to delete cart item")
		h.respondWithError(w, http.StatusInternalServerError, "Could not update cart.")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
}

// SaveCartNote attaches free text to one of the caller's cart rows. The row
// must exist and belong to the caller.
func (h *Handler) SaveCartNote(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())

	var payload struct {
		ItemID int64  `json:"itemId"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.ItemID == 0 {
		h.respondWithError(w, http.StatusBadRequest, "Item ID is required")
		return
	}

	err := h.store.UpsertCartItemNote(session.UserID, payload.ItemID, payload.Note)
	if errors.Is(err, store.ErrNotFound) {
		h.respondWithError(w, http.StatusNotFound, "Cart item not found. It may have been removed.")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to save cart note")
		h.respondWithError(w, http.StatusInternalServerError, "Could not save note.")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) GetAddress(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())

	addr, err := h.store.GetAddress(session.UserID)
	if errors.Is(err, store.ErrNotFound) {
		h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"address": nil})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch address")
		h.respondWithError(w, http.StatusInternalServerError, "Could not load address.")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"address": addr})
}

func (h *Handler) SaveAddress(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())

	var payload struct {
		Address *models.Address `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Address == nil {
		h.respondWithError(w, http.StatusBadRequest, "Address is required")
		return
	}

	id, err := h.store.UpsertAddress(session.UserID, payload.Address)
	if err != nil {
		h.logger.WithError(err).Error("Failed to save address")
		h.respondWithError(w, http.StatusInternalServerError, "Could not save address.")
		return
	}

	payload.Address.ID = id
	payload.Address.UserID = session.UserID
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"address": payload.Address})
}

// GetWishlist returns full catalog records for the caller's saved products.
func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())

	items, err := h.store.ListWishlist(session.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list wishlist")
		h.respondWithError(w, http.StatusInternalServerError, "Could not load wishlist.")
		return
	}
	if len(items) == 0 {
		h.respondWithJSON(w, http.StatusOK, []models.Product{})
		return
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	products, err := h.catalog.GetProducts(&catalog.ProductQuery{Include: ids})
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch wishlist products from catalog")
		h.respondWithError(w, http.StatusBadGateway, "Could not load wishlist products.")
		return
	}

	h.respondWithJSON(w, http.StatusOK, products)
}

func (h *Handler) AddWishlistItem(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())

	var payload struct {
		ProductID int64 `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ProductID == 0 {
		h.respondWithError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	if err := h.store.AddWishlistItem(session.UserID, payload.ProductID); err != nil {
		h.logger.WithError(err).Error("Failed to add wishlist item")
		h.respondWithError(w, http.StatusInternalServerError, "Could not update wishlist.")
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]string{"message": "Item added to wishlist"})
}

func (h *Handler) RemoveWishlistItem(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())

	var payload struct {
		ProductID int64 `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ProductID == 0 {
		h.respondWithError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	if err := h.store.RemoveWishlistItem(session.UserID, payload.ProductID); err != nil {
		h.logger.WithError(err).Error("Failed to remove wishlist item")
		h.respondWithError(w, http.StatusInternalServerError, "Could not update wishlist.")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Item removed from wishlist"})
}
