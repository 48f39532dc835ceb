package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/SkundKumar/yezee/internal/auth"
	"github.com/SkundKumar/yezee/internal/store"
	"github.com/SkundKumar/yezee/internal/ws"
	"github.com/SkundKumar/yezee/pkg/models"
)

const maxReturnFormSize = 10 << 20 // 10 MiB, image included

var allowedReturnStatuses = map[string]bool{
	models.ReturnStatusAccepted: true,
	models.ReturnStatusDenied:   true,
	models.ReturnStatusReturned: true,
}

// CreateReturn accepts a buyer's multipart return request. Every request
// starts at "Processing"; only admins move it from there.
func (h *Handler) CreateReturn(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())

	if err := r.ParseMultipartForm(maxReturnFormSize); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	orderID, err := strconv.ParseInt(r.FormValue("orderId"), 10, 64)
	if err != nil || orderID == 0 {
		h.respondWithError(w, http.StatusBadRequest, "Order ID is required")
		return
	}
	reason := r.FormValue("reason")
	if reason == "" {
		h.respondWithError(w, http.StatusBadRequest, "Reason is required")
		return
	}
	tagsIntact := r.FormValue("tagsIntact") == "true"

	var imageURL string
	file, header, err := r.FormFile("image")
	if err == nil && header.Size > 0 {
		defer file.Close()
		if h.uploader == nil {
			h.logger.Warn("Return image received but no uploader configured, skipping")
		} else {
			url, upErr := h.uploader.UploadReturnImage(session.UserID, header.Filename,
				header.Header.Get("Content-Type"), file)
			if upErr != nil {
				h.logger.WithError(upErr).Error("Failed to upload return image")
				h.respondWithError(w, http.StatusBadGateway, "Image upload failed.")
				return
			}
			imageURL = url
		}
	}

	request, err := h.store.InsertReturnRequest(&models.ReturnRequest{
		OrderID:    orderID,
		UserID:     session.UserID,
		Reason:     reason,
		ImageURL:   imageURL,
		TagsIntact: tagsIntact,
		Status:     models.ReturnStatusProcessing,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to insert return request")
		h.respondWithError(w, http.StatusInternalServerError, "Could not save return request.")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"request": request,
	})
}

func (h *Handler) AdminListReturns(w http.ResponseWriter, r *http.Request) {
	requests, err := h.store.ListReturnRequests()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list return requests")
		h.respondWithError(w, http.StatusInternalServerError, "Could not load return requests.")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

func (h *Handler) AdminGetReturn(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	request, err := h.store.GetReturnRequest(id)
	if errors.Is(err, store.ErrNotFound) {
		h.respondWithError(w, http.StatusNotFound, "Return request not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get return request")
		h.respondWithError(w, http.StatusInternalServerError, "Could not load return request.")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"request": request})
}

// AdminUpdateReturnStatus validates against the closed status set before
// touching the store; an unknown status mutates nothing.
func (h *Handler) AdminUpdateReturnStatus(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !allowedReturnStatuses[payload.Status] {
		h.respondWithError(w, http.StatusBadRequest, "Invalid status update.")
		return
	}

	request, err := h.store.UpdateReturnStatus(id, payload.Status)
	if errors.Is(err, store.ErrNotFound) {
		h.respondWithError(w, http.StatusNotFound, "Return request not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to update return request")
		h.respondWithError(w, http.StatusInternalServerError, "Could not update return request.")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(ws.EventReturnUpdated, request)
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"updatedRequest": request})
}
