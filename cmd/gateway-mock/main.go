// gateway-mock is a local stand-in for the payment gateway and the session
// provider, so the storefront can run without live credentials.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/SkundKumar/yezee/pkg/models"
)

type gatewayStore struct {
	orders map[string]*models.GatewayOrder
	mutex  sync.RWMutex
	logger *logrus.Logger
}

func newGatewayStore(logger *logrus.Logger) *gatewayStore {
	return &gatewayStore{
		orders: make(map[string]*models.GatewayOrder),
		logger: logger,
	}
}

func (s *gatewayStore) createOrder(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if payload.Amount <= 0 || payload.Currency == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "amount and currency are required"})
		return
	}

	order := &models.GatewayOrder{
		ID:       fmt.Sprintf("order_mock_%012x", rand.Int63()),
		Amount:   payload.Amount,
		Currency: payload.Currency,
		Receipt:  payload.Receipt,
		Status:   "created",
	}

	s.mutex.Lock()
	s.orders[order.ID] = order
	s.mutex.Unlock()

	s.logger.WithFields(logrus.Fields{
		"gateway_order_id": order.ID,
		"amount":           order.Amount,
		"receipt":          order.Receipt,
	}).Info("Mock gateway order created")

	respondJSON(w, http.StatusOK, order)
}

func (s *gatewayStore) getOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mutex.RLock()
	order, ok := s.orders[id]
	s.mutex.RUnlock()

	if !ok {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// verifySession fakes the auth provider: any non-empty bearer token is a
// valid user, and tokens prefixed "admin" carry the admin role.
func verifySession(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}

	token := parts[1]
	role := ""
	if strings.HasPrefix(token, "admin") {
		role = "admin"
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"user_id": "user_" + token,
		"role":    role,
	})
}

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	port := getEnv("GATEWAY_MOCK_PORT", "8084")

	store := newGatewayStore(logger)

	router := mux.NewRouter()
	router.HandleFunc("/v1/orders", store.createOrder).Methods("POST")
	router.HandleFunc("/v1/orders/{id}", store.getOrder).Methods("GET")
	router.HandleFunc("/v1/sessions/verify", verifySession).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "gateway-mock"})
	}).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", port).Info("Starting gateway mock")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gateway mock...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Gateway mock stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
