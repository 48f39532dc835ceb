// ops-monitor tails the storefront's Kafka events and rebroadcasts them to
// admin dashboards over WebSocket.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/SkundKumar/yezee/internal/events"
	"github.com/SkundKumar/yezee/internal/ws"
)

type dashboardFeed struct {
	hub    *ws.Hub
	logger *logrus.Logger
}

func (f *dashboardFeed) HandleOrderCreated(event events.OrderCreatedEvent) error {
	f.logger.WithFields(logrus.Fields{
		"order_id":   event.OrderID,
		"receipt_id": event.ReceiptID,
		"total":      event.Total,
	}).Info("Order created")
	f.hub.Broadcast(ws.EventOrderCreated, event)
	return nil
}

func (f *dashboardFeed) HandleTrackingUpdated(event events.TrackingUpdatedEvent) error {
	f.logger.WithFields(logrus.Fields{
		"order_id": event.OrderID,
		"status":   event.Status,
	}).Info("Tracking updated")
	f.hub.Broadcast(ws.EventTrackingUpdated, event)
	return nil
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	kafkaBrokers := getEnv("KAFKA_BROKERS", "localhost:9092")
	port := getEnv("OPS_MONITOR_PORT", "8090")

	hub := ws.NewHub(logger)
	go hub.Run()

	feed := &dashboardFeed{hub: hub, logger: logger}

	consumer, err := events.NewKafkaConsumer(kafkaBrokers, "ops-monitor-group", feed, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create Kafka consumer")
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Error("Consumer stopped")
		}
	}()

	router := mux.NewRouter()
	router.HandleFunc("/ws", hub.HandleWebSocket)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"ops-monitor"}`))
	}).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", port).Info("Starting ops monitor")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down ops monitor...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Ops monitor stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
