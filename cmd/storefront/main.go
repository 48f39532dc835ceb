package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/SkundKumar/yezee/internal/auth"
	"github.com/SkundKumar/yezee/internal/catalog"
	"github.com/SkundKumar/yezee/internal/checkout"
	"github.com/SkundKumar/yezee/internal/events"
	"github.com/SkundKumar/yezee/internal/gateway"
	"github.com/SkundKumar/yezee/internal/httpapi"
	"github.com/SkundKumar/yezee/internal/objstore"
	"github.com/SkundKumar/yezee/internal/store"
	"github.com/SkundKumar/yezee/internal/ws"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	// Database configuration
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "storefront")
	dbPassword := getEnv("DB_PASSWORD", "storefront")
	dbName := getEnv("DB_NAME", "storefront")

	// External platforms
	catalogURL := getEnv("CATALOG_URL", "http://localhost:8083/wp-json/wc/v3")
	catalogKey := getEnv("CATALOG_CONSUMER_KEY", "")
	catalogSecret := getEnv("CATALOG_CONSUMER_SECRET", "")
	gatewayURL := getEnv("GATEWAY_URL", "https://api.razorpay.com")
	gatewayKeyID := getEnv("GATEWAY_KEY_ID", "")
	gatewayKeySecret := getEnv("GATEWAY_KEY_SECRET", "")
	authURL := getEnv("AUTH_PROVIDER_URL", "http://localhost:8084")
	authAPIKey := getEnv("AUTH_PROVIDER_API_KEY", "")
	objstoreURL := getEnv("OBJSTORE_URL", "")
	objstoreKey := getEnv("OBJSTORE_SERVICE_KEY", "")

	// Kafka is optional; without brokers the best-effort event publishing
	// is simply skipped.
	kafkaBrokers := getEnv("KAFKA_BROKERS", "")

	port := getEnv("STOREFRONT_PORT", "8080")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Wait for database to be ready
	for i := 0; i < 30; i++ {
		if err := db.Ping(); err == nil {
			logger.Info("Database connection established")
			break
		}
		logger.Info("Waiting for database...")
		time.Sleep(2 * time.Second)
	}

	if err := store.CreateTables(db); err != nil {
		logger.WithError(err).Fatal("Failed to create tables")
	}

	st := store.New(db, logger)
	catalogClient := catalog.NewClient(catalogURL, catalogKey, catalogSecret, logger)
	gatewayClient := gateway.NewClient(gatewayURL, gatewayKeyID, gatewayKeySecret, logger)
	authClient := auth.NewClient(authURL, authAPIKey, logger)

	var producer *events.KafkaProducer
	if kafkaBrokers != "" {
		producer, err = events.NewKafkaProducer(kafkaBrokers, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Kafka producer")
		}
		defer producer.Close()
		logger.WithField("brokers", kafkaBrokers).Info("Kafka producer configured")
	} else {
		logger.Info("Kafka brokers not configured - order events disabled")
	}

	var checkoutSvc *checkout.Service
	if producer != nil {
		checkoutSvc = checkout.New(st, gatewayClient, producer, logger)
	} else {
		checkoutSvc = checkout.New(st, gatewayClient, nil, logger)
	}

	wsHub := ws.NewHub(logger)
	go wsHub.Run()

	handler := httpapi.NewHandler(st, catalogClient, checkoutSvc, logger)
	handler.SetDashboardHub(wsHub)
	if producer != nil {
		handler.SetTrackingPublisher(producer)
	}
	if objstoreURL != "" {
		handler.SetImageUploader(objstore.NewClient(objstoreURL, objstoreKey, logger))
	} else {
		logger.Info("Object store not configured - return images disabled")
	}

	router := mux.NewRouter()
	handler.Routes(router, authClient)
	router.HandleFunc("/ws", wsHub.HandleWebSocket)

	router.Use(corsMiddleware())
	router.Use(loggingMiddleware(logger))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", port).Info("Starting storefront service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
}

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			logger.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			}).Info("Request received")

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).Milliseconds(),
			}).Info("Request completed")
		})
	}
}

func corsMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
