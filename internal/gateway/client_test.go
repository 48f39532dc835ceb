package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestCreateOrder(t *testing.T) {
	var gotAmount int64
	var gotReceipt string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key_id" || pass != "key_secret" {
			t.Fatalf("missing basic auth")
		}

		var payload struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
			Receipt  string `json:"receipt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatal(err)
		}
		gotAmount = payload.Amount
		gotReceipt = payload.Receipt

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       "order_abc123",
			"amount":   payload.Amount,
			"currency": payload.Currency,
			"receipt":  payload.Receipt,
			"status":   "created",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key_id", "key_secret", testLogger())

	order, err := client.CreateOrder(131000, "INR", "rcpt_1")
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ID != "order_abc123" || order.Amount != 131000 {
		t.Fatalf("order: %+v", order)
	}
	if gotAmount != 131000 || gotReceipt != "rcpt_1" {
		t.Fatalf("request: amount=%d receipt=%q", gotAmount, gotReceipt)
	}
}

func TestCreateOrderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "bad", "creds", testLogger())

	if _, err := client.CreateOrder(100, "INR", "rcpt_1"); err == nil {
		t.Fatal("expected error for 401 response")
	}
}
