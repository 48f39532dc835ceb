// Package gateway creates orders on the payment gateway. The browser drives
// the gateway's payment widget with the returned order id; this service never
// captures or verifies a payment itself.
package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SkundKumar/yezee/pkg/models"
)

type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL, keyID, keySecret string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder registers an order for amountMinor (minor currency units, e.g.
// paise) and returns the gateway's order record. An order that is never paid
// simply expires on the gateway side; there is no void call.
func (c *Client) CreateOrder(amountMinor int64, currency, receipt string) (*models.GatewayOrder, error) {
	c.logger.WithFields(logrus.Fields{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}).Info("Creating gateway order")

	jsonData, err := json.Marshal(createOrderRequest{
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gateway order: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/v1/orders", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway returned error status: %d", resp.StatusCode)
	}

	var order models.GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"gateway_order_id": order.ID,
		"receipt":          receipt,
	}).Info("Gateway order created")

	return &order, nil
}
