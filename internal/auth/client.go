// Package auth resolves bearer tokens against the external session provider.
// Identity is never minted locally; a token the provider rejects is invalid.
package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const RoleAdmin = "admin"

// Session is what the provider's verify endpoint returns for a live token.
type Session struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL, apiKey string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// VerifyToken asks the provider to resolve a session token. A 401/404 from
// the provider means the token is dead, not that the provider is down.
func (c *Client) VerifyToken(token string) (*Session, error) {
	req, err := http.NewRequest("GET", c.baseURL+"/v1/sessions/verify", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to auth provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth provider returned error status: %d", resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode auth provider response: %w", err)
	}
	if session.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &session, nil
}
