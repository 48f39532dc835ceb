// Package objstore uploads return-request images to the managed object
// store's public bucket and hands back the public URL.
package objstore

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const returnImagesBucket = "return_images"

type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL, serviceKey string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// UploadReturnImage stores one uploaded file under a per-user, time-keyed
// name and returns its public URL. filename only contributes its extension.
func (c *Client) UploadReturnImage(userID, filename, contentType string, body io.Reader) (string, error) {
	ext := path.Ext(filename)
	if ext == "" {
		ext = ".bin"
	}
	key := fmt.Sprintf("%s-%d%s", userID, time.Now().UnixMilli(), ext)
	if userID == "" {
		key = uuid.New().String() + ext
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, returnImagesBucket, key)
	req, err := http.NewRequest("POST", uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("object store returned error status: %d", resp.StatusCode)
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, returnImagesBucket, key)

	c.logger.WithFields(logrus.Fields{
		"key":  key,
		"size": len(data),
	}).Info("Return image uploaded")

	return publicURL, nil
}
