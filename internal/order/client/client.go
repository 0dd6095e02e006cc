// Package orderclient is the HTTP client the payment service uses to push
// payment outcomes back to the API service's internal order endpoints.
package orderclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ms-foodcourt/internal/logger"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *logger.Logger
}

func New(baseURL, token string, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  log,
	}
}

func (c *Client) MarkPaid(orderID int64, paymentID string) error {
	return c.post(fmt.Sprintf("%s/internal/orders/%d/mark-paid", c.baseURL, orderID),
		map[string]string{"payment_id": paymentID})
}

func (c *Client) MarkPaymentFailed(orderID int64) error {
	return c.post(fmt.Sprintf("%s/internal/orders/%d/mark-failed", c.baseURL, orderID), nil)
}

func (c *Client) post(url string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("ORDER_CLIENT", fmt.Sprintf("Request to %s failed: %v", url, err))
		return fmt.Errorf("order service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("ORDER_CLIENT", fmt.Sprintf("Request to %s returned %d: %s", url, resp.StatusCode, detail))
		return fmt.Errorf("order service returned status %d", resp.StatusCode)
	}

	return nil
}
