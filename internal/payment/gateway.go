package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// IntentCreator opens a remote payment intent for an order total.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amount int64, currency, reference string) (string, error)
}

// Client talks to the payment gateway's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a gateway client with a caller-imposed timeout; a
// gateway that hangs is treated as a failed step like any other error.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type createIntentRequest struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Reference string `json:"reference"`
}

type createIntentResponse struct {
	IntentID string `json:"intent_id"`
}

// CreateIntent requests a payment intent for the given amount (minor units)
// and returns the gateway's opaque intent id.
func (c *Client) CreateIntent(ctx context.Context, amount int64, currency, reference string) (string, error) {
	body, err := json.Marshal(createIntentRequest{
		Amount:    amount,
		Currency:  currency,
		Reference: reference,
	})
	if err != nil {
		return "", fmt.Errorf("marshal intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/intents", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create intent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("create intent: gateway returned %d: %s", resp.StatusCode, snippet)
	}

	var out createIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode intent response: %w", err)
	}
	if out.IntentID == "" {
		return "", fmt.Errorf("gateway response missing intent_id")
	}
	return out.IntentID, nil
}
