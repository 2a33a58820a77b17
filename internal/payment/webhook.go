package payment

import (
	"encoding/json"
	"fmt"
)

// SignatureHeader carries the webhook signature computed over the raw body.
const SignatureHeader = "X-Gateway-Signature"

// EventPaymentSucceeded is the only webhook event that applies the
// confirmed/paid transition; everything else is acknowledged and dropped.
const EventPaymentSucceeded = "payment.succeeded"

// WebhookPayment is the nested payment record inside a webhook event.
type WebhookPayment struct {
	ID       string `json:"id"`
	IntentID string `json:"intent_id"`
}

// WebhookEvent is the gateway's webhook body.
type WebhookEvent struct {
	Event   string         `json:"event"`
	Payment WebhookPayment `json:"payment"`
}

// ParseWebhook decodes a webhook body and checks the fields the pipeline
// needs are present. Signature verification happens before this, over the
// raw bytes.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("decode webhook body: %w", err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("webhook missing event name")
	}
	if ev.Payment.ID == "" || ev.Payment.IntentID == "" {
		return nil, fmt.Errorf("webhook missing payment id or intent id")
	}
	return &ev, nil
}
