package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier checks the two confirmation signatures. The client-callback
// signature and the webhook signature use independent secrets.
type Verifier struct {
	apiSecret     []byte
	webhookSecret []byte
}

// NewVerifier returns a Verifier holding both gateway secrets.
func NewVerifier(apiSecret, webhookSecret string) *Verifier {
	return &Verifier{
		apiSecret:     []byte(apiSecret),
		webhookSecret: []byte(webhookSecret),
	}
}

// SignConfirmation computes the hex client-confirmation signature:
// HMAC-SHA256(apiSecret, intentID + "|" + paymentID). Exported so tests and
// gateway simulators can produce valid signatures.
func SignConfirmation(secret, intentID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(intentID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyClientSignature checks a client-supplied confirmation signature in
// constant time.
func (v *Verifier) VerifyClientSignature(intentID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, v.apiSecret)
	mac.Write([]byte(intentID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignWebhook computes the hex webhook signature over a raw request body.
func SignWebhook(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks the signature header value against the raw
// request body, using the webhook secret.
func (v *Verifier) VerifyWebhookSignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, v.webhookSecret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
