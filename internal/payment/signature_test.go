package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyClientSignature(t *testing.T) {
	v := NewVerifier("api-secret", "webhook-secret")

	sig := SignConfirmation("api-secret", "int_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.True(t, v.VerifyClientSignature("int_1", "pay_1", sig))

	// any input change invalidates the signature
	assert.False(t, v.VerifyClientSignature("int_2", "pay_1", sig))
	assert.False(t, v.VerifyClientSignature("int_1", "pay_2", sig))
	assert.False(t, v.VerifyClientSignature("int_1", "pay_1", sig[:63]+"0"))

	// signed with the wrong secret
	wrong := SignConfirmation("webhook-secret", "int_1", "pay_1")
	assert.False(t, v.VerifyClientSignature("int_1", "pay_1", wrong))
}

func TestVerifyWebhookSignature(t *testing.T) {
	v := NewVerifier("api-secret", "webhook-secret")
	body := []byte(`{"event":"payment.succeeded","payment":{"id":"pay_1","intent_id":"int_1"}}`)

	sig := SignWebhook("webhook-secret", body)
	assert.True(t, v.VerifyWebhookSignature(body, sig))

	// the signature binds the exact raw bytes
	assert.False(t, v.VerifyWebhookSignature(append(body, ' '), sig))

	// the two channels do not share secrets
	assert.False(t, v.VerifyWebhookSignature(body, SignWebhook("api-secret", body)))
}

func TestParseWebhook(t *testing.T) {
	ev, err := ParseWebhook([]byte(`{"event":"payment.succeeded","payment":{"id":"pay_1","intent_id":"int_1"}}`))
	assert.NoError(t, err)
	assert.Equal(t, EventPaymentSucceeded, ev.Event)
	assert.Equal(t, "pay_1", ev.Payment.ID)
	assert.Equal(t, "int_1", ev.Payment.IntentID)

	_, err = ParseWebhook([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseWebhook([]byte(`{"payment":{"id":"pay_1","intent_id":"int_1"}}`))
	assert.Error(t, err)

	_, err = ParseWebhook([]byte(`{"event":"payment.succeeded","payment":{"id":"pay_1"}}`))
	assert.Error(t, err)
}
