package validation

// AddressPayload is the address shape accepted on checkout requests.
type AddressPayload struct {
	Name       string `json:"name,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	Country    string `json:"country" validate:"required"`
	PostalCode string `json:"postal_code,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// CheckoutRequest is the payload for POST /checkout. Amounts are integral
// minor currency units. BillingAddress omitted means billing follows
// shipping.
type CheckoutRequest struct {
	PaymentMethod   string          `json:"payment_method" validate:"required,oneof=CASH_ON_DELIVERY GATEWAY"`
	ShippingAddress AddressPayload  `json:"shipping_address" validate:"required"`
	BillingAddress  *AddressPayload `json:"billing_address,omitempty"`
	CartDiscount    int64           `json:"cart_discount" validate:"min=0"`
	Tax             int64           `json:"tax" validate:"min=0"`
	Shipping        int64           `json:"shipping" validate:"min=0"`
}

// ConfirmPaymentRequest is the payload for POST /checkout/confirm. The
// signature is the hex HMAC the gateway handed to the client.
type ConfirmPaymentRequest struct {
	IntentID  string `json:"intent_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required,len=64,hexadecimal"`
}
