package orders

import "time"

// Order statuses
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
)

// Payment statuses
const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
)

// Fulfillment statuses, owned by the worker after confirmation.
const (
	FulfillmentNew        = "NEW"
	FulfillmentQueued     = "QUEUED"
	FulfillmentDispatched = "DISPATCHED"
)

// PaymentMethod is the typed payment variant the orchestrator switches on.
// It is parsed once at the API boundary; nothing downstream compares raw
// request strings.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentGateway        PaymentMethod = "GATEWAY"
)

// Valid reports whether the method is one of the known variants.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentGateway
}

// Address is the shipping/billing snapshot embedded in the order row.
type Address struct {
	Name       string `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Street     string `dynamodbav:"street,omitempty" json:"street,omitempty"`
	City       string `dynamodbav:"city,omitempty" json:"city,omitempty"`
	Region     string `dynamodbav:"region,omitempty" json:"region,omitempty"`
	Country    string `dynamodbav:"country" json:"country"`
	PostalCode string `dynamodbav:"postal_code,omitempty" json:"postal_code,omitempty"`
	Phone      string `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
}

// Order represents the item stored in the orders DynamoDB table. All
// amounts are integral minor currency units. It is mutated only through the
// conditional status/payment transitions in Store, never by field edits.
type Order struct {
	OrderID           string        `dynamodbav:"order_id"`              // PK
	CustomerID        string        `dynamodbav:"customer_id,omitempty"` // customer reference
	CartID            string        `dynamodbav:"cart_id,omitempty"`
	Status            string        `dynamodbav:"status"` // PENDING | CONFIRMED | CANCELLED
	PaymentMethod     PaymentMethod `dynamodbav:"payment_method"`
	PaymentStatus     string        `dynamodbav:"payment_status"`
	FulfillmentStatus string        `dynamodbav:"fulfillment_status,omitempty"`
	Subtotal          int64         `dynamodbav:"subtotal"`
	Discount          int64         `dynamodbav:"discount"`
	Tax               int64         `dynamodbav:"tax"`
	Shipping          int64         `dynamodbav:"shipping"`
	Total             int64         `dynamodbav:"total"`
	Currency          string        `dynamodbav:"currency"`
	ShippingAddress   Address       `dynamodbav:"shipping_address"`
	BillingAddress    Address       `dynamodbav:"billing_address"`
	GatewayIntentID   string        `dynamodbav:"gateway_intent_id,omitempty"` // GSI intent-index PK
	GatewayPaymentID  string        `dynamodbav:"gateway_payment_id,omitempty"`
	ConfirmedAt       *time.Time    `dynamodbav:"confirmed_at,omitempty"`
	CreatedAt         time.Time     `dynamodbav:"created_at"`
	UpdatedAt         time.Time     `dynamodbav:"updated_at"`
}

// Line is an order line row: a write-once snapshot of the product title and
// the discounted price at order-creation time. Later product price or
// discount changes never reach it.
type Line struct {
	OrderID        string    `dynamodbav:"order_id"` // PK
	LineID         string    `dynamodbav:"line_id"`  // SK
	ProductID      string    `dynamodbav:"product_id"`
	Title          string    `dynamodbav:"title"`
	Quantity       int64     `dynamodbav:"quantity"`
	UnitPrice      int64     `dynamodbav:"unit_price"` // post-discount, minor units
	LineTotal      int64     `dynamodbav:"line_total"`
	DiscountAmount int64     `dynamodbav:"discount_amount"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
}
