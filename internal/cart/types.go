package cart

import "time"

// Cart statuses
const (
	StatusActive    = "ACTIVE"
	StatusConverted = "CONVERTED"
	StatusAbandoned = "ABANDONED"
)

// Cart represents the item stored in the carts DynamoDB table. One active
// cart per customer is maintained by convention: lookups go through the
// customer-status GSI and a missing active cart is created lazily.
type Cart struct {
	CartID     string    `dynamodbav:"cart_id"`     // PK
	CustomerID string    `dynamodbav:"customer_id"` // GSI customer-status-index PK
	Status     string    `dynamodbav:"status"`      // GSI customer-status-index SK
	CreatedAt  time.Time `dynamodbav:"created_at"`
	UpdatedAt  time.Time `dynamodbav:"updated_at"`
}

// Line is a cart line row. UnitPriceAtAdd is the price observed when the
// line was added; checkout re-prices from the product row and ignores it.
type Line struct {
	CartID         string    `dynamodbav:"cart_id"` // PK
	LineID         string    `dynamodbav:"line_id"` // SK
	ProductID      string    `dynamodbav:"product_id"`
	Quantity       int64     `dynamodbav:"quantity"`
	UnitPriceAtAdd int64     `dynamodbav:"unit_price_at_add"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
}
