package catalog

import "time"

// Product is the item stored in the products DynamoDB table. Price is in
// integral minor currency units; DiscountPercent is 0-100. Checkout always
// re-reads these, cart-line snapshots are never trusted for pricing.
type Product struct {
	ProductID       string    `dynamodbav:"product_id"` // PK
	Title           string    `dynamodbav:"title"`
	Price           int64     `dynamodbav:"price"`
	DiscountPercent int64     `dynamodbav:"discount_percent"`
	Stock           int64     `dynamodbav:"stock"`
	CreatedAt       time.Time `dynamodbav:"created_at"`
	UpdatedAt       time.Time `dynamodbav:"updated_at"`
}
