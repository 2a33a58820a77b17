package main

// FulfillmentMessage is the payload sent from API -> SQS -> Worker when an
// order reaches the confirmed state.
type FulfillmentMessage struct {
	OrderID       string `json:"order_id"`
	CustomerID    string `json:"customer_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
