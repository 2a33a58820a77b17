package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/shopflow/storefront/internal/aws"
	"github.com/shopflow/storefront/internal/orders"
)

// OrderStore is the order surface the worker drives.
type OrderStore interface {
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	UpdateFulfillmentStatus(ctx context.Context, orderID, expected, newStatus string) error
}

// Metrics is the best-effort counter surface.
type Metrics interface {
	Count(ctx context.Context, name string)
}

// Processor handles SQS fulfillment messages for confirmed orders.
type Processor struct {
	orderStore OrderStore
	metrics    Metrics
}

// NewProcessor creates a new worker processor.
func NewProcessor(orderStore OrderStore, metrics Metrics) *Processor {
	return &Processor{
		orderStore: orderStore,
		metrics:    metrics,
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			log.Printf("worker error: %v", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg FulfillmentMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	log.Printf("[worker] received order=%s customer=%s corr=%s",
		msg.OrderID, msg.CustomerID, msg.CorrelationID)

	order, err := p.orderStore.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order: %w", err)
	}
	if order == nil {
		// Should never happen — DLQ if it does
		return fmt.Errorf("order not found: %s", msg.OrderID)
	}
	if order.Status != orders.StatusConfirmed {
		// confirmation was compensated away after publish; nothing to dispatch
		log.Printf("[worker] order=%s is %s, skipping fulfillment", msg.OrderID, order.Status)
		return nil
	}

	// NEW -> QUEUED (idempotent claim)
	err = p.orderStore.UpdateFulfillmentStatus(ctx, msg.OrderID, orders.FulfillmentNew, orders.FulfillmentQueued)
	if errors.Is(err, orders.ErrStatusMismatch) {
		// Duplicate delivery or competing worker:
		// DISPATCHED -> done, QUEUED -> another worker owns it; both swallow the message.
		o2, err := p.orderStore.Get(ctx, msg.OrderID)
		if err != nil {
			return fmt.Errorf("failed to re-fetch order: %w", err)
		}
		switch o2.FulfillmentStatus {
		case orders.FulfillmentDispatched:
			log.Printf("[worker] already dispatched order=%s", msg.OrderID)
			return nil
		case orders.FulfillmentQueued:
			log.Printf("[worker] duplicate fulfillment event for order=%s", msg.OrderID)
			return nil
		default:
			return fmt.Errorf("unexpected fulfillment status for order=%s: %s", msg.OrderID, o2.FulfillmentStatus)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to queue fulfillment: %w", err)
	}

	// hand-off to the shipping provider would go here

	// QUEUED -> DISPATCHED
	if err := p.orderStore.UpdateFulfillmentStatus(ctx, msg.OrderID, orders.FulfillmentQueued, orders.FulfillmentDispatched); err != nil {
		return fmt.Errorf("failed to dispatch fulfillment: %w", err)
	}

	p.metrics.Count(ctx, aws.MetricFulfillmentDispatched)
	log.Printf("[worker] dispatched order=%s", msg.OrderID)
	return nil
}
