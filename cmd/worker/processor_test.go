package main

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/shopflow/storefront/internal/aws"
	"github.com/shopflow/storefront/internal/orders"
)

type fakeOrderStore struct {
	byID map[string]*orders.Order
}

func (f *fakeOrderStore) Get(ctx context.Context, orderID string) (*orders.Order, error) {
	o, ok := f.byID[orderID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) UpdateFulfillmentStatus(ctx context.Context, orderID, expected, newStatus string) error {
	o, ok := f.byID[orderID]
	if !ok || o.FulfillmentStatus != expected {
		return orders.ErrStatusMismatch
	}
	o.FulfillmentStatus = newStatus
	return nil
}

type countingMetrics struct {
	counts map[string]int
}

func (m *countingMetrics) Count(ctx context.Context, name string) {
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[name]++
}

func sqsEvent(body string) events.SQSEvent {
	return events.SQSEvent{Records: []events.SQSMessage{{Body: body}}}
}

func TestHandle_DispatchesConfirmedOrder(t *testing.T) {
	store := &fakeOrderStore{byID: map[string]*orders.Order{
		"o1": {OrderID: "o1", Status: orders.StatusConfirmed, FulfillmentStatus: orders.FulfillmentNew},
	}}
	metrics := &countingMetrics{}
	p := NewProcessor(store, metrics)

	err := p.Handle(context.Background(), sqsEvent(`{"order_id":"o1","customer_id":"c1"}`))
	if err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	if got := store.byID["o1"].FulfillmentStatus; got != orders.FulfillmentDispatched {
		t.Fatalf("expected DISPATCHED, got %s", got)
	}
	if metrics.counts[aws.MetricFulfillmentDispatched] != 1 {
		t.Fatalf("expected 1 dispatch metric, got %d", metrics.counts[aws.MetricFulfillmentDispatched])
	}
}

func TestHandle_DuplicateDeliveryIsNoop(t *testing.T) {
	store := &fakeOrderStore{byID: map[string]*orders.Order{
		"o1": {OrderID: "o1", Status: orders.StatusConfirmed, FulfillmentStatus: orders.FulfillmentDispatched},
	}}
	p := NewProcessor(store, &countingMetrics{})

	// redelivery after dispatch must be swallowed, not retried
	err := p.Handle(context.Background(), sqsEvent(`{"order_id":"o1","customer_id":"c1"}`))
	if err != nil {
		t.Fatalf("expected nil for duplicate delivery, got %v", err)
	}
	if got := store.byID["o1"].FulfillmentStatus; got != orders.FulfillmentDispatched {
		t.Fatalf("fulfillment status changed: %s", got)
	}
}

func TestHandle_QueuedByAnotherWorkerIsNoop(t *testing.T) {
	store := &fakeOrderStore{byID: map[string]*orders.Order{
		"o1": {OrderID: "o1", Status: orders.StatusConfirmed, FulfillmentStatus: orders.FulfillmentQueued},
	}}
	p := NewProcessor(store, &countingMetrics{})

	if err := p.Handle(context.Background(), sqsEvent(`{"order_id":"o1","customer_id":"c1"}`)); err != nil {
		t.Fatalf("expected nil for in-flight order, got %v", err)
	}
}

func TestHandle_SkipsNonConfirmedOrder(t *testing.T) {
	store := &fakeOrderStore{byID: map[string]*orders.Order{
		"o1": {OrderID: "o1", Status: orders.StatusCancelled, FulfillmentStatus: orders.FulfillmentNew},
	}}
	p := NewProcessor(store, &countingMetrics{})

	if err := p.Handle(context.Background(), sqsEvent(`{"order_id":"o1","customer_id":"c1"}`)); err != nil {
		t.Fatalf("expected nil for cancelled order, got %v", err)
	}
	if got := store.byID["o1"].FulfillmentStatus; got != orders.FulfillmentNew {
		t.Fatalf("fulfillment status changed on cancelled order: %s", got)
	}
}

func TestHandle_MissingOrderErrors(t *testing.T) {
	p := NewProcessor(&fakeOrderStore{byID: map[string]*orders.Order{}}, &countingMetrics{})

	if err := p.Handle(context.Background(), sqsEvent(`{"order_id":"ghost","customer_id":"c1"}`)); err == nil {
		t.Fatal("expected error for missing order")
	}
}

func TestHandle_BadBodyErrors(t *testing.T) {
	p := NewProcessor(&fakeOrderStore{byID: map[string]*orders.Order{}}, &countingMetrics{})

	if err := p.Handle(context.Background(), sqsEvent(`not json`)); err == nil {
		t.Fatal("expected error for invalid body")
	}
}
