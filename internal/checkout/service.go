package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopflow/storefront/internal/aws"
	"github.com/shopflow/storefront/internal/cart"
	"github.com/shopflow/storefront/internal/delivery"
	"github.com/shopflow/storefront/internal/inventory"
	"github.com/shopflow/storefront/internal/orders"
	"github.com/shopflow/storefront/internal/payment"
	"github.com/shopflow/storefront/internal/pricing"
)

// CartStore is the cart surface the orchestrator drives.
type CartStore interface {
	ActiveCart(ctx context.Context, customerID string) (*cart.Cart, error)
	Lines(ctx context.Context, cartID string) ([]cart.Line, error)
	MarkConverted(ctx context.Context, cartID string) error
}

// OrderStore is the order surface the orchestrator drives.
type OrderStore interface {
	CreateWithLines(ctx context.Context, order orders.Order, lines []orders.Line) error
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	GetByIntentID(ctx context.Context, intentID string) (*orders.Order, error)
	Lines(ctx context.Context, orderID string) ([]orders.Line, error)
	UpdateStatus(ctx context.Context, orderID, expectedStatus, newStatus string) error
	ConfirmCashOnDelivery(ctx context.Context, orderID string) error
	MarkPaid(ctx context.Context, orderID, paymentID string) error
	MarkCashCollected(ctx context.Context, orderID string) error
}

// Pricer re-prices cart lines against current product rows.
type Pricer interface {
	PriceLines(ctx context.Context, lines []cart.Line) ([]pricing.PricedLine, error)
}

// ZoneResolver gates shipping destinations.
type ZoneResolver interface {
	Resolve(ctx context.Context, loc delivery.Location) (*delivery.Zone, error)
}

// StockReserver reserves and releases inventory for priced lines.
type StockReserver interface {
	Reserve(ctx context.Context, lines []pricing.PricedLine) error
	Release(ctx context.Context, lines []pricing.PricedLine)
}

// EventPublisher emits order-confirmed messages for the fulfillment worker.
type EventPublisher interface {
	PublishOrderConfirmed(ctx context.Context, msg aws.OrderConfirmedMessage) error
}

// Metrics is the best-effort counter surface.
type Metrics interface {
	Count(ctx context.Context, name string)
}

// Service sequences the checkout pipeline: cart resolution, pricing,
// delivery gating, intent creation, persistence, reservation, confirmation.
// It owns the order status state machine and the failure compensation.
type Service struct {
	carts     CartStore
	orders    OrderStore
	pricer    Pricer
	zones     ZoneResolver
	inventory StockReserver
	gateway   payment.IntentCreator
	verifier  *payment.Verifier
	publisher EventPublisher
	metrics   Metrics
	currency  string
	nowFunc   func() time.Time
}

// ServiceConfig groups the orchestrator's dependencies.
type ServiceConfig struct {
	Carts     CartStore
	Orders    OrderStore
	Pricer    Pricer
	Zones     ZoneResolver
	Inventory StockReserver
	Gateway   payment.IntentCreator
	Verifier  *payment.Verifier
	Publisher EventPublisher
	Metrics   Metrics
	Currency  string
}

// NewService creates the checkout orchestrator.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		carts:     cfg.Carts,
		orders:    cfg.Orders,
		pricer:    cfg.Pricer,
		zones:     cfg.Zones,
		inventory: cfg.Inventory,
		gateway:   cfg.Gateway,
		verifier:  cfg.Verifier,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		currency:  cfg.Currency,
		nowFunc:   time.Now,
	}
}

// CheckoutInput is a resolved checkout request. CustomerID is the explicit
// caller-supplied identity; there is no ambient session state.
type CheckoutInput struct {
	CustomerID      string
	Method          orders.PaymentMethod
	ShippingAddress orders.Address
	BillingAddress  *orders.Address // nil: billing follows shipping
	CartDiscount    int64
	Tax             int64
	Shipping        int64
	CorrelationID   string
}

// CheckoutResult is returned from a successful checkout.
type CheckoutResult struct {
	OrderID         string               `json:"order_id"`
	Status          string               `json:"status"`
	PaymentMethod   orders.PaymentMethod `json:"payment_method"`
	GatewayIntentID string               `json:"gateway_intent_id,omitempty"`
	Subtotal        int64                `json:"subtotal"`
	Discount        int64                `json:"discount"`
	Tax             int64                `json:"tax"`
	Shipping        int64                `json:"shipping"`
	Total           int64                `json:"total"`
	Currency        string               `json:"currency"`
}

// Checkout turns the customer's active cart into a durable order.
//
// The order row only exists after pricing, delivery gating and (for gateway
// payment) intent creation all pass, so those failures leave no state
// behind. Failures after the row exists cancel it before returning.
func (s *Service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.CustomerID == "" {
		return nil, newError(CodeValidationFailed, "customer id is required", nil)
	}
	if !input.Method.Valid() {
		return nil, newError(CodeValidationFailed, fmt.Sprintf("unknown payment method %q", input.Method), nil)
	}

	activeCart, err := s.carts.ActiveCart(ctx, input.CustomerID)
	if err != nil {
		return nil, newError(CodePersistence, "resolve active cart", err)
	}
	lines, err := s.carts.Lines(ctx, activeCart.CartID)
	if err != nil {
		return nil, newError(CodePersistence, "load cart lines", err)
	}
	if len(lines) == 0 {
		return nil, newError(CodeEmptyCart, "cart is empty, nothing to checkout", nil)
	}

	priced, err := s.pricer.PriceLines(ctx, lines)
	if err != nil {
		var nf *pricing.ProductNotFoundError
		if errors.As(err, &nf) {
			return nil, newError(CodeNotFound, nf.Error(), nil)
		}
		return nil, newError(CodePersistence, "price cart lines", err)
	}

	// delivery gate runs before any persistence
	if _, err := s.zones.Resolve(ctx, delivery.Location{
		Country: input.ShippingAddress.Country,
		Region:  input.ShippingAddress.Region,
		City:    input.ShippingAddress.City,
	}); err != nil {
		if errors.Is(err, delivery.ErrNotEligible) {
			return nil, newError(CodeDeliveryUnavailable, "no delivery zone covers the shipping address", nil)
		}
		return nil, newError(CodePersistence, "resolve delivery zone", err)
	}

	totals := pricing.ComputeTotals(priced, input.CartDiscount, input.Tax, input.Shipping)

	billing := input.ShippingAddress
	if input.BillingAddress != nil {
		billing = *input.BillingAddress
	}

	now := s.nowFunc()
	order := orders.Order{
		OrderID:           uuid.NewString(),
		CustomerID:        input.CustomerID,
		CartID:            activeCart.CartID,
		Status:            orders.StatusPending,
		PaymentMethod:     input.Method,
		PaymentStatus:     orders.PaymentStatusPending,
		FulfillmentStatus: orders.FulfillmentNew,
		Subtotal:          totals.Subtotal,
		Discount:          totals.Discount,
		Tax:               totals.Tax,
		Shipping:          totals.Shipping,
		Total:             totals.Total,
		Currency:          s.currency,
		ShippingAddress:   input.ShippingAddress,
		BillingAddress:    billing,
		CreatedAt:         now,
	}

	if input.Method == orders.PaymentGateway {
		intentID, err := s.gateway.CreateIntent(ctx, totals.Total, s.currency, order.OrderID)
		if err != nil {
			s.metrics.Count(ctx, aws.MetricCheckoutFailed)
			return nil, newError(CodePaymentGateway, "payment gateway rejected intent creation", err)
		}
		order.GatewayIntentID = intentID
	}

	orderLines := buildOrderLines(order.OrderID, priced)
	if err := s.orders.CreateWithLines(ctx, order, orderLines); err != nil {
		s.metrics.Count(ctx, aws.MetricCheckoutFailed)
		return nil, newError(CodePersistence, "persist order", err)
	}

	switch input.Method {
	case orders.PaymentCashOnDelivery:
		if err := s.confirmCashOrder(ctx, &order, priced, input.CorrelationID); err != nil {
			s.metrics.Count(ctx, aws.MetricCheckoutFailed)
			return nil, err
		}
	case orders.PaymentGateway:
		// cart stays active and stock stays untouched until a confirmation
		// channel wins the paid transition
	}

	s.metrics.Count(ctx, aws.MetricCheckoutCompleted)
	status := orders.StatusPending
	if input.Method == orders.PaymentCashOnDelivery {
		status = orders.StatusConfirmed
	}
	return &CheckoutResult{
		OrderID:         order.OrderID,
		Status:          status,
		PaymentMethod:   input.Method,
		GatewayIntentID: order.GatewayIntentID,
		Subtotal:        totals.Subtotal,
		Discount:        totals.Discount,
		Tax:             totals.Tax,
		Shipping:        totals.Shipping,
		Total:           totals.Total,
		Currency:        s.currency,
	}, nil
}

// confirmCashOrder reserves stock, confirms the order and converts the cart.
// Any failure cancels the order; a reservation that partially applied has
// already been rolled back by the coordinator.
func (s *Service) confirmCashOrder(ctx context.Context, order *orders.Order, priced []pricing.PricedLine, correlationID string) error {
	if err := s.inventory.Reserve(ctx, priced); err != nil {
		s.cancelOrder(ctx, order.OrderID, orders.StatusPending)
		var se *inventory.StockError
		if errors.As(err, &se) {
			return newError(CodeInsufficientStock, se.Error(), nil)
		}
		return newError(CodeStockUpdateFailed, "stock reservation failed", err)
	}

	if err := s.orders.ConfirmCashOnDelivery(ctx, order.OrderID); err != nil {
		s.inventory.Release(ctx, priced)
		s.cancelOrder(ctx, order.OrderID, orders.StatusPending)
		return newError(CodePersistence, "confirm order", err)
	}

	s.convertCart(ctx, order.CartID)
	s.publishConfirmed(ctx, order.OrderID, order.CustomerID, correlationID)
	return nil
}

// ConfirmClientPayment applies a client-channel gateway confirmation.
// Safe to call repeatedly for the same payment: only the first delivery
// reserves stock and publishes, later ones are acknowledged as no-ops.
func (s *Service) ConfirmClientPayment(ctx context.Context, intentID, paymentID, signature string) (*orders.Order, error) {
	if !s.verifier.VerifyClientSignature(intentID, paymentID, signature) {
		return nil, newError(CodeSignatureMismatch, "confirmation signature does not match", nil)
	}

	order, err := s.orders.GetByIntentID(ctx, intentID)
	if err != nil {
		return nil, newError(CodePersistence, "load order by intent", err)
	}
	if order == nil {
		return nil, newError(CodeNotFound, fmt.Sprintf("no order for intent %s", intentID), nil)
	}

	if err := s.applyPaidTransition(ctx, order, paymentID); err != nil {
		return nil, err
	}
	return s.reload(ctx, order.OrderID)
}

// HandleWebhook applies a webhook-channel gateway confirmation. The
// signature covers the raw body with the webhook secret. Events other than
// payment.succeeded are acknowledged and dropped.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.verifier.VerifyWebhookSignature(body, signature) {
		return newError(CodeSignatureMismatch, "webhook signature does not match", nil)
	}

	ev, err := payment.ParseWebhook(body)
	if err != nil {
		return newError(CodeValidationFailed, err.Error(), nil)
	}
	if ev.Event != payment.EventPaymentSucceeded {
		log.Printf("checkout: ignoring webhook event=%s", ev.Event)
		return nil
	}

	order, err := s.orders.GetByIntentID(ctx, ev.Payment.IntentID)
	if err != nil {
		return newError(CodePersistence, "load order by intent", err)
	}
	if order == nil {
		return newError(CodeNotFound, fmt.Sprintf("no order for intent %s", ev.Payment.IntentID), nil)
	}

	return s.applyPaidTransition(ctx, order, ev.Payment.ID)
}

// applyPaidTransition is the shared tail of both confirmation channels. The
// conditional MarkPaid is the idempotency gate: the winner reserves stock,
// converts the cart and publishes; a loser observes ErrAlreadyPaid and
// returns success without side effects.
func (s *Service) applyPaidTransition(ctx context.Context, order *orders.Order, paymentID string) error {
	err := s.orders.MarkPaid(ctx, order.OrderID, paymentID)
	if errors.Is(err, orders.ErrAlreadyPaid) {
		s.metrics.Count(ctx, aws.MetricDuplicateConfirmation)
		log.Printf("checkout: duplicate confirmation order=%s payment=%s", order.OrderID, paymentID)
		return nil
	}
	if err != nil {
		return newError(CodePersistence, "mark order paid", err)
	}

	orderLines, err := s.orders.Lines(ctx, order.OrderID)
	if err != nil {
		return newError(CodePersistence, "load order lines", err)
	}
	if err := s.inventory.Reserve(ctx, toPricedLines(orderLines)); err != nil {
		s.cancelOrder(ctx, order.OrderID, orders.StatusConfirmed)
		var se *inventory.StockError
		if errors.As(err, &se) {
			return newError(CodeInsufficientStock, se.Error(), nil)
		}
		return newError(CodeStockUpdateFailed, "stock reservation failed", err)
	}

	s.convertCart(ctx, order.CartID)
	s.publishConfirmed(ctx, order.OrderID, order.CustomerID, "")
	s.metrics.Count(ctx, aws.MetricPaymentConfirmed)
	return nil
}

// ConfirmCashCollected records cash collection for a delivered COD order.
// Idempotent: an already-paid order is a no-op success.
func (s *Service) ConfirmCashCollected(ctx context.Context, customerID, orderID string) (*orders.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, newError(CodePersistence, "load order", err)
	}
	if order == nil || order.CustomerID != customerID {
		return nil, newError(CodeNotFound, fmt.Sprintf("order not found: %s", orderID), nil)
	}
	if order.PaymentMethod != orders.PaymentCashOnDelivery {
		return nil, newError(CodeValidationFailed, "order is not cash on delivery", nil)
	}
	if order.Status != orders.StatusConfirmed {
		return nil, newError(CodeValidationFailed, fmt.Sprintf("order is %s, not confirmed", order.Status), nil)
	}

	err = s.orders.MarkCashCollected(ctx, orderID)
	if errors.Is(err, orders.ErrAlreadyPaid) {
		s.metrics.Count(ctx, aws.MetricDuplicateConfirmation)
		return order, nil
	}
	if err != nil {
		return nil, newError(CodePersistence, "mark cash collected", err)
	}
	return s.reload(ctx, orderID)
}

// GetOrder loads an order owned by the customer.
func (s *Service) GetOrder(ctx context.Context, customerID, orderID string) (*orders.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, newError(CodePersistence, "load order", err)
	}
	if order == nil || order.CustomerID != customerID {
		return nil, newError(CodeNotFound, fmt.Sprintf("order not found: %s", orderID), nil)
	}
	return order, nil
}

func (s *Service) reload(ctx context.Context, orderID string) (*orders.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, newError(CodePersistence, "reload order", err)
	}
	if order == nil {
		return nil, newError(CodeNotFound, fmt.Sprintf("order not found: %s", orderID), nil)
	}
	return order, nil
}

// cancelOrder is best-effort compensation; a failure here leaves the order
// in its prior state and is only logged, the original error still surfaces.
func (s *Service) cancelOrder(ctx context.Context, orderID, fromStatus string) {
	if err := s.orders.UpdateStatus(ctx, orderID, fromStatus, orders.StatusCancelled); err != nil {
		log.Printf("checkout: cancel order=%s from=%s failed: %v", orderID, fromStatus, err)
	}
}

// convertCart marks the cart converted; an already-converted cart is fine.
func (s *Service) convertCart(ctx context.Context, cartID string) {
	err := s.carts.MarkConverted(ctx, cartID)
	if err != nil && !errors.Is(err, cart.ErrNotActive) {
		log.Printf("checkout: mark cart=%s converted failed: %v", cartID, err)
	}
}

// publishConfirmed is best-effort: fulfillment can be replayed, the checkout
// response must not depend on the queue.
func (s *Service) publishConfirmed(ctx context.Context, orderID, customerID, correlationID string) {
	err := s.publisher.PublishOrderConfirmed(ctx, aws.OrderConfirmedMessage{
		OrderID:       orderID,
		CustomerID:    customerID,
		CorrelationID: correlationID,
	})
	if err != nil {
		log.Printf("checkout: publish order-confirmed order=%s failed: %v", orderID, err)
	}
}

func buildOrderLines(orderID string, priced []pricing.PricedLine) []orders.Line {
	lines := make([]orders.Line, 0, len(priced))
	for _, p := range priced {
		lines = append(lines, orders.Line{
			OrderID:        orderID,
			LineID:         uuid.NewString(),
			ProductID:      p.ProductID,
			Title:          p.Title,
			Quantity:       p.Quantity,
			UnitPrice:      p.UnitPrice,
			LineTotal:      p.LineTotal,
			DiscountAmount: p.DiscountAmount,
		})
	}
	return lines
}

func toPricedLines(lines []orders.Line) []pricing.PricedLine {
	priced := make([]pricing.PricedLine, 0, len(lines))
	for _, l := range lines {
		priced = append(priced, pricing.PricedLine{
			ProductID:      l.ProductID,
			Title:          l.Title,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			LineTotal:      l.LineTotal,
			DiscountAmount: l.DiscountAmount,
		})
	}
	return priced
}
