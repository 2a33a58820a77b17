package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopflow/storefront/internal/catalog"
	"github.com/shopflow/storefront/internal/pricing"
)

// StockError reports insufficient inventory for a specific product, either
// at pre-check time or when a conditional decrement lost a race.
type StockError struct {
	ProductID string
	Requested int64
	Available int64
}

func (e *StockError) Error() string {
	if e.Available >= 0 {
		return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for product %s: requested %d", e.ProductID, e.Requested)
}

// ProductStore is the surface the coordinator drives.
type ProductStore interface {
	Get(ctx context.Context, productID string) (*catalog.Product, error)
	DecrementStock(ctx context.Context, productID string, quantity int64) error
	AddStock(ctx context.Context, productID string, quantity int64) error
}

// Coordinator validates and decrements stock for a set of priced lines,
// reversing already-applied decrements when a later one fails. The reversal
// is best-effort compensation, not a transaction; the per-line conditional
// decrement is what keeps stock from going negative under concurrency.
type Coordinator struct {
	products ProductStore
}

// NewCoordinator returns a Coordinator over the given product store.
func NewCoordinator(products ProductStore) *Coordinator {
	return &Coordinator{products: products}
}

// Reserve checks stock for every line before writing anything, then applies
// the decrements sequentially. On any failure at line k it restores the
// stock of lines 0..k-1 and returns the failure; when the failure is a lost
// decrement race it comes back as a *StockError.
func (c *Coordinator) Reserve(ctx context.Context, lines []pricing.PricedLine) error {
	// pre-check: no writes until every line clears
	for _, l := range lines {
		p, err := c.products.Get(ctx, l.ProductID)
		if err != nil {
			return fmt.Errorf("stock pre-check %s: %w", l.ProductID, err)
		}
		if p == nil {
			return &StockError{ProductID: l.ProductID, Requested: l.Quantity, Available: 0}
		}
		if p.Stock < l.Quantity {
			return &StockError{ProductID: l.ProductID, Requested: l.Quantity, Available: p.Stock}
		}
	}

	for i, l := range lines {
		err := c.products.DecrementStock(ctx, l.ProductID, l.Quantity)
		if err == nil {
			continue
		}

		c.rollback(ctx, lines[:i])

		if errors.Is(err, catalog.ErrInsufficientStock) {
			// a concurrent checkout moved the stock between pre-check and apply
			return &StockError{ProductID: l.ProductID, Requested: l.Quantity, Available: -1}
		}
		return fmt.Errorf("decrement stock %s: %w", l.ProductID, err)
	}
	return nil
}

// Release adds the reserved quantities back. Used when a step after a
// successful reservation fails and the order is being cancelled.
func (c *Coordinator) Release(ctx context.Context, lines []pricing.PricedLine) {
	c.rollback(ctx, lines)
}

func (c *Coordinator) rollback(ctx context.Context, applied []pricing.PricedLine) {
	for _, l := range applied {
		if err := c.products.AddStock(ctx, l.ProductID, l.Quantity); err != nil {
			// nothing left to do but record it; stock for this product is now off by l.Quantity
			log.Printf("inventory: rollback failed for product=%s qty=%d: %v", l.ProductID, l.Quantity, err)
		}
	}
}
