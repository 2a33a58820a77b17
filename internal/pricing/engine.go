package pricing

import (
	"context"
	"fmt"

	"github.com/shopflow/storefront/internal/cart"
	"github.com/shopflow/storefront/internal/catalog"
)

// PricedLine is a cart line after re-pricing against the current product
// row. Title and prices are snapshots taken at pricing time; the order
// persister copies them verbatim so later product edits never leak back.
type PricedLine struct {
	ProductID      string
	Title          string
	Quantity       int64
	UnitPrice      int64 // post-discount, minor units, rounded per unit
	LineTotal      int64 // UnitPrice * Quantity
	DiscountAmount int64 // (original - discounted) * Quantity
}

// Totals are the order-level amounts, all in minor currency units.
type Totals struct {
	Subtotal int64
	Discount int64
	Tax      int64
	Shipping int64
	Total    int64
}

// ProductNotFoundError reports a cart line whose product no longer exists.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}

// ProductSource is the read surface the engine needs.
type ProductSource interface {
	Get(ctx context.Context, productID string) (*catalog.Product, error)
}

// Engine computes discounted per-item prices and order totals.
type Engine struct {
	products ProductSource
}

// NewEngine returns an Engine backed by the given product source.
func NewEngine(products ProductSource) *Engine {
	return &Engine{products: products}
}

// DiscountedUnitPrice applies the discount percentage to a minor-unit price,
// rounding half-up per unit. The discount is clamped to [0,100]. Totals are
// always sums of already-rounded unit prices, never re-rounded aggregates.
func DiscountedUnitPrice(price, discountPercent int64) int64 {
	if discountPercent < 0 {
		discountPercent = 0
	}
	if discountPercent > 100 {
		discountPercent = 100
	}
	return (price*(100-discountPercent) + 50) / 100
}

// PriceLines re-fetches each line's product and prices it with the current
// price and discount. The unit price observed when the line was added is
// ignored on purpose.
func (e *Engine) PriceLines(ctx context.Context, lines []cart.Line) ([]PricedLine, error) {
	priced := make([]PricedLine, 0, len(lines))
	for _, l := range lines {
		p, err := e.products.Get(ctx, l.ProductID)
		if err != nil {
			return nil, fmt.Errorf("fetch product %s: %w", l.ProductID, err)
		}
		if p == nil {
			return nil, &ProductNotFoundError{ProductID: l.ProductID}
		}

		unit := DiscountedUnitPrice(p.Price, p.DiscountPercent)
		priced = append(priced, PricedLine{
			ProductID:      p.ProductID,
			Title:          p.Title,
			Quantity:       l.Quantity,
			UnitPrice:      unit,
			LineTotal:      unit * l.Quantity,
			DiscountAmount: (p.Price - unit) * l.Quantity,
		})
	}
	return priced, nil
}

// ComputeTotals derives order-level amounts from priced lines. cartDiscount
// is any cart-level discount; tax and shipping are supplied by the caller.
// Line discounts are informational: subtotal already reflects them, so only
// the cart-level discount is subtracted from the total.
func ComputeTotals(lines []PricedLine, cartDiscount, tax, shipping int64) Totals {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.LineTotal
	}
	return Totals{
		Subtotal: subtotal,
		Discount: cartDiscount,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal - cartDiscount + tax + shipping,
	}
}
