package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopflow/storefront/internal/cart"
	"github.com/shopflow/storefront/internal/catalog"
)

type fakeProducts struct {
	byID map[string]*catalog.Product
	err  error
}

func (f *fakeProducts) Get(ctx context.Context, productID string) (*catalog.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byID[productID], nil
}

func TestDiscountedUnitPrice(t *testing.T) {
	cases := []struct {
		name     string
		price    int64
		discount int64
		want     int64
	}{
		{"no discount", 1000, 0, 1000},
		{"ten percent", 1000, 10, 900},
		{"rounds half up", 999, 10, 899}, // 899.1 -> 899
		{"rounds up at half", 990, 5, 941}, // 940.5 -> 941
		{"full discount", 1000, 100, 0},
		{"clamped below zero", 1000, -20, 1000},
		{"clamped above hundred", 1000, 150, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DiscountedUnitPrice(tc.price, tc.discount))
		})
	}
}

func TestPriceLines_UsesCurrentProductValues(t *testing.T) {
	products := &fakeProducts{byID: map[string]*catalog.Product{
		"pA": {ProductID: "pA", Title: "Widget A", Price: 1000, DiscountPercent: 10},
		"pB": {ProductID: "pB", Title: "Widget B", Price: 500, DiscountPercent: 0},
	}}
	e := NewEngine(products)

	// the stale unit_price_at_add must be ignored
	lines := []cart.Line{
		{CartID: "c1", LineID: "l1", ProductID: "pA", Quantity: 1, UnitPriceAtAdd: 1},
		{CartID: "c1", LineID: "l2", ProductID: "pB", Quantity: 2, UnitPriceAtAdd: 1},
	}

	priced, err := e.PriceLines(context.Background(), lines)
	require.NoError(t, err)
	require.Len(t, priced, 2)

	assert.Equal(t, int64(900), priced[0].UnitPrice)
	assert.Equal(t, int64(900), priced[0].LineTotal)
	assert.Equal(t, int64(100), priced[0].DiscountAmount)
	assert.Equal(t, "Widget A", priced[0].Title)

	assert.Equal(t, int64(500), priced[1].UnitPrice)
	assert.Equal(t, int64(1000), priced[1].LineTotal)
	assert.Equal(t, int64(0), priced[1].DiscountAmount)
}

func TestPriceLines_ProductGone(t *testing.T) {
	e := NewEngine(&fakeProducts{byID: map[string]*catalog.Product{}})

	_, err := e.PriceLines(context.Background(), []cart.Line{
		{ProductID: "missing", Quantity: 1},
	})

	var nf *ProductNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.ProductID)
}

func TestPriceLines_StoreError(t *testing.T) {
	e := NewEngine(&fakeProducts{err: errors.New("throttled")})

	_, err := e.PriceLines(context.Background(), []cart.Line{{ProductID: "p", Quantity: 1}})
	require.Error(t, err)
}

func TestComputeTotals(t *testing.T) {
	// line A: price 1000, 10% off, qty 1 -> 900
	// line B: price 500, no discount, qty 2 -> 1000
	lines := []PricedLine{
		{ProductID: "pA", Quantity: 1, UnitPrice: 900, LineTotal: 900, DiscountAmount: 100},
		{ProductID: "pB", Quantity: 2, UnitPrice: 500, LineTotal: 1000, DiscountAmount: 0},
	}

	totals := ComputeTotals(lines, 0, 50, 100)

	assert.Equal(t, int64(1900), totals.Subtotal)
	assert.Equal(t, int64(0), totals.Discount)
	assert.Equal(t, int64(2050), totals.Total)

	// the total invariant holds exactly
	assert.Equal(t, totals.Total, totals.Subtotal-totals.Discount+totals.Tax+totals.Shipping)
}

func TestComputeTotals_CartDiscount(t *testing.T) {
	lines := []PricedLine{{LineTotal: 1000}}
	totals := ComputeTotals(lines, 200, 0, 0)

	assert.Equal(t, int64(200), totals.Discount)
	assert.Equal(t, int64(800), totals.Total)
}
