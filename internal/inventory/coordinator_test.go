package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopflow/storefront/internal/catalog"
	"github.com/shopflow/storefront/internal/pricing"
)

// fakeProducts keeps stock in memory and can be told to fail a specific
// product's decrement, either with the conditional-guard error or a raw one.
type fakeProducts struct {
	stock      map[string]int64
	failOn     string
	failWith   error
	decrements []string
	addBacks   []string
}

func (f *fakeProducts) Get(ctx context.Context, productID string) (*catalog.Product, error) {
	s, ok := f.stock[productID]
	if !ok {
		return nil, nil
	}
	return &catalog.Product{ProductID: productID, Stock: s}, nil
}

func (f *fakeProducts) DecrementStock(ctx context.Context, productID string, quantity int64) error {
	if productID == f.failOn {
		return f.failWith
	}
	if f.stock[productID] < quantity {
		return catalog.ErrInsufficientStock
	}
	f.stock[productID] -= quantity
	f.decrements = append(f.decrements, productID)
	return nil
}

func (f *fakeProducts) AddStock(ctx context.Context, productID string, quantity int64) error {
	f.stock[productID] += quantity
	f.addBacks = append(f.addBacks, productID)
	return nil
}

func TestReserve_Success(t *testing.T) {
	products := &fakeProducts{stock: map[string]int64{"pA": 5, "pB": 2}}
	c := NewCoordinator(products)

	err := c.Reserve(context.Background(), []pricing.PricedLine{
		{ProductID: "pA", Quantity: 2},
		{ProductID: "pB", Quantity: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), products.stock["pA"])
	assert.Equal(t, int64(0), products.stock["pB"])
	assert.Empty(t, products.addBacks)
}

func TestReserve_PreCheckFailureWritesNothing(t *testing.T) {
	products := &fakeProducts{stock: map[string]int64{"pA": 5, "pB": 1}}
	c := NewCoordinator(products)

	err := c.Reserve(context.Background(), []pricing.PricedLine{
		{ProductID: "pA", Quantity: 2},
		{ProductID: "pB", Quantity: 2},
	})

	var se *StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "pB", se.ProductID)
	assert.Equal(t, int64(2), se.Requested)
	assert.Equal(t, int64(1), se.Available)

	// no decrement happened at all, pA included
	assert.Empty(t, products.decrements)
	assert.Equal(t, int64(5), products.stock["pA"])
}

func TestReserve_UnknownProduct(t *testing.T) {
	c := NewCoordinator(&fakeProducts{stock: map[string]int64{}})

	err := c.Reserve(context.Background(), []pricing.PricedLine{{ProductID: "ghost", Quantity: 1}})

	var se *StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, int64(0), se.Available)
}

func TestReserve_LostRaceRollsBack(t *testing.T) {
	// pre-check passes, then pB's decrement loses the conditional race
	products := &fakeProducts{
		stock:    map[string]int64{"pA": 5, "pB": 5},
		failOn:   "pB",
		failWith: catalog.ErrInsufficientStock,
	}
	c := NewCoordinator(products)

	err := c.Reserve(context.Background(), []pricing.PricedLine{
		{ProductID: "pA", Quantity: 2},
		{ProductID: "pB", Quantity: 2},
	})

	var se *StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "pB", se.ProductID)
	assert.Equal(t, int64(-1), se.Available)

	// pA's decrement was reversed
	assert.Equal(t, []string{"pA"}, products.addBacks)
	assert.Equal(t, int64(5), products.stock["pA"])
}

func TestReserve_StoreFailureRollsBack(t *testing.T) {
	storeErr := errors.New("throttled")
	products := &fakeProducts{
		stock:    map[string]int64{"pA": 5, "pB": 5},
		failOn:   "pB",
		failWith: storeErr,
	}
	c := NewCoordinator(products)

	err := c.Reserve(context.Background(), []pricing.PricedLine{
		{ProductID: "pA", Quantity: 2},
		{ProductID: "pB", Quantity: 2},
	})

	require.ErrorIs(t, err, storeErr)
	var se *StockError
	assert.False(t, errors.As(err, &se))
	assert.Equal(t, int64(5), products.stock["pA"])
}

func TestRelease(t *testing.T) {
	products := &fakeProducts{stock: map[string]int64{"pA": 3, "pB": 0}}
	c := NewCoordinator(products)

	c.Release(context.Background(), []pricing.PricedLine{
		{ProductID: "pA", Quantity: 2},
		{ProductID: "pB", Quantity: 2},
	})

	assert.Equal(t, int64(5), products.stock["pA"])
	assert.Equal(t, int64(2), products.stock["pB"])
}
