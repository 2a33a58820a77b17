package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// cartMock is a minimal in-memory mock of the carts + cart_lines tables.
type cartMock struct {
	mu    sync.Mutex
	carts map[string]map[string]types.AttributeValue
	lines []map[string]types.AttributeValue
}

func newCartMock() *cartMock {
	return &cartMock{carts: map[string]map[string]types.AttributeValue{}}
}

func str(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (m *cartMock) addLine(l Line) {
	item, _ := attributevalue.MarshalMap(l)
	m.lines = append(m.lines, item)
}

func (m *cartMock) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	return &dyn.GetItemOutput{}, nil
}

func (m *cartMock) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := str(in.Item, "cart_id")
	if in.ConditionExpression != nil && *in.ConditionExpression == "attribute_not_exists(cart_id)" {
		if _, ok := m.carts[id]; ok {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.carts[id] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *cartMock) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := in.Key["cart_id"].(*types.AttributeValueMemberS).Value
	item, ok := m.carts[id]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	if str(item, "status") != StatusActive {
		return nil, &types.ConditionalCheckFailedException{}
	}
	item["status"] = in.ExpressionAttributeValues[":converted"]
	return &dyn.UpdateItemOutput{}, nil
}

func (m *cartMock) Query(ctx context.Context, in *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := &dyn.QueryOutput{}
	if in.IndexName != nil && *in.IndexName == customerStatusIndex {
		customer := in.ExpressionAttributeValues[":c"].(*types.AttributeValueMemberS).Value
		for _, item := range m.carts {
			if str(item, "customer_id") == customer && str(item, "status") == StatusActive {
				out.Items = append(out.Items, item)
			}
		}
		return out, nil
	}
	cartID := in.ExpressionAttributeValues[":c"].(*types.AttributeValueMemberS).Value
	for _, item := range m.lines {
		if str(item, "cart_id") == cartID {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

func (m *cartMock) TransactWriteItems(ctx context.Context, in *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return &dyn.TransactWriteItemsOutput{}, nil
}

func TestActiveCart_LazyCreate(t *testing.T) {
	mock := newCartMock()
	s := NewStore(mock, "carts", "cart_lines")

	c, err := s.ActiveCart(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("ActiveCart error: %v", err)
	}
	if c.CustomerID != "cust-1" || c.Status != StatusActive || c.CartID == "" {
		t.Fatalf("unexpected cart: %+v", c)
	}

	// a second access returns the same cart, not a new one
	c2, err := s.ActiveCart(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("second ActiveCart error: %v", err)
	}
	if c2.CartID != c.CartID {
		t.Fatalf("expected same cart %s, got %s", c.CartID, c2.CartID)
	}
	if len(mock.carts) != 1 {
		t.Fatalf("expected 1 cart row, got %d", len(mock.carts))
	}
}

func TestLines(t *testing.T) {
	mock := newCartMock()
	s := NewStore(mock, "carts", "cart_lines")

	mock.addLine(Line{CartID: "cart-1", LineID: "l1", ProductID: "p1", Quantity: 2, UnitPriceAtAdd: 500})
	mock.addLine(Line{CartID: "cart-1", LineID: "l2", ProductID: "p2", Quantity: 1, UnitPriceAtAdd: 900})
	mock.addLine(Line{CartID: "cart-2", LineID: "l3", ProductID: "p3", Quantity: 1, UnitPriceAtAdd: 100})

	lines, err := s.Lines(context.Background(), "cart-1")
	if err != nil {
		t.Fatalf("Lines error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].ProductID != "p1" || lines[0].Quantity != 2 {
		t.Fatalf("unexpected line: %+v", lines[0])
	}
}

func TestMarkConverted(t *testing.T) {
	mock := newCartMock()
	s := NewStore(mock, "carts", "cart_lines")

	c, err := s.ActiveCart(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("ActiveCart error: %v", err)
	}

	if err := s.MarkConverted(context.Background(), c.CartID); err != nil {
		t.Fatalf("MarkConverted error: %v", err)
	}

	// duplicate conversion is a distinct condition, not a write
	if err := s.MarkConverted(context.Background(), c.CartID); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
}
