package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopflow/storefront/internal/aws"
)

// ErrInsufficientStock indicates a conditional decrement failed because the
// product no longer carries enough stock.
var ErrInsufficientStock = errors.New("insufficient stock")

// Store encapsulates operations on the products table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new products Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Get fetches a product by product_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, productID string) (*Product, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var p Product
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}
	return &p, nil
}

// DecrementStock subtracts quantity from the product's stock, guarded by
// `stock >= quantity` so the row can never go negative and the
// check-then-act window between a pre-check and this write stays closed.
// Returns ErrInsufficientStock when the guard fails.
func (s *Store) DecrementStock(ctx context.Context, productID string, quantity int64) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
		UpdateExpression:    awsString("SET stock = stock - :q, updated_at = :ua"),
		ConditionExpression: awsString("stock >= :q"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", quantity)},
			":ua": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}
	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrInsufficientStock
		}
		return fmt.Errorf("decrement stock: %w", err)
	}
	return nil
}

// AddStock adds quantity back to the product's stock. Used to reverse
// already-applied decrements when a later reservation step fails.
func (s *Store) AddStock(ctx context.Context, productID string, quantity int64) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
		UpdateExpression: awsString("SET stock = stock + :q, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", quantity)},
			":ua": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("add stock: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
