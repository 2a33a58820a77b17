package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/shopflow/storefront/internal/aws"
)

const customerStatusIndex = "customer-status-index"

// ErrNotActive indicates a status transition was attempted on a cart that is
// no longer active (already converted or abandoned).
var ErrNotActive = errors.New("cart is not active")

// Store encapsulates operations on the carts and cart_lines tables.
type Store struct {
	client     aws.DynamoDBAPI
	cartsTable string
	linesTable string
	nowFunc    func() time.Time
}

// NewStore creates a new cart Store over the carts and cart_lines tables.
func NewStore(client aws.DynamoDBAPI, cartsTable, linesTable string) *Store {
	return &Store{
		client:     client,
		cartsTable: cartsTable,
		linesTable: linesTable,
		nowFunc:    time.Now,
	}
}

// ActiveCart returns the customer's active cart, creating one lazily when
// none exists. The one-active-cart-per-customer convention is not enforced
// by the table; if multiple rows match, the first query hit wins.
func (s *Store) ActiveCart(ctx context.Context, customerID string) (*Cart, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.cartsTable,
		IndexName:              awsString(customerStatusIndex),
		KeyConditionExpression: awsString("customer_id = :c AND #s = :active"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c":      &types.AttributeValueMemberS{Value: customerID},
			":active": &types.AttributeValueMemberS{Value: StatusActive},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query active cart: %w", err)
	}

	if len(out.Items) > 0 {
		var c Cart
		if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
			return nil, fmt.Errorf("unmarshal cart: %w", err)
		}
		return &c, nil
	}

	// lazy creation on first access
	now := s.nowFunc()
	c := Cart{
		CartID:     uuid.NewString(),
		CustomerID: customerID,
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return nil, fmt.Errorf("marshal cart: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.cartsTable,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(cart_id)"),
	}); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return &c, nil
}

// Lines returns all lines of a cart, ordered by line_id.
func (s *Store) Lines(ctx context.Context, cartID string) ([]Line, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.linesTable,
		KeyConditionExpression: awsString("cart_id = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: cartID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}

	lines := make([]Line, 0, len(out.Items))
	for _, item := range out.Items {
		var l Line
		if err := attributevalue.UnmarshalMap(item, &l); err != nil {
			return nil, fmt.Errorf("unmarshal cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// MarkConverted transitions the cart ACTIVE -> CONVERTED. Returns
// ErrNotActive when the cart already left the active state, so a duplicate
// conversion attempt surfaces as a distinct condition rather than a write.
func (s *Store) MarkConverted(ctx context.Context, cartID string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.cartsTable,
		Key: map[string]types.AttributeValue{
			"cart_id": &types.AttributeValueMemberS{Value: cartID},
		},
		UpdateExpression:    awsString("SET #s = :converted, updated_at = :ua"),
		ConditionExpression: awsString("#s = :active"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":converted": &types.AttributeValueMemberS{Value: StatusConverted},
			":active":    &types.AttributeValueMemberS{Value: StatusActive},
			":ua":        &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}
	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrNotActive
		}
		return fmt.Errorf("mark converted: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
