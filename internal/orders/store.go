package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/shopflow/storefront/internal/aws"
)

const intentIndex = "intent-index"

// TransactWriteItems accepts at most 100 items; orders with more lines fall
// back to sequential puts with cancel-on-failure compensation.
const maxTransactItems = 100

// ErrStatusMismatch indicates a conditional status transition found the
// order in a different state than expected.
var ErrStatusMismatch = errors.New("status mismatch/conditional failed")

// ErrAlreadyPaid indicates a paid transition found the order already paid.
// Duplicate confirmations treat this as a no-op, never as a failure.
var ErrAlreadyPaid = errors.New("order already paid")

// Store encapsulates operations on the orders and order_lines tables.
type Store struct {
	client     aws.DynamoDBAPI
	tableName  string
	linesTable string
	nowFunc    func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName, linesTable string) *Store {
	return &Store{
		client:     client,
		tableName:  tableName,
		linesTable: linesTable,
		nowFunc:    time.Now,
	}
}

// CreateWithLines persists the order row and its line rows as one unit of
// the checkout attempt. When everything fits a single TransactWriteItems
// call, either all rows land or none do. Oversized orders are written order
// row first, then lines; a line failure there marks the already-written
// order CANCELLED before the error is returned, so a half-written order is
// never left looking live.
func (s *Store) CreateWithLines(ctx context.Context, order Order, lines []Line) error {
	now := s.nowFunc()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	orderMap, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order item: %w", err)
	}

	lineMaps := make([]map[string]types.AttributeValue, 0, len(lines))
	for i := range lines {
		if lines[i].CreatedAt.IsZero() {
			lines[i].CreatedAt = now
		}
		m, err := attributevalue.MarshalMap(lines[i])
		if err != nil {
			return fmt.Errorf("marshal order line: %w", err)
		}
		lineMaps = append(lineMaps, m)
	}

	if 1+len(lineMaps) <= maxTransactItems {
		return s.createTransact(ctx, orderMap, lineMaps)
	}
	return s.createSequential(ctx, order.OrderID, orderMap, lineMaps)
}

func (s *Store) createTransact(ctx context.Context, orderMap map[string]types.AttributeValue, lineMaps []map[string]types.AttributeValue) error {
	transactItems := make([]types.TransactWriteItem, 0, 1+len(lineMaps))
	transactItems = append(transactItems, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           &s.tableName,
			Item:                orderMap,
			ConditionExpression: awsString("attribute_not_exists(order_id)"),
		},
	})
	for _, m := range lineMaps {
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{
				TableName: &s.linesTable,
				Item:      m,
			},
		})
	}

	_, err := s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		// the typed exception is not always preserved through middleware;
		// fall back to the smithy error code
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("transaction canceled (likely duplicate order id): %w", err)
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "TransactionCanceledException" {
			return fmt.Errorf("transaction canceled (likely duplicate order id): %w", err)
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

func (s *Store) createSequential(ctx context.Context, orderID string, orderMap map[string]types.AttributeValue, lineMaps []map[string]types.AttributeValue) error {
	_, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                orderMap,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	})
	if err != nil {
		return fmt.Errorf("put order: %w", err)
	}

	for i, m := range lineMaps {
		if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
			TableName: &s.linesTable,
			Item:      m,
		}); err != nil {
			// the order row exists with partial lines; cancel it before surfacing
			if cancelErr := s.UpdateStatus(ctx, orderID, StatusPending, StatusCancelled); cancelErr != nil {
				return fmt.Errorf("put order line %d: %v (cancel order: %w)", i, err, cancelErr)
			}
			return fmt.Errorf("put order line %d: %w", i, err)
		}
	}
	return nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// GetByIntentID looks the order up through the gateway-intent GSI. The
// webhook path only knows the intent id. Returns (nil, nil) if not found.
func (s *Store) GetByIntentID(ctx context.Context, intentID string) (*Order, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              awsString(intentIndex),
		KeyConditionExpression: awsString("gateway_intent_id = :i"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":i": &types.AttributeValueMemberS{Value: intentID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query by intent: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Items[0], &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// Lines returns the order's line rows.
func (s *Store) Lines(ctx context.Context, orderID string) ([]Line, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.linesTable,
		KeyConditionExpression: awsString("order_id = :o"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":o": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	lines := make([]Line, 0, len(out.Items))
	for _, item := range out.Items {
		var l Line
		if err := attributevalue.UnmarshalMap(item, &l); err != nil {
			return nil, fmt.Errorf("unmarshal order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// UpdateStatus conditionally updates the order status from expected -> newStatus.
// Returns nil on success, ErrStatusMismatch if the condition failed.
func (s *Store) UpdateStatus(ctx context.Context, orderID, expectedStatus, newStatus string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET #s = :new, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: newStatus},
			":expected": &types.AttributeValueMemberS{Value: expectedStatus},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("#s = :expected"),
	}

	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// ConfirmCashOnDelivery transitions PENDING -> CONFIRMED and stamps the
// confirmation time. Returns ErrStatusMismatch when the order already left
// the pending state.
func (s *Store) ConfirmCashOnDelivery(ctx context.Context, orderID string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET #s = :confirmed, confirmed_at = :ca, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":confirmed": &types.AttributeValueMemberS{Value: StatusConfirmed},
			":pending":   &types.AttributeValueMemberS{Value: StatusPending},
			":ca":        &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":ua":        &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("#s = :pending"),
	}
	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("confirm cod: %w", err)
	}
	return nil
}

// MarkPaid applies the confirmed/paid transition and records the gateway
// payment id. The `payment_status <> PAID` guard is the idempotency gate
// shared by the client-confirmation and webhook channels: exactly one
// delivery wins it, every later one gets ErrAlreadyPaid.
func (s *Store) MarkPaid(ctx context.Context, orderID, paymentID string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET #s = :confirmed, payment_status = :paid, gateway_payment_id = :pid, confirmed_at = :ca, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":confirmed": &types.AttributeValueMemberS{Value: StatusConfirmed},
			":paid":      &types.AttributeValueMemberS{Value: PaymentStatusPaid},
			":pid":       &types.AttributeValueMemberS{Value: paymentID},
			":ca":        &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":ua":        &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("payment_status <> :paid"),
	}
	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrAlreadyPaid
		}
		return fmt.Errorf("mark paid: %w", err)
	}
	return nil
}

// MarkCashCollected records that cash was collected for a delivered COD
// order. Same idempotency gate as MarkPaid: a repeat collection report gets
// ErrAlreadyPaid and is treated as a no-op by the caller.
func (s *Store) MarkCashCollected(ctx context.Context, orderID string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET payment_status = :paid, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":paid": &types.AttributeValueMemberS{Value: PaymentStatusPaid},
			":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("payment_status <> :paid"),
	}
	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrAlreadyPaid
		}
		return fmt.Errorf("mark cash collected: %w", err)
	}
	return nil
}

// UpdateFulfillmentStatus conditionally advances the fulfillment status.
// Returns ErrStatusMismatch when another worker already moved it.
func (s *Store) UpdateFulfillmentStatus(ctx context.Context, orderID, expected, newStatus string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET fulfillment_status = :new, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: newStatus},
			":expected": &types.AttributeValueMemberS{Value: expected},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("fulfillment_status = :expected"),
	}
	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update fulfillment status: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
