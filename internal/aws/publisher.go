package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// OrderConfirmedMessage is the payload published when an order reaches the
// confirmed state. The fulfillment worker consumes it.
type OrderConfirmedMessage struct {
	OrderID       string `json:"order_id"`
	CustomerID    string `json:"customer_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// PublishOrderConfirmed sends an order-confirmed message to the fulfillment queue.
// The order/customer ids are duplicated into MessageAttributes so consumers can
// filter without parsing the body.
func (p *Publisher) PublishOrderConfirmed(ctx context.Context, msg OrderConfirmedMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	attrs := map[string]sqstypes.MessageAttributeValue{
		"order_id": {
			DataType:    awsString("String"),
			StringValue: &msg.OrderID,
		},
		"customer_id": {
			DataType:    awsString("String"),
			StringValue: &msg.CustomerID,
		},
	}
	if msg.CorrelationID != "" {
		attrs["correlation_id"] = sqstypes.MessageAttributeValue{
			DataType:    awsString("String"),
			StringValue: &msg.CorrelationID,
		}
	}

	bodyStr := string(body)
	input := &sqs.SendMessageInput{
		QueueUrl:          &p.QueueURL,
		MessageBody:       &bodyStr,
		MessageAttributes: attrs,
	}

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
