package aws

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric names emitted by the pipeline.
const (
	MetricCheckoutCompleted     = "CheckoutCompleted"
	MetricCheckoutFailed        = "CheckoutFailed"
	MetricPaymentConfirmed      = "PaymentConfirmed"
	MetricDuplicateConfirmation = "DuplicateConfirmation"
	MetricFulfillmentDispatched = "FulfillmentDispatched"
)

// MetricsEmitter publishes counter metrics to CloudWatch. Emission is
// best-effort: failures are logged, never returned, so metrics can sit on
// the checkout path without affecting it.
type MetricsEmitter struct {
	client    CloudWatchAPI
	namespace string
}

// NewMetricsEmitter returns an emitter bound to a CloudWatch namespace.
func NewMetricsEmitter(client CloudWatchAPI, namespace string) *MetricsEmitter {
	return &MetricsEmitter{
		client:    client,
		namespace: namespace,
	}
}

// Count publishes a count-of-1 datapoint for the named metric.
func (m *MetricsEmitter) Count(ctx context.Context, name string) {
	if m == nil || m.client == nil {
		return
	}
	one := 1.0
	input := &cloudwatch.PutMetricDataInput{
		Namespace: &m.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Value:      &one,
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		log.Printf("metrics: put %s failed: %v", name, err)
	}
}
