package delivery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopflow/storefront/internal/aws"
)

// Store encapsulates operations on the delivery_zones table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
}

// NewStore creates a new delivery-zone Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
	}
}

// ZonesForCountry returns every active zone configured under the normalized
// country key. Precedence between the returned zones is the resolver's job.
func (s *Store) ZonesForCountry(ctx context.Context, countryKey string) ([]Zone, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: awsString("country_key = :c"),
		FilterExpression:       awsString("active = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: countryKey},
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}

	zones := make([]Zone, 0, len(out.Items))
	for _, item := range out.Items {
		var z Zone
		if err := attributevalue.UnmarshalMap(item, &z); err != nil {
			return nil, fmt.Errorf("unmarshal zone: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, nil
}

func awsString(s string) *string { return &s }
