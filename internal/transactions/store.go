package transactions

import (
	"context"
	"fmt"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/awsx"
)

// Store encapsulates operations on the transaction-status table.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new transaction Store.
func NewStore(client awsx.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// UpdateStatus upserts the record for (orderNumber, houseBillNumber) with the
// given status and a fresh lastUpdateTime. The write is unconditional: the
// failure branch runs it with whatever identifiers parsed, empty strings
// included.
func (s *Store) UpdateStatus(ctx context.Context, orderNumber, houseBillNumber, status string) error {
	now := s.nowFunc().UTC().Format(time.RFC3339)
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"orderNumber":     &types.AttributeValueMemberS{Value: orderNumber},
			"houseBillNumber": &types.AttributeValueMemberS{Value: houseBillNumber},
		},
		UpdateExpression: awsString("SET #status = :status, #lastUpdateTime = :lastUpdateTime"),
		ExpressionAttributeNames: map[string]string{
			"#status":         "status",
			"#lastUpdateTime": "lastUpdateTime",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":         &types.AttributeValueMemberS{Value: status},
			":lastUpdateTime": &types.AttributeValueMemberS{Value: now},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
