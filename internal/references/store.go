// Package references looks up cross-reference numbers for an order.
package references

import (
	"context"
	"fmt"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/awsx"
)

// refTypeID tags the reference entries that carry a usable pro number.
const refTypeID = "OD#"

// Store queries the reference table through its order-number index.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
	indexName string
}

// NewStore creates a reference Store bound to a table and secondary index.
func NewStore(client awsx.DynamoDBAPI, tableName, indexName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		indexName: indexName,
	}
}

// Lookup returns the first matching reference number for an order, or
// ok=false when none exists. When the store returns several matches only the
// first is used; their relative order is whatever DynamoDB returns.
func (s *Store) Lookup(ctx context.Context, orderNo string) (refNo string, ok bool, err error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              &s.indexName,
		KeyConditionExpression: awsString("FK_OrderNo = :FK_OrderNo"),
		FilterExpression:       awsString("FK_RefTypeId = :FK_RefTypeId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":FK_OrderNo":   &types.AttributeValueMemberS{Value: orderNo},
			":FK_RefTypeId": &types.AttributeValueMemberS{Value: refTypeID},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("query reference table: %w", err)
	}
	if len(out.Items) == 0 {
		return "", false, nil
	}

	attr, present := out.Items[0]["ReferenceNo"]
	if !present {
		return "", false, fmt.Errorf("reference item for order %s has no ReferenceNo", orderNo)
	}
	sv, isString := attr.(*types.AttributeValueMemberS)
	if !isString {
		return "", false, fmt.Errorf("reference item for order %s has non-string ReferenceNo", orderNo)
	}
	return sv.Value, true, nil
}

func awsString(s string) *string { return &s }
