package auditlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/biz-priv/omni-datawarehouse-backend-services/internal/awsx"
)

// ErrTokenNotFound indicates no cached bearer token exists under TokenKey.
var ErrTokenNotFound = errors.New("cached token not found")

// Store encapsulates audit-log and token-cache operations against DynamoDB.
type Store struct {
	client         awsx.DynamoDBAPI
	tableName      string
	tokenExpiryDur time.Duration
	nowFunc        func() time.Time
}

// NewStore returns a configured Store.
// tokenExpirationDays: window written alongside cached tokens; fractional
// days allowed.
func NewStore(client awsx.DynamoDBAPI, tableName string, tokenExpirationDays float64) *Store {
	return &Store{
		client:         client,
		tableName:      tableName,
		tokenExpiryDur: time.Duration(tokenExpirationDays * 24 * float64(time.Hour)),
		nowFunc:        time.Now,
	}
}

// Insert writes an audit entry keyed by housebill number. data is a payload
// snapshot or a free-text message; errText is empty on success entries.
func (s *Store) Insert(ctx context.Context, houseBillNumber, data, errText string) error {
	entry := Entry{
		PKey:           houseBillNumber,
		Data:           data,
		Error:          errText,
		LastUpdateTime: s.nowFunc().UTC().Format(time.RFC3339),
	}

	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put log entry: %w", err)
	}
	return nil
}

// GetCachedToken reads the partner bearer token stored under TokenKey.
// Returns ErrTokenNotFound when the slot is empty. The stored expiration is
// deliberately not consulted: a stale token is served until manually purged.
func (s *Store) GetCachedToken(ctx context.Context) (string, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: awsString("pKey = :pKey"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pKey": &types.AttributeValueMemberS{Value: TokenKey},
		},
	})
	if err != nil {
		return "", fmt.Errorf("query cached token: %w", err)
	}
	if len(out.Items) == 0 {
		return "", ErrTokenNotFound
	}

	var tok CachedToken
	if err := attributevalue.UnmarshalMap(out.Items[0], &tok); err != nil {
		return "", fmt.Errorf("unmarshal cached token: %w", err)
	}
	return tok.Data, nil
}

// PutCachedToken stores a bearer token under TokenKey with an expiration
// timestamp the configured window from now.
func (s *Store) PutCachedToken(ctx context.Context, token string) error {
	now := s.nowFunc().UTC()
	tok := CachedToken{
		PKey:       TokenKey,
		Data:       token,
		Expiration: now.Add(s.tokenExpiryDur).Format(time.RFC3339),
	}

	item, err := attributevalue.MarshalMap(tok)
	if err != nil {
		return fmt.Errorf("marshal cached token: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put cached token: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
