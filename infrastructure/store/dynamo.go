package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Single-table layout: PK is the logical key, SK distinguishes the plain
// value ("#") from hash fields and set members. TTL is delegated to
// DynamoDB's expires_at mechanism; because expiry there is lazy, reads
// filter expired items themselves.
const plainSortKey = "#"

// DynamoStore is the KVStore driver backed by a single DynamoDB table
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// kvItem represents the DynamoDB item structure for one entry
type kvItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Value     []byte `dynamodbav:"Value,omitempty"`
	ExpiresAt int64  `dynamodbav:"expires_at,omitempty"`
}

func (i kvItem) expired(now time.Time) bool {
	return i.ExpiresAt > 0 && now.Unix() >= i.ExpiresAt
}

// NewDynamoStore creates a store over an existing table
func NewDynamoStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (s *DynamoStore) put(ctx context.Context, key, sortKey string, value []byte, ttl time.Duration) error {
	item := kvItem{PK: key, SK: sortKey, Value: value}
	if ttl > 0 {
		item.ExpiresAt = time.Now().Add(ttl).Unix()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal item for %q: %w", key, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	return err
}

func (s *DynamoStore) fetch(ctx context.Context, key, sortKey string) ([]byte, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: key},
			"SK": &types.AttributeValueMemberS{Value: sortKey},
		},
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrKeyNotFound
	}

	var item kvItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal item for %q: %w", key, err)
	}
	if item.expired(time.Now()) {
		return nil, ErrKeyNotFound
	}
	return item.Value, nil
}

func (s *DynamoStore) remove(ctx context.Context, key, sortKey string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: key},
			"SK": &types.AttributeValueMemberS{Value: sortKey},
		},
	})
	return err
}

func (s *DynamoStore) queryKey(ctx context.Context, key string) ([]kvItem, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: key},
		},
	}

	var items []kvItem
	now := time.Now()
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var item kvItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("unmarshal item for %q: %w", key, err)
			}
			if item.SK == plainSortKey || item.expired(now) {
				continue
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// Get retrieves the value for a plain key
func (s *DynamoStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.fetch(ctx, key, plainSortKey)
}

// Set writes a plain key without expiry
func (s *DynamoStore) Set(ctx context.Context, key string, value []byte) error {
	return s.put(ctx, key, plainSortKey, value, 0)
}

// SetWithTTL writes a plain key that expires after ttl
func (s *DynamoStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.put(ctx, key, plainSortKey, value, ttl)
}

// Delete removes a plain key
func (s *DynamoStore) Delete(ctx context.Context, key string) error {
	return s.remove(ctx, key, plainSortKey)
}

// HGet retrieves one field of a hash
func (s *DynamoStore) HGet(ctx context.Context, key, field string) ([]byte, error) {
	return s.fetch(ctx, key, "F#"+field)
}

// HSet writes one field of a hash
func (s *DynamoStore) HSet(ctx context.Context, key, field string, value []byte) error {
	return s.put(ctx, key, "F#"+field, value, 0)
}

// HDelete removes one field of a hash
func (s *DynamoStore) HDelete(ctx context.Context, key, field string) error {
	return s.remove(ctx, key, "F#"+field)
}

// HGetAll returns every field of a hash
func (s *DynamoStore) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	items, err := s.queryKey(ctx, key)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]byte, len(items))
	for _, item := range items {
		if len(item.SK) > 2 && item.SK[:2] == "F#" {
			result[item.SK[2:]] = item.Value
		}
	}
	return result, nil
}

// SAdd records a set member with the set's TTL
func (s *DynamoStore) SAdd(ctx context.Context, key, member string, ttl time.Duration) error {
	return s.put(ctx, key, "M#"+member, nil, ttl)
}

// SMembers returns the unexpired members of a set
func (s *DynamoStore) SMembers(ctx context.Context, key string) ([]string, error) {
	items, err := s.queryKey(ctx, key)
	if err != nil {
		return nil, err
	}

	var members []string
	for _, item := range items {
		if len(item.SK) > 2 && item.SK[:2] == "M#" {
			members = append(members, item.SK[2:])
		}
	}
	return members, nil
}

// Ping verifies the table is reachable
func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return fmt.Errorf("table %q does not exist: %w", s.tableName, err)
		}
	}
	return err
}

// Close is a no-op: the SDK client holds no persistent connection state
func (s *DynamoStore) Close() error { return nil }
