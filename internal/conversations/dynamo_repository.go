package conversations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Hezi777/barber-pro/internal/conversation"
	"github.com/Hezi777/barber-pro/pkg/logging"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// dynamoItem is the table layout. The context is kept as a JSON string so
// rows match what the SQL and Redis backends store.
type dynamoItem struct {
	Phone     string `dynamodbav:"phone"`
	State     string `dynamodbav:"state"`
	Context   string `dynamodbav:"context"`
	UpdatedAt string `dynamodbav:"updatedAt"`
	ExpiresAt int64  `dynamodbav:"expiresAt,omitempty"`
}

// DynamoRepository stores conversations in a DynamoDB table keyed by phone.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
	logger    *logging.Logger
	now       func() time.Time
}

// NewDynamoRepository builds a store backed by the provided DynamoDB client.
// A positive ttl sets the expiresAt attribute used by DynamoDB TTL.
func NewDynamoRepository(client dynamoAPI, tableName string, ttl time.Duration, logger *logging.Logger) *DynamoRepository {
	if client == nil {
		panic("conversations: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("conversations: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoRepository{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// Get fetches the conversation for phone.
func (r *DynamoRepository) Get(ctx context.Context, phone string) (*Record, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			"phone": &types.AttributeValueMemberS{Value: phone},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("conversations: failed to fetch record: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("conversations: failed to decode record: %w", err)
	}
	return item.record()
}

// Put writes the record, replacing any previous version.
func (r *DynamoRepository) Put(ctx context.Context, rec Record) error {
	return r.put(ctx, rec, nil)
}

// Reset replaces an existing record with a fresh one.
func (r *DynamoRepository) Reset(ctx context.Context, phone string) (*Record, error) {
	rec := NewRecord(phone, r.now())
	err := r.put(ctx, rec, aws.String("attribute_exists(phone)"))
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.logger.Debug("conversation reset", "phone", phone, "table", r.tableName)
	return &rec, nil
}

func (r *DynamoRepository) put(ctx context.Context, rec Record, condition *string) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = r.now().UTC()
	}
	raw, err := json.Marshal(rec.Context)
	if err != nil {
		return fmt.Errorf("conversations: failed to encode context: %w", err)
	}

	item := dynamoItem{
		Phone:     rec.Phone,
		State:     string(rec.State),
		Context:   string(raw),
		UpdatedAt: rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if r.ttl > 0 {
		item.ExpiresAt = rec.UpdatedAt.Add(r.ttl).Unix()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("conversations: failed to marshal record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: condition,
	})
	if err != nil {
		return fmt.Errorf("conversations: failed to persist record: %w", err)
	}
	return nil
}

func (i dynamoItem) record() (*Record, error) {
	rec := Record{
		Phone: i.Phone,
		State: conversation.ParseState(i.State),
	}
	if i.Context != "" {
		if err := json.Unmarshal([]byte(i.Context), &rec.Context); err != nil {
			return nil, fmt.Errorf("conversations: failed to decode context: %w", err)
		}
	}
	if i.UpdatedAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, i.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("conversations: failed to parse updatedAt: %w", err)
		}
		rec.UpdatedAt = ts
	}
	return &rec, nil
}
