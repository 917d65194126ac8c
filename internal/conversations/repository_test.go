package conversations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hezi777/barber-pro/internal/conversation"
	"github.com/Hezi777/barber-pro/pkg/logging"
)

const testPhone = "+972500000001"

var fixedNow = time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

func sampleRecord() Record {
	return Record{
		Phone: testPhone,
		State: conversation.StateAwaitingTime,
		Context: conversation.Context{
			Service:        "haircut",
			DayChoice:      "2025-01-02",
			DayLabel:       "Thursday, Jan 2",
			AvailableSlots: conversation.Slots{"1": "10:30", "2": "12:00", "3": "14:30"},
		},
		UpdatedAt: fixedNow,
	}
}

// exerciseRepository runs the behavior every backend must share.
func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.Get(ctx, testPhone)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Reset(ctx, testPhone)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Put(ctx, sampleRecord()))

	got, err := repo.Get(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, conversation.StateAwaitingTime, got.State)
	assert.Equal(t, sampleRecord().Context, got.Context)
	assert.True(t, got.UpdatedAt.Equal(fixedNow), "updatedAt %s", got.UpdatedAt)

	reset, err := repo.Reset(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, conversation.StateNew, reset.State)
	assert.True(t, reset.Context.IsEmpty())

	got, err = repo.Get(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, conversation.StateNew, got.State)
	assert.True(t, got.Context.IsEmpty())
}

func TestInMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewInMemoryRepository())
}

func TestInMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, sampleRecord()))

	got, err := repo.Get(ctx, testPhone)
	require.NoError(t, err)
	got.Context.AvailableSlots["1"] = "23:00"

	again, err := repo.Get(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, "10:30", again.Context.AvailableSlots["1"])
}

func TestRedisRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewRedisRepository(client, time.Hour, nil)
	exerciseRepository(t, repo)

	assert.Equal(t, time.Hour, mr.TTL(conversationKey(testPhone)))
}

func TestRedisRepositoryCorruptPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, mr.Set(conversationKey(testPhone), "{not json"))

	_, err := NewRedisRepository(client, 0, nil).Get(context.Background(), testPhone)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestRedisRepositoryNormalizesStoredState(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, mr.Set(conversationKey(testPhone), `{"phone":"+972500000001","state":" awaiting_day ","context":{"service":"haircut"}}`))

	rec, err := NewRedisRepository(client, 0, nil).Get(context.Background(), testPhone)
	require.NoError(t, err)
	assert.Equal(t, conversation.StateAwaitingDay, rec.State)
	assert.Equal(t, "haircut", rec.Context.Service)
}

func TestPostgresRepository(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPostgresRepositoryWithExec(mock)
	repo.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	mock.ExpectQuery("SELECT phone, state, context, updated_at").
		WithArgs(testPhone).
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.Get(ctx, testPhone)
	require.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec("INSERT INTO conversations").
		WithArgs(testPhone, "AWAITING_TIME", pgxmock.AnyArg(), fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, repo.Put(ctx, sampleRecord()))

	raw := []byte(`{"service":"haircut","dayChoice":"2025-01-02","availableSlots":{"1":"10:30"}}`)
	mock.ExpectQuery("SELECT phone, state, context, updated_at").
		WithArgs(testPhone).
		WillReturnRows(pgxmock.NewRows([]string{"phone", "state", "context", "updated_at"}).
			AddRow(testPhone, "AWAITING_TIME", raw, fixedNow))
	got, err := repo.Get(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, conversation.StateAwaitingTime, got.State)
	assert.Equal(t, "haircut", got.Context.Service)
	assert.Equal(t, conversation.Slots{"1": "10:30"}, got.Context.AvailableSlots)

	mock.ExpectExec("UPDATE conversations").
		WithArgs(testPhone, "NEW", fixedNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	reset, err := repo.Reset(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, conversation.StateNew, reset.State)

	mock.ExpectExec("UPDATE conversations").
		WithArgs("+972500000099", "NEW", fixedNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	_, err = repo.Reset(ctx, "+972500000099")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryWrapsErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPostgresRepositoryWithExec(mock)
	mock.ExpectExec("INSERT INTO conversations").WillReturnError(errors.New("connection reset"))

	err = repo.Put(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conversations: upsert failed")
	assert.Contains(t, err.Error(), "connection reset")
}

type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue
	puts  []*dynamodb.PutItemInput
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	phone := in.Item["phone"].(*types.AttributeValueMemberS).Value
	if in.ConditionExpression != nil && *in.ConditionExpression == "attribute_exists(phone)" {
		if _, ok := f.items[phone]; !ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("conditional request failed")}
		}
	}
	f.items[phone] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	phone := in.Key["phone"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[phone]}, nil
}

func TestDynamoRepository(t *testing.T) {
	fake := newFakeDynamo()
	repo := NewDynamoRepository(fake, "conversations", 24*time.Hour, logging.Default())
	exerciseRepository(t, repo)

	var stored dynamoItem
	require.NoError(t, attributevalue.UnmarshalMap(fake.items[testPhone], &stored))
	assert.Equal(t, "NEW", stored.State)
	assert.Equal(t, "{}", stored.Context)
	assert.NotZero(t, stored.ExpiresAt)
	assert.Equal(t, "conversations", aws.ToString(fake.puts[0].TableName))
}

func TestDynamoRepositoryNormalizesStoredState(t *testing.T) {
	fake := newFakeDynamo()
	fake.items[testPhone] = map[string]types.AttributeValue{
		"phone":   &types.AttributeValueMemberS{Value: testPhone},
		"state":   &types.AttributeValueMemberS{Value: "awaiting_time"},
		"context": &types.AttributeValueMemberS{Value: "{}"},
	}

	rec, err := NewDynamoRepository(fake, "conversations", 0, logging.Default()).Get(context.Background(), testPhone)
	require.NoError(t, err)
	assert.Equal(t, conversation.StateAwaitingTime, rec.State)
}

func TestRecordIdleSince(t *testing.T) {
	rec := Record{UpdatedAt: fixedNow}
	assert.False(t, rec.IdleSince(fixedNow.Add(time.Hour), 0))
	assert.False(t, rec.IdleSince(fixedNow.Add(29*time.Minute), 30*time.Minute))
	assert.True(t, rec.IdleSince(fixedNow.Add(30*time.Minute), 30*time.Minute))
	assert.False(t, Record{}.IdleSince(fixedNow, time.Minute))
}
