package conversations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Hezi777/barber-pro/internal/conversation"
)

// RedisRepository stores each conversation as a JSON document. A positive
// ttl expires conversations nobody has touched for that long.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	now    func() time.Time
}

// NewRedisRepository builds a store on an existing client.
func NewRedisRepository(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisRepository {
	if client == nil {
		panic("conversations: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("barberpro.internal.conversations.redis")
	}
	return &RedisRepository{client: client, ttl: ttl, tracer: tracer, now: time.Now}
}

// Get loads the conversation for phone.
func (r *RedisRepository) Get(ctx context.Context, phone string) (*Record, error) {
	ctx, span := r.tracer.Start(ctx, "conversations.redis.get")
	defer span.End()

	data, err := r.client.Get(ctx, conversationKey(phone)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversations: failed to load record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversations: failed to decode record: %w", err)
	}
	rec.State = conversation.ParseState(string(rec.State))
	return &rec, nil
}

// Put writes the record and refreshes its expiry.
func (r *RedisRepository) Put(ctx context.Context, rec Record) error {
	ctx, span := r.tracer.Start(ctx, "conversations.redis.put")
	defer span.End()

	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = r.now().UTC()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversations: failed to encode record: %w", err)
	}
	if err := r.client.Set(ctx, conversationKey(rec.Phone), data, r.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversations: failed to persist record: %w", err)
	}
	return nil
}

// Reset overwrites an existing record with a fresh one.
func (r *RedisRepository) Reset(ctx context.Context, phone string) (*Record, error) {
	ctx, span := r.tracer.Start(ctx, "conversations.redis.reset")
	defer span.End()

	rec := NewRecord(phone, r.now())
	data, err := json.Marshal(rec)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversations: failed to encode record: %w", err)
	}

	// SET XX only replaces keys that exist.
	ok, err := r.client.SetXX(ctx, conversationKey(phone), data, r.ttl).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversations: failed to reset record: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func conversationKey(phone string) string {
	return fmt.Sprintf("conversation:%s", phone)
}
