package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ProcessedStore remembers provider deliveries (Twilio MessageSid and the like)
// so a retried webhook does not advance the conversation twice.
type ProcessedStore interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	// MarkProcessed reports false when the id was already recorded.
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

const (
	selectProcessedSQL = `SELECT 1 FROM processed_events WHERE provider = $1 AND event_id = $2`
	insertProcessedSQL = `INSERT INTO processed_events (provider, event_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresProcessedStore keeps delivery ids in processed_events.
type PostgresProcessedStore struct {
	db rowQuerier
}

func NewPostgresProcessedStore(pool *pgxpool.Pool) *PostgresProcessedStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &PostgresProcessedStore{db: pool}
}

func newPostgresProcessedStoreWithExec(db rowQuerier) *PostgresProcessedStore {
	return &PostgresProcessedStore{db: db}
}

func (s *PostgresProcessedStore) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	var one int
	err := s.db.QueryRow(ctx, selectProcessedSQL, normalizeProvider(provider), eventID).Scan(&one)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("events: check processed: %w", err)
	}
}

func (s *PostgresProcessedStore) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	tag, err := s.db.Exec(ctx, insertProcessedSQL, normalizeProvider(provider), eventID)
	if err != nil {
		return false, fmt.Errorf("events: mark processed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RedisProcessedStore records delivery ids as expiring keys. Providers stop
// retrying long before ttl elapses.
type RedisProcessedStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisProcessedStore defaults ttl to 24h when it is not positive.
func NewRedisProcessedStore(client redis.Cmdable, ttl time.Duration) *RedisProcessedStore {
	if client == nil {
		panic("events: redis client required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisProcessedStore{client: client, ttl: ttl}
}

func (s *RedisProcessedStore) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, redisProcessedKey(provider, eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("events: check processed: %w", err)
	}
	return n > 0, nil
}

func (s *RedisProcessedStore) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	created, err := s.client.SetNX(ctx, redisProcessedKey(provider, eventID), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("events: mark processed: %w", err)
	}
	return created, nil
}

func redisProcessedKey(provider, eventID string) string {
	return "processed:" + normalizeProvider(provider) + ":" + eventID
}

// InMemoryProcessedStore is a process-local ProcessedStore.
type InMemoryProcessedStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewInMemoryProcessedStore() *InMemoryProcessedStore {
	return &InMemoryProcessedStore{seen: make(map[string]struct{})}
}

func (s *InMemoryProcessedStore) AlreadyProcessed(_ context.Context, provider, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[normalizeProvider(provider)+"\x00"+eventID]
	return ok, nil
}

func (s *InMemoryProcessedStore) MarkProcessed(_ context.Context, provider, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeProvider(provider) + "\x00" + eventID
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
