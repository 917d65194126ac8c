package conversations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hezi777/barber-pro/internal/conversation"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores conversations in the conversations table.
type PostgresRepository struct {
	db  rowQuerier
	now func() time.Time
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("conversations: pgx pool required")
	}
	return newPostgresRepositoryWithExec(pool)
}

func newPostgresRepositoryWithExec(db rowQuerier) *PostgresRepository {
	if db == nil {
		panic("conversations: exec required")
	}
	return &PostgresRepository{db: db, now: time.Now}
}

// Get loads the conversation for phone.
func (r *PostgresRepository) Get(ctx context.Context, phone string) (*Record, error) {
	query := `
		SELECT phone, state, context, updated_at
		FROM conversations
		WHERE phone = $1
	`
	var (
		rec   Record
		state string
		raw   []byte
	)
	if err := r.db.QueryRow(ctx, query, phone).Scan(&rec.Phone, &state, &raw, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("conversations: select failed: %w", err)
	}
	rec.State = conversation.ParseState(state)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec.Context); err != nil {
			return nil, fmt.Errorf("conversations: decode context: %w", err)
		}
	}
	return &rec, nil
}

// Put upserts the conversation keyed by phone.
func (r *PostgresRepository) Put(ctx context.Context, rec Record) error {
	raw, err := json.Marshal(rec.Context)
	if err != nil {
		return fmt.Errorf("conversations: encode context: %w", err)
	}
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.now().UTC()
	}

	query := `
		INSERT INTO conversations (phone, state, context, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (phone) DO UPDATE
		SET state = EXCLUDED.state, context = EXCLUDED.context, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.Exec(ctx, query, rec.Phone, string(rec.State), raw, updatedAt); err != nil {
		return fmt.Errorf("conversations: upsert failed: %w", err)
	}
	return nil
}

// Reset sets an existing conversation back to NEW with an empty context.
func (r *PostgresRepository) Reset(ctx context.Context, phone string) (*Record, error) {
	rec := NewRecord(phone, r.now())
	query := `
		UPDATE conversations
		SET state = $2, context = '{}'::jsonb, updated_at = $3
		WHERE phone = $1
	`
	ct, err := r.db.Exec(ctx, query, phone, string(rec.State), rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("conversations: reset failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return &rec, nil
}
