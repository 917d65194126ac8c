package messaging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Direction tells inbound customer messages from outbound replies.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// LoggedMessage is one line of a customer's transcript.
type LoggedMessage struct {
	ID         string          `json:"id"`
	Phone      string          `json:"phone"`
	Direction  Direction       `json:"direction"`
	Body       string          `json:"body"`
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// MessageLog records every message exchanged with a customer.
type MessageLog interface {
	Append(ctx context.Context, msg LoggedMessage) (*LoggedMessage, error)
	ListByPhone(ctx context.Context, phone string, limit int) ([]LoggedMessage, error)
}

const defaultTranscriptLimit = 200

func prepareMessage(msg LoggedMessage) (LoggedMessage, error) {
	msg.Phone = strings.TrimSpace(msg.Phone)
	if msg.Phone == "" {
		return msg, fmt.Errorf("messaging: message phone required")
	}
	if msg.Direction != DirectionIn && msg.Direction != DirectionOut {
		return msg, fmt.Errorf("messaging: invalid direction %q", msg.Direction)
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if len(msg.RawPayload) > 0 && !json.Valid(msg.RawPayload) {
		return msg, fmt.Errorf("messaging: raw payload is not valid json")
	}
	return msg, nil
}

// InMemoryMessageLog keeps transcripts in memory.
type InMemoryMessageLog struct {
	mu       sync.RWMutex
	messages []LoggedMessage
}

// NewInMemoryMessageLog creates an empty log.
func NewInMemoryMessageLog() *InMemoryMessageLog {
	return &InMemoryMessageLog{}
}

// Append stores msg.
func (l *InMemoryMessageLog) Append(ctx context.Context, msg LoggedMessage) (*LoggedMessage, error) {
	msg, err := prepareMessage(msg)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.messages = append(l.messages, msg)
	l.mu.Unlock()
	return &msg, nil
}

// ListByPhone returns up to limit messages for phone in the order they were logged.
func (l *InMemoryMessageLog) ListByPhone(ctx context.Context, phone string, limit int) ([]LoggedMessage, error) {
	if limit <= 0 {
		limit = defaultTranscriptLimit
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]LoggedMessage, 0)
	for _, m := range l.messages {
		if m.Phone == phone {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SQLMessageLog writes transcripts to the messages table through database/sql.
type SQLMessageLog struct {
	db *sql.DB
}

// NewSQLMessageLog creates a log on an open database handle.
func NewSQLMessageLog(db *sql.DB) *SQLMessageLog {
	if db == nil {
		panic("messaging: sql db required")
	}
	return &SQLMessageLog{db: db}
}

// Append inserts msg.
func (l *SQLMessageLog) Append(ctx context.Context, msg LoggedMessage) (*LoggedMessage, error) {
	msg, err := prepareMessage(msg)
	if err != nil {
		return nil, err
	}

	var raw sql.NullString
	if len(msg.RawPayload) > 0 {
		raw = sql.NullString{String: string(msg.RawPayload), Valid: true}
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO messages (id, phone, direction, body, raw_payload, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)
	`, msg.ID, msg.Phone, string(msg.Direction), msg.Body, raw, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to insert message: %w", err)
	}
	return &msg, nil
}

// ListByPhone returns up to limit messages for phone, oldest first.
func (l *SQLMessageLog) ListByPhone(ctx context.Context, phone string, limit int) ([]LoggedMessage, error) {
	if limit <= 0 {
		limit = defaultTranscriptLimit
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, phone, direction, body, raw_payload, created_at
		FROM messages
		WHERE phone = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to list messages: %w", err)
	}
	defer rows.Close()

	out := make([]LoggedMessage, 0)
	for rows.Next() {
		var (
			m         LoggedMessage
			direction string
			body      sql.NullString
			raw       []byte
		)
		if err := rows.Scan(&m.ID, &m.Phone, &direction, &body, &raw, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("messaging: failed to scan message: %w", err)
		}
		m.Direction = Direction(direction)
		m.Body = body.String
		if len(raw) > 0 {
			m.RawPayload = json.RawMessage(raw)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("messaging: failed to list messages: %w", err)
	}
	return out, nil
}
