package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrMissingPhone is returned when upserting without a phone.
	ErrMissingPhone = errors.New("customers: phone is required")
	ErrNotFound     = errors.New("customers: customer not found")
)

// Customer is a person who has messaged the shop.
type Customer struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository upserts customers by phone.
type Repository interface {
	// Upsert creates the customer if needed. A non-empty name replaces the
	// stored one; an empty name leaves it untouched.
	Upsert(ctx context.Context, phone, name string) (*Customer, error)
	Get(ctx context.Context, phone string) (*Customer, error)
}

// InMemoryRepository keeps customers in memory.
type InMemoryRepository struct {
	mu      sync.Mutex
	byPhone map[string]*Customer
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byPhone: make(map[string]*Customer)}
}

// Upsert creates or updates the customer for phone.
func (r *InMemoryRepository) Upsert(ctx context.Context, phone, name string) (*Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrMissingPhone
	}
	name = strings.TrimSpace(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byPhone[phone]
	if !ok {
		c = &Customer{ID: uuid.New().String(), Phone: phone, CreatedAt: time.Now().UTC()}
		r.byPhone[phone] = c
	}
	if name != "" {
		c.Name = name
	}
	cp := *c
	return &cp, nil
}

// Get returns the customer for phone or ErrNotFound.
func (r *InMemoryRepository) Get(ctx context.Context, phone string) (*Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byPhone[strings.TrimSpace(phone)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// PostgresRepository stores customers in PostgreSQL.
type PostgresRepository struct {
	pool rowQuerier
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("customers: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithExec(q rowQuerier) *PostgresRepository {
	if q == nil {
		panic("customers: exec required")
	}
	return &PostgresRepository{pool: q}
}

// Upsert inserts on first contact and fills in the name once known.
func (r *PostgresRepository) Upsert(ctx context.Context, phone, name string) (*Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrMissingPhone
	}
	query := `
		INSERT INTO customers (id, phone, name)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (phone) DO UPDATE
		SET name = COALESCE(NULLIF(EXCLUDED.name, ''), customers.name)
		RETURNING id, phone, COALESCE(name, ''), created_at
	`
	var (
		c  Customer
		id uuid.UUID
	)
	if err := r.pool.QueryRow(ctx, query, uuid.New(), phone, strings.TrimSpace(name)).
		Scan(&id, &c.Phone, &c.Name, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("customers: upsert failed: %w", err)
	}
	c.ID = id.String()
	return &c, nil
}

// Get returns the customer for phone or ErrNotFound.
func (r *PostgresRepository) Get(ctx context.Context, phone string) (*Customer, error) {
	query := `SELECT id, phone, COALESCE(name, ''), created_at FROM customers WHERE phone = $1`
	var (
		c  Customer
		id uuid.UUID
	)
	err := r.pool.QueryRow(ctx, query, strings.TrimSpace(phone)).Scan(&id, &c.Phone, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("customers: get failed: %w", err)
	}
	c.ID = id.String()
	return &c, nil
}
