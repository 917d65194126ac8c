package conversations

import (
	"context"
	"sync"
	"time"
)

// Repository stores one conversation record per phone.
type Repository interface {
	Get(ctx context.Context, phone string) (*Record, error)
	Put(ctx context.Context, rec Record) error
	Reset(ctx context.Context, phone string) (*Record, error)
}

// InMemoryRepository keeps conversations in a map. Used for local runs and tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// Get returns a copy of the stored record.
func (r *InMemoryRepository) Get(ctx context.Context, phone string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[phone]
	if !ok {
		return nil, ErrNotFound
	}
	rec.Context = rec.Context.Clone()
	return &rec, nil
}

// Put replaces the record for rec.Phone.
func (r *InMemoryRepository) Put(ctx context.Context, rec Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = r.now().UTC()
	}
	rec.Context = rec.Context.Clone()

	r.mu.Lock()
	r.records[rec.Phone] = rec
	r.mu.Unlock()
	return nil
}

// Reset moves an existing conversation back to NEW with an empty context.
func (r *InMemoryRepository) Reset(ctx context.Context, phone string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[phone]; !ok {
		return nil, ErrNotFound
	}
	rec := NewRecord(phone, r.now())
	r.records[phone] = rec
	return &rec, nil
}
