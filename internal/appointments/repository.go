package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository stores appointments.
type Repository interface {
	// CreateIfAbsent returns the live appointment for (phone, service, start
	// time), creating a PENDING one when none exists. The bool reports
	// whether a row was created.
	CreateIfAbsent(ctx context.Context, req NewAppointment) (*Appointment, bool, error)
	List(ctx context.Context, filter ListFilter) ([]*Appointment, error)
	Confirm(ctx context.Context, id string) (*Appointment, error)
}

// InMemoryRepository keeps appointments in memory.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Appointment
	now   func() time.Time
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		items: make(map[string]*Appointment),
		now:   time.Now,
	}
}

// CreateIfAbsent creates or returns the existing live appointment.
func (r *InMemoryRepository) CreateIfAbsent(ctx context.Context, req NewAppointment) (*Appointment, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}
	req.StartTime = req.StartTime.UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if req.sameSlot(existing) {
			cp := *existing
			return &cp, false, nil
		}
	}

	appt := &Appointment{
		ID:           uuid.New().String(),
		Phone:        req.Phone,
		CustomerName: req.CustomerName,
		Service:      req.Service,
		StartTime:    req.StartTime,
		Status:       StatusPending,
		CreatedAt:    r.now().UTC(),
	}
	r.items[appt.ID] = appt
	cp := *appt
	return &cp, true, nil
}

// List returns appointments for a UTC day ascending, or all descending.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Appointment, 0, len(r.items))
	start, end := filter.DayRange()
	for _, a := range r.items {
		if !filter.Day.IsZero() && (a.StartTime.Before(start) || !a.StartTime.Before(end)) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if filter.Day.IsZero() {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

// Confirm marks an appointment CONFIRMED.
func (r *InMemoryRepository) Confirm(ctx context.Context, id string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Status = StatusConfirmed
	cp := *a
	return &cp, nil
}
