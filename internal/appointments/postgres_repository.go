package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const appointmentColumns = `id, phone, customer_name, service, start_time, status, created_at`

// PostgresRepository stores appointments in PostgreSQL.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithExec(db querier) *PostgresRepository {
	if db == nil {
		panic("appointments: exec required")
	}
	return &PostgresRepository{db: db}
}

// CreateIfAbsent looks for a live appointment on the same slot and inserts a
// PENDING row when there is none. The partial unique index on
// (phone, service, start_time) settles concurrent inserts; the loser re-reads.
func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, req NewAppointment) (*Appointment, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}
	req.StartTime = req.StartTime.UTC()

	existing, err := r.findLive(ctx, req)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	query := `
		INSERT INTO appointments (id, phone, customer_name, service, start_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
		RETURNING ` + appointmentColumns
	created, err := scanAppointment(r.db.QueryRow(ctx, query,
		uuid.New(),
		req.Phone,
		req.CustomerName,
		req.Service,
		req.StartTime,
		string(StatusPending),
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("appointments: insert failed: %w", err)
	}

	existing, err = r.findLive(ctx, req)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("appointments: insert conflicted but no live row found for %s", req.Phone)
	}
	return existing, false, nil
}

func (r *PostgresRepository) findLive(ctx context.Context, req NewAppointment) (*Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE phone = $1 AND service = $2 AND start_time = $3 AND status <> 'CANCELED'
		LIMIT 1
	`
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, req.Phone, req.Service, req.StartTime))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return appt, nil
}

// List returns appointments for a UTC day ascending, or all descending.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if filter.Day.IsZero() {
		rows, err = r.db.Query(ctx, `
			SELECT `+appointmentColumns+`
			FROM appointments
			ORDER BY start_time DESC
		`)
	} else {
		start, end := filter.DayRange()
		rows, err = r.db.Query(ctx, `
			SELECT `+appointmentColumns+`
			FROM appointments
			WHERE start_time >= $1 AND start_time < $2
			ORDER BY start_time ASC
		`, start, end)
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	out := make([]*Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	return out, nil
}

// Confirm marks an appointment CONFIRMED.
func (r *PostgresRepository) Confirm(ctx context.Context, id string) (*Appointment, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	query := `
		UPDATE appointments
		SET status = $2
		WHERE id = $1
		RETURNING ` + appointmentColumns
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, parsed, string(StatusConfirmed)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: confirm failed: %w", err)
	}
	return appt, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a      Appointment
		id     uuid.UUID
		status string
	)
	if err := row.Scan(&id, &a.Phone, &a.CustomerName, &a.Service, &a.StartTime, &status, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ID = id.String()
	a.Status = Status(status)
	a.StartTime = a.StartTime.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}
