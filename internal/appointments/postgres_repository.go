package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	pool rowQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithExec(exec rowQuerier) *PostgresRepository {
	if exec == nil {
		panic("appointments: exec required")
	}
	return &PostgresRepository{pool: exec}
}

// Create inserts a new PENDING row.
func (r *PostgresRepository) Create(ctx context.Context, params *CreateParams) (*Appointment, error) {
	urgency := params.Urgency
	if urgency == "" {
		urgency = UrgencyFlexible
	}

	query := `
		INSERT INTO appointments (
			service_type, preferred_date_from, preferred_date_to,
			preferred_time_window, location, urgency, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	appt := &Appointment{
		ServiceType:         params.ServiceType,
		PreferredDateFrom:   params.PreferredDateFrom,
		PreferredDateTo:     params.PreferredDateTo,
		PreferredTimeWindow: params.PreferredTimeWindow,
		Location:            params.Location,
		Urgency:             urgency,
		Status:              StatusPending,
	}
	if err := r.pool.QueryRow(ctx, query,
		params.ServiceType,
		params.PreferredDateFrom,
		params.PreferredDateTo,
		params.PreferredTimeWindow,
		params.Location,
		string(urgency),
		string(StatusPending),
	).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt); err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}
	return appt, nil
}

// GetByID fetches a full appointment row.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	query := `
		SELECT id, service_type, preferred_date_from, preferred_date_to,
		       preferred_time_window, location, urgency, status,
		       result_payload, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var (
		appt       Appointment
		urgency    string
		status     string
		resultJSON []byte
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&appt.ID,
		&appt.ServiceType,
		&appt.PreferredDateFrom,
		&appt.PreferredDateTo,
		&appt.PreferredTimeWindow,
		&appt.Location,
		&urgency,
		&status,
		&resultJSON,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	appt.Urgency = Urgency(urgency)
	appt.Status = Status(status)
	if len(resultJSON) > 0 {
		var payload ResultPayload
		if err := json.Unmarshal(resultJSON, &payload); err != nil {
			return nil, fmt.Errorf("appointments: decode result payload: %w", err)
		}
		appt.Result = &payload
	}
	return &appt, nil
}

// Transition performs the guarded status move described on the Repository
// interface.
func (r *PostgresRepository) Transition(ctx context.Context, id int64, from, to Status, result *ResultPayload) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("appointments: illegal transition %s -> %s", from, to)
	}

	var resultJSON []byte
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("appointments: encode result payload: %w", err)
		}
		resultJSON = data
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = $3,
		    result_payload = COALESCE($4, result_payload),
		    updated_at = $5
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to), resultJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("appointments: transition failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a lost compare-and-set.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("appointments: transition check failed: %w", err)
		}
		if !exists {
			return ErrAppointmentNotFound
		}
		return ErrStaleTransition
	}
	return nil
}
