package calls

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresLogRepository stores call logs in the relational database.
type PostgresLogRepository struct {
	pool rowQuerier
}

// NewPostgresLogRepository initializes a repo backed by pgxpool.
func NewPostgresLogRepository(pool *pgxpool.Pool) *PostgresLogRepository {
	if pool == nil {
		panic("calls: pgx pool required")
	}
	return &PostgresLogRepository{pool: pool}
}

func newPostgresLogRepositoryWithExec(exec rowQuerier) *PostgresLogRepository {
	if exec == nil {
		panic("calls: exec required")
	}
	return &PostgresLogRepository{pool: exec}
}

// Create inserts the call log row and fills in its generated ID.
func (r *PostgresLogRepository) Create(ctx context.Context, log *CallLog) error {
	query := `
		INSERT INTO call_logs (appointment_id, call_sid, status, started_at, ended_at, transcript, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	if err := r.pool.QueryRow(ctx, query,
		log.AppointmentID,
		log.CallSID,
		log.Status,
		log.StartedAt,
		log.EndedAt,
		log.Transcript,
		log.Error,
	).Scan(&log.ID); err != nil {
		return fmt.Errorf("calls: insert call log: %w", err)
	}
	return nil
}

// GetByAppointment fetches the call log for an appointment, or (nil, nil).
func (r *PostgresLogRepository) GetByAppointment(ctx context.Context, appointmentID int64) (*CallLog, error) {
	query := `
		SELECT id, appointment_id, call_sid, status, started_at, ended_at, transcript, error
		FROM call_logs
		WHERE appointment_id = $1
	`
	var log CallLog
	err := r.pool.QueryRow(ctx, query, appointmentID).Scan(
		&log.ID,
		&log.AppointmentID,
		&log.CallSID,
		&log.Status,
		&log.StartedAt,
		&log.EndedAt,
		&log.Transcript,
		&log.Error,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("calls: select call log: %w", err)
	}
	return &log, nil
}
