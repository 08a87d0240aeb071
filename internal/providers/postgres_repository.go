package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository reads providers from the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("providers: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// FindFirstByServiceType returns the lowest-ID provider whose service type
// contains the query, case-insensitively.
func (r *PostgresRepository) FindFirstByServiceType(ctx context.Context, serviceType string) (*Provider, error) {
	query := `
		SELECT id, name, phone, service_type, location, rating
		FROM providers
		WHERE service_type ILIKE '%' || $1 || '%'
		ORDER BY id
		LIMIT 1
	`
	var p Provider
	err := r.pool.QueryRow(ctx, query, serviceType).Scan(
		&p.ID,
		&p.Name,
		&p.Phone,
		&p.ServiceType,
		&p.Location,
		&p.Rating,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoProviderFound
		}
		return nil, fmt.Errorf("providers: select failed: %w", err)
	}
	return &p, nil
}

// List returns all providers ordered by ID.
func (r *PostgresRepository) List(ctx context.Context) ([]Provider, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, phone, service_type, location, rating
		FROM providers
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("providers: list failed: %w", err)
	}
	defer rows.Close()

	var out []Provider
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Phone, &p.ServiceType, &p.Location, &p.Rating); err != nil {
			return nil, fmt.Errorf("providers: scan failed: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("providers: rows failed: %w", err)
	}
	return out, nil
}

// Seed inserts the given providers if the table is empty.
func (r *PostgresRepository) Seed(ctx context.Context, seed []Provider) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM providers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("providers: count failed: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	inserted := 0
	for _, p := range seed {
		if _, err := r.pool.Exec(ctx, `
			INSERT INTO providers (name, phone, service_type, location, rating)
			VALUES ($1, $2, $3, $4, $5)
		`, p.Name, p.Phone, p.ServiceType, p.Location, p.Rating); err != nil {
			return inserted, fmt.Errorf("providers: insert %q failed: %w", p.Name, err)
		}
		inserted++
	}
	return inserted, nil
}
