package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CounterStore implements domain.CounterStore using PostgreSQL.
type CounterStore struct {
	pool *pgxpool.Pool
}

// NewCounterStore creates a new CounterStore backed by the given connection pool.
func NewCounterStore(pool *pgxpool.Pool) *CounterStore {
	return &CounterStore{pool: pool}
}

// Incr bumps a named counter, creating it at 1 when missing.
func (s *CounterStore) Incr(ctx context.Context, name string) error {
	const query = `
		INSERT INTO counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1`

	_, err := dbFrom(ctx, s.pool).Exec(ctx, query, name)
	if err != nil {
		return fmt.Errorf("postgres: incr counter %s: %w", name, err)
	}
	return nil
}

// Get returns the current value of a named counter; missing counters are
// zero.
func (s *CounterStore) Get(ctx context.Context, name string) (uint64, error) {
	var value int64
	err := dbFrom(ctx, s.pool).QueryRow(ctx,
		`SELECT value FROM counters WHERE name = $1`, name,
	).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("postgres: get counter %s: %w", name, err)
	}
	return uint64(value), nil
}

// All returns every counter.
func (s *CounterStore) All(ctx context.Context) (map[string]uint64, error) {
	rows, err := dbFrom(ctx, s.pool).Query(ctx, `SELECT name, value FROM counters`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list counters: %w", err)
	}
	defer rows.Close()

	out := make(map[string]uint64)
	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("postgres: scan counter: %w", err)
		}
		out[name] = uint64(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list counters rows: %w", err)
	}
	return out, nil
}
