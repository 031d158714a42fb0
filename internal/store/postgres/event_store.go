package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// EventStore implements the append-only domain.EventStore using PostgreSQL.
// The detail map is stored as JSONB.
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Append writes an event. It participates in the same transaction as the
// mutation that produced the event.
func (s *EventStore) Append(ctx context.Context, event domain.Event) error {
	var detailJSON []byte
	if event.Detail != nil {
		var err error
		detailJSON, err = json.Marshal(event.Detail)
		if err != nil {
			return fmt.Errorf("postgres: marshal event detail: %w", err)
		}
	}

	const query = `
		INSERT INTO events (id, type, item_id, offer_id, escrow_id, actor, amount, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := dbFrom(ctx, s.pool).Exec(ctx, query,
		event.ID, string(event.Type), event.ItemID, event.OfferID, event.EscrowID,
		event.Actor, int64(event.Amount), detailJSON, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: append event %s: %w", event.Type, err)
	}
	return nil
}

// List returns events newest first with pagination and time filtering.
func (s *EventStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Event, error) {
	query := `SELECT id, type, item_id, offer_id, escrow_id, actor, amount, detail, created_at
		FROM events WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY created_at DESC"
	query, args = applyListOpts(query, args, opts, argIdx)

	rows, err := dbFrom(ctx, s.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var eventType string
		var amount int64
		var detailJSON []byte

		if err := rows.Scan(&e.ID, &eventType, &e.ItemID, &e.OfferID, &e.EscrowID,
			&e.Actor, &amount, &detailJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}

		e.Type = domain.EventType(eventType)
		e.Amount = uint64(amount)
		if detailJSON != nil {
			if err := json.Unmarshal(detailJSON, &e.Detail); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal event detail: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list events rows: %w", err)
	}
	return events, nil
}
