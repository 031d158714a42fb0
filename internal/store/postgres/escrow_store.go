package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// EscrowStore implements domain.EscrowStore using PostgreSQL.
type EscrowStore struct {
	pool *pgxpool.Pool
}

// NewEscrowStore creates a new EscrowStore backed by the given connection pool.
func NewEscrowStore(pool *pgxpool.Pool) *EscrowStore {
	return &EscrowStore{pool: pool}
}

const escrowSelectCols = `id, item_id, buyer, seller, amount, status, created_at, completed_at`

// Create inserts a new escrow. The partial unique index on unresolved
// escrows per item backs up the acceptance guard at the schema level.
func (s *EscrowStore) Create(ctx context.Context, escrow domain.Escrow) error {
	const query = `
		INSERT INTO escrows (id, item_id, buyer, seller, amount, status, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := dbFrom(ctx, s.pool).Exec(ctx, query,
		escrow.ID, escrow.ItemID, escrow.Buyer, escrow.Seller,
		int64(escrow.Amount), string(escrow.Status), escrow.CreatedAt, escrow.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create escrow %s: %w", escrow.ID, err)
	}
	return nil
}

func scanEscrowFromRow(scanner interface{ Scan(dest ...any) error }) (domain.Escrow, error) {
	var escrow domain.Escrow
	var amount int64
	var status string

	err := scanner.Scan(
		&escrow.ID, &escrow.ItemID, &escrow.Buyer, &escrow.Seller,
		&amount, &status, &escrow.CreatedAt, &escrow.CompletedAt,
	)
	if err != nil {
		return domain.Escrow{}, err
	}

	escrow.Amount = uint64(amount)
	escrow.Status = domain.EscrowStatus(status)
	return escrow, nil
}

func (s *EscrowStore) get(ctx context.Context, id string, forUpdate bool) (domain.Escrow, error) {
	query := `SELECT ` + escrowSelectCols + ` FROM escrows WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	escrow, err := scanEscrowFromRow(dbFrom(ctx, s.pool).QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Escrow{}, domain.ErrNotFound
		}
		return domain.Escrow{}, fmt.Errorf("postgres: get escrow %s: %w", id, err)
	}
	return escrow, nil
}

// Get retrieves a single escrow by ID.
func (s *EscrowStore) Get(ctx context.Context, id string) (domain.Escrow, error) {
	return s.get(ctx, id, false)
}

// GetForUpdate retrieves an escrow and locks its row for the remainder of
// the surrounding transaction.
func (s *EscrowStore) GetForUpdate(ctx context.Context, id string) (domain.Escrow, error) {
	return s.get(ctx, id, true)
}

// Update rewrites the mutable fields of an existing escrow.
func (s *EscrowStore) Update(ctx context.Context, escrow domain.Escrow) error {
	const query = `UPDATE escrows SET status = $1, completed_at = $2 WHERE id = $3`

	tag, err := dbFrom(ctx, s.pool).Exec(ctx, query,
		string(escrow.Status), escrow.CompletedAt, escrow.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: update escrow %s: %w", escrow.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// OpenByItem returns the unresolved (active or disputed) escrow for an
// item, or domain.ErrNotFound when there is none.
func (s *EscrowStore) OpenByItem(ctx context.Context, itemID string) (domain.Escrow, error) {
	const query = `SELECT ` + escrowSelectCols + ` FROM escrows
		WHERE item_id = $1 AND status IN ('active', 'disputed')`

	escrow, err := scanEscrowFromRow(dbFrom(ctx, s.pool).QueryRow(ctx, query, itemID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Escrow{}, domain.ErrNotFound
		}
		return domain.Escrow{}, fmt.Errorf("postgres: open escrow by item %s: %w", itemID, err)
	}
	return escrow, nil
}

// ListByParty returns the escrows where address is buyer or seller, newest
// first.
func (s *EscrowStore) ListByParty(ctx context.Context, address string, opts domain.ListOpts) ([]domain.Escrow, error) {
	query := `SELECT ` + escrowSelectCols + ` FROM escrows
		WHERE buyer = $1 OR seller = $1 ORDER BY created_at DESC`
	query, args := applyListOpts(query, []any{address}, opts, 2)

	rows, err := dbFrom(ctx, s.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list escrows by party: %w", err)
	}
	defer rows.Close()

	var escrows []domain.Escrow
	for rows.Next() {
		escrow, err := scanEscrowFromRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan escrow: %w", err)
		}
		escrows = append(escrows, escrow)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list escrows by party rows: %w", err)
	}
	return escrows, nil
}
