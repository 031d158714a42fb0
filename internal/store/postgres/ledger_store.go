package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// LedgerStore implements domain.Ledger using PostgreSQL accounts and hold
// rows. Fund movements rely on the surrounding transaction: a debit and
// the hold it feeds commit together or not at all.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore creates a new LedgerStore backed by the given connection pool.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// Deposit credits an account, creating it if needed.
func (s *LedgerStore) Deposit(ctx context.Context, address string, amount uint64) error {
	const query = `
		INSERT INTO accounts (address, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (address)
		DO UPDATE SET balance = accounts.balance + EXCLUDED.balance, updated_at = NOW()`

	_, err := dbFrom(ctx, s.pool).Exec(ctx, query, address, int64(amount))
	if err != nil {
		return fmt.Errorf("postgres: deposit to %s: %w", address, err)
	}
	return nil
}

// Balance returns the spendable balance of an account; unknown addresses
// have balance zero.
func (s *LedgerStore) Balance(ctx context.Context, address string) (uint64, error) {
	var balance int64
	err := dbFrom(ctx, s.pool).QueryRow(ctx,
		`SELECT balance FROM accounts WHERE address = $1`, address,
	).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("postgres: balance of %s: %w", address, err)
	}
	return uint64(balance), nil
}

// debit locks the account row and subtracts amount, failing with an
// insufficient-funds fault when the balance does not cover it.
func (s *LedgerStore) debit(ctx context.Context, address string, amount uint64) error {
	db := dbFrom(ctx, s.pool)

	var balance int64
	err := db.QueryRow(ctx,
		`SELECT balance FROM accounts WHERE address = $1 FOR UPDATE`, address,
	).Scan(&balance)
	if err != nil && err != pgx.ErrNoRows {
		return fmt.Errorf("postgres: lock account %s: %w", address, err)
	}
	if uint64(balance) < amount {
		return domain.Validationf(domain.CodeInsufficientFunds,
			"account %s holds %d, needs %d", address, balance, amount)
	}

	_, err = db.Exec(ctx,
		`UPDATE accounts SET balance = balance - $1, updated_at = NOW() WHERE address = $2`,
		int64(amount), address,
	)
	if err != nil {
		return fmt.Errorf("postgres: debit %s: %w", address, err)
	}
	return nil
}

// credit adds amount to an account, creating it if needed.
func (s *LedgerStore) credit(ctx context.Context, address string, amount uint64) error {
	const query = `
		INSERT INTO accounts (address, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (address)
		DO UPDATE SET balance = accounts.balance + EXCLUDED.balance, updated_at = NOW()`

	_, err := dbFrom(ctx, s.pool).Exec(ctx, query, address, int64(amount))
	if err != nil {
		return fmt.Errorf("postgres: credit %s: %w", address, err)
	}
	return nil
}

// PlaceHold debits owner and locks amount under (kind, refID).
func (s *LedgerStore) PlaceHold(ctx context.Context, kind domain.HoldKind, refID, owner string, amount uint64) error {
	if err := s.debit(ctx, owner, amount); err != nil {
		return err
	}

	const query = `INSERT INTO holds (kind, ref_id, owner, amount, created_at) VALUES ($1, $2, $3, $4, NOW())`
	_, err := dbFrom(ctx, s.pool).Exec(ctx, query, string(kind), refID, owner, int64(amount))
	if err != nil {
		return fmt.Errorf("postgres: place hold %s/%s: %w", kind, refID, err)
	}
	return nil
}

// getHold reads a hold, optionally locking it.
func (s *LedgerStore) getHold(ctx context.Context, kind domain.HoldKind, refID string, forUpdate bool) (domain.Hold, error) {
	query := `SELECT kind, ref_id, owner, amount, created_at FROM holds WHERE kind = $1 AND ref_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var hold domain.Hold
	var holdKind string
	var amount int64
	err := dbFrom(ctx, s.pool).QueryRow(ctx, query, string(kind), refID).Scan(
		&holdKind, &hold.RefID, &hold.Owner, &amount, &hold.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Hold{}, domain.ErrNotFound
		}
		return domain.Hold{}, fmt.Errorf("postgres: get hold %s/%s: %w", kind, refID, err)
	}

	hold.Kind = domain.HoldKind(holdKind)
	hold.Amount = uint64(amount)
	return hold, nil
}

// TopUpHold debits owner and adds amount to an existing hold.
func (s *LedgerStore) TopUpHold(ctx context.Context, kind domain.HoldKind, refID, owner string, amount uint64) error {
	if _, err := s.getHold(ctx, kind, refID, true); err != nil {
		return err
	}
	if err := s.debit(ctx, owner, amount); err != nil {
		return err
	}

	const query = `UPDATE holds SET amount = amount + $1 WHERE kind = $2 AND ref_id = $3`
	_, err := dbFrom(ctx, s.pool).Exec(ctx, query, int64(amount), string(kind), refID)
	if err != nil {
		return fmt.Errorf("postgres: top up hold %s/%s: %w", kind, refID, err)
	}
	return nil
}

// ReduceHold releases amount from a hold back to the named recipient.
func (s *LedgerStore) ReduceHold(ctx context.Context, kind domain.HoldKind, refID, to string, amount uint64) error {
	hold, err := s.getHold(ctx, kind, refID, true)
	if err != nil {
		return err
	}
	if amount > hold.Amount {
		return domain.Statef(domain.CodeHoldMismatch,
			"hold %s/%s custodies %d, cannot release %d", kind, refID, hold.Amount, amount)
	}

	const query = `UPDATE holds SET amount = amount - $1 WHERE kind = $2 AND ref_id = $3`
	if _, err := dbFrom(ctx, s.pool).Exec(ctx, query, int64(amount), string(kind), refID); err != nil {
		return fmt.Errorf("postgres: reduce hold %s/%s: %w", kind, refID, err)
	}
	return s.credit(ctx, to, amount)
}

// MoveHold re-keys custody from one reference to another without touching
// any balance.
func (s *LedgerStore) MoveHold(ctx context.Context, fromKind domain.HoldKind, fromRef string, toKind domain.HoldKind, toRef string) error {
	const query = `UPDATE holds SET kind = $1, ref_id = $2 WHERE kind = $3 AND ref_id = $4`

	tag, err := dbFrom(ctx, s.pool).Exec(ctx, query, string(toKind), toRef, string(fromKind), fromRef)
	if err != nil {
		return fmt.Errorf("postgres: move hold %s/%s: %w", fromKind, fromRef, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReleaseHold releases the full hold to the named recipient and removes it.
func (s *LedgerStore) ReleaseHold(ctx context.Context, kind domain.HoldKind, refID, to string) (uint64, error) {
	hold, err := s.getHold(ctx, kind, refID, true)
	if err != nil {
		return 0, err
	}

	const query = `DELETE FROM holds WHERE kind = $1 AND ref_id = $2`
	if _, err := dbFrom(ctx, s.pool).Exec(ctx, query, string(kind), refID); err != nil {
		return 0, fmt.Errorf("postgres: release hold %s/%s: %w", kind, refID, err)
	}
	if err := s.credit(ctx, to, hold.Amount); err != nil {
		return 0, err
	}
	return hold.Amount, nil
}

// GetHold returns the hold locked under (kind, refID).
func (s *LedgerStore) GetHold(ctx context.Context, kind domain.HoldKind, refID string) (domain.Hold, error) {
	return s.getHold(ctx, kind, refID, false)
}
