package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// OfferStore implements domain.OfferStore using PostgreSQL.
type OfferStore struct {
	pool *pgxpool.Pool
}

// NewOfferStore creates a new OfferStore backed by the given connection pool.
func NewOfferStore(pool *pgxpool.Pool) *OfferStore {
	return &OfferStore{pool: pool}
}

const offerSelectCols = `id, item_id, buyer, seller, amount, message, status,
	is_counter, countered_by, expires_at, created_at, resolved_at`

// Create inserts a new offer.
func (s *OfferStore) Create(ctx context.Context, offer domain.Offer) error {
	const query = `
		INSERT INTO offers (
			id, item_id, buyer, seller, amount, message, status,
			is_counter, countered_by, expires_at, created_at, resolved_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12
		)`

	_, err := dbFrom(ctx, s.pool).Exec(ctx, query,
		offer.ID, offer.ItemID, offer.Buyer, offer.Seller,
		int64(offer.Amount), offer.Message, string(offer.Status),
		offer.IsCounter, offer.CounteredBy, offer.ExpiresAt, offer.CreatedAt, offer.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create offer %s: %w", offer.ID, err)
	}
	return nil
}

func scanOfferFromRow(scanner interface{ Scan(dest ...any) error }) (domain.Offer, error) {
	var offer domain.Offer
	var amount int64
	var status string

	err := scanner.Scan(
		&offer.ID, &offer.ItemID, &offer.Buyer, &offer.Seller,
		&amount, &offer.Message, &status,
		&offer.IsCounter, &offer.CounteredBy, &offer.ExpiresAt, &offer.CreatedAt, &offer.ResolvedAt,
	)
	if err != nil {
		return domain.Offer{}, err
	}

	offer.Amount = uint64(amount)
	offer.Status = domain.OfferStatus(status)
	return offer, nil
}

func (s *OfferStore) get(ctx context.Context, id string, forUpdate bool) (domain.Offer, error) {
	query := `SELECT ` + offerSelectCols + ` FROM offers WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	offer, err := scanOfferFromRow(dbFrom(ctx, s.pool).QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Offer{}, domain.ErrNotFound
		}
		return domain.Offer{}, fmt.Errorf("postgres: get offer %s: %w", id, err)
	}
	return offer, nil
}

// Get retrieves a single offer by ID.
func (s *OfferStore) Get(ctx context.Context, id string) (domain.Offer, error) {
	return s.get(ctx, id, false)
}

// GetForUpdate retrieves an offer and locks its row for the remainder of
// the surrounding transaction.
func (s *OfferStore) GetForUpdate(ctx context.Context, id string) (domain.Offer, error) {
	return s.get(ctx, id, true)
}

// Update rewrites the mutable fields of an existing offer.
func (s *OfferStore) Update(ctx context.Context, offer domain.Offer) error {
	const query = `
		UPDATE offers SET
			amount = $1, message = $2, status = $3,
			is_counter = $4, countered_by = $5, resolved_at = $6
		WHERE id = $7`

	tag, err := dbFrom(ctx, s.pool).Exec(ctx, query,
		int64(offer.Amount), offer.Message, string(offer.Status),
		offer.IsCounter, offer.CounteredBy, offer.ResolvedAt, offer.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: update offer %s: %w", offer.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanOfferRows(rows pgx.Rows) ([]domain.Offer, error) {
	var offers []domain.Offer
	for rows.Next() {
		offer, err := scanOfferFromRow(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

// ListByItem returns the offers against an item, newest first.
func (s *OfferStore) ListByItem(ctx context.Context, itemID string, opts domain.ListOpts) ([]domain.Offer, error) {
	query := `SELECT ` + offerSelectCols + ` FROM offers WHERE item_id = $1 ORDER BY created_at DESC`
	query, args := applyListOpts(query, []any{itemID}, opts, 2)

	rows, err := dbFrom(ctx, s.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list offers by item: %w", err)
	}
	defer rows.Close()

	offers, err := scanOfferRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan offers by item: %w", err)
	}
	return offers, nil
}

// ListByBuyer returns a buyer's offers, newest first.
func (s *OfferStore) ListByBuyer(ctx context.Context, buyer string, opts domain.ListOpts) ([]domain.Offer, error) {
	query := `SELECT ` + offerSelectCols + ` FROM offers WHERE buyer = $1 ORDER BY created_at DESC`
	query, args := applyListOpts(query, []any{buyer}, opts, 2)

	rows, err := dbFrom(ctx, s.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list offers by buyer: %w", err)
	}
	defer rows.Close()

	offers, err := scanOfferRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan offers by buyer: %w", err)
	}
	return offers, nil
}
