package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// ItemStore implements domain.ItemStore using PostgreSQL.
type ItemStore struct {
	pool *pgxpool.Pool
}

// NewItemStore creates a new ItemStore backed by the given connection pool.
func NewItemStore(pool *pgxpool.Pool) *ItemStore {
	return &ItemStore{pool: pool}
}

const itemSelectCols = `id, seller, title, description, price, category, tags, image_refs,
	condition, brand, size, color, material, status, created_at, updated_at`

// Create inserts a new item.
func (s *ItemStore) Create(ctx context.Context, item domain.Item) error {
	const query = `
		INSERT INTO items (
			id, seller, title, description, price, category, tags, image_refs,
			condition, brand, size, color, material, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14, $15, $16
		)`

	_, err := dbFrom(ctx, s.pool).Exec(ctx, query,
		item.ID, item.Seller, item.Title, item.Description,
		int64(item.Price), item.Category, item.Tags, item.ImageRefs,
		item.Condition, item.Brand, item.Size, item.Color, item.Material,
		string(item.Status), item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create item %s: %w", item.ID, err)
	}
	return nil
}

func scanItemFromRow(scanner interface{ Scan(dest ...any) error }) (domain.Item, error) {
	var item domain.Item
	var price int64
	var status string

	err := scanner.Scan(
		&item.ID, &item.Seller, &item.Title, &item.Description,
		&price, &item.Category, &item.Tags, &item.ImageRefs,
		&item.Condition, &item.Brand, &item.Size, &item.Color, &item.Material,
		&status, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return domain.Item{}, err
	}

	item.Price = uint64(price)
	item.Status = domain.ItemStatus(status)
	return item, nil
}

func (s *ItemStore) get(ctx context.Context, id string, forUpdate bool) (domain.Item, error) {
	query := `SELECT ` + itemSelectCols + ` FROM items WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	item, err := scanItemFromRow(dbFrom(ctx, s.pool).QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Item{}, domain.ErrNotFound
		}
		return domain.Item{}, fmt.Errorf("postgres: get item %s: %w", id, err)
	}
	return item, nil
}

// Get retrieves a single item by ID.
func (s *ItemStore) Get(ctx context.Context, id string) (domain.Item, error) {
	return s.get(ctx, id, false)
}

// GetForUpdate retrieves an item and locks its row for the remainder of
// the surrounding transaction.
func (s *ItemStore) GetForUpdate(ctx context.Context, id string) (domain.Item, error) {
	return s.get(ctx, id, true)
}

// UpdatePrice sets a new price on an existing item.
func (s *ItemStore) UpdatePrice(ctx context.Context, id string, price uint64) error {
	const query = `UPDATE items SET price = $1, updated_at = NOW() WHERE id = $2`

	tag, err := dbFrom(ctx, s.pool).Exec(ctx, query, int64(price), id)
	if err != nil {
		return fmt.Errorf("postgres: update item price %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetStatus transitions an existing item's status.
func (s *ItemStore) SetStatus(ctx context.Context, id string, status domain.ItemStatus) error {
	const query = `UPDATE items SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := dbFrom(ctx, s.pool).Exec(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("postgres: set item status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanItemRows(rows pgx.Rows) ([]domain.Item, error) {
	var items []domain.Item
	for rows.Next() {
		item, err := scanItemFromRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListActive returns active items, newest first, with pagination.
func (s *ItemStore) ListActive(ctx context.Context, opts domain.ListOpts) ([]domain.Item, error) {
	query := `SELECT ` + itemSelectCols + ` FROM items WHERE status = 'active' ORDER BY created_at DESC`
	query, args := applyListOpts(query, nil, opts, 1)

	rows, err := dbFrom(ctx, s.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active items: %w", err)
	}
	defer rows.Close()

	items, err := scanItemRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan active items: %w", err)
	}
	return items, nil
}

// ListBySeller returns a seller's items, newest first, with pagination.
func (s *ItemStore) ListBySeller(ctx context.Context, seller string, opts domain.ListOpts) ([]domain.Item, error) {
	query := `SELECT ` + itemSelectCols + ` FROM items WHERE seller = $1 ORDER BY created_at DESC`
	query, args := applyListOpts(query, []any{seller}, opts, 2)

	rows, err := dbFrom(ctx, s.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list items by seller: %w", err)
	}
	defer rows.Close()

	items, err := scanItemRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan items by seller: %w", err)
	}
	return items, nil
}

// Count returns the total number of items ever listed.
func (s *ItemStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := dbFrom(ctx, s.pool).QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count items: %w", err)
	}
	return count, nil
}

// applyListOpts appends LIMIT/OFFSET clauses for the given options. The
// query must already end with its ORDER BY clause; argIdx is the next free
// placeholder index.
func applyListOpts(query string, args []any, opts domain.ListOpts, argIdx int) (string, []any) {
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}
	return query, args
}
