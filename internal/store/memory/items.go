package memory

import (
	"context"
	"sort"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// ItemStore implements domain.ItemStore over the shared Store state.
type ItemStore struct {
	root *Store
}

// Items returns the item store view.
func (s *Store) Items() *ItemStore {
	return &ItemStore{root: s}
}

// Create inserts a new item.
func (s *ItemStore) Create(ctx context.Context, item domain.Item) error {
	defer s.root.lock(ctx)()

	if _, ok := s.root.items[item.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.root.items[item.ID] = item
	return nil
}

// Get returns an item by ID.
func (s *ItemStore) Get(ctx context.Context, id string) (domain.Item, error) {
	defer s.root.lock(ctx)()

	item, ok := s.root.items[id]
	if !ok {
		return domain.Item{}, domain.ErrNotFound
	}
	return item, nil
}

// GetForUpdate behaves like Get; the store mutex already serializes the
// surrounding transaction.
func (s *ItemStore) GetForUpdate(ctx context.Context, id string) (domain.Item, error) {
	return s.Get(ctx, id)
}

// UpdatePrice sets a new price on an existing item.
func (s *ItemStore) UpdatePrice(ctx context.Context, id string, price uint64) error {
	defer s.root.lock(ctx)()

	item, ok := s.root.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	item.Price = price
	s.root.items[id] = item
	return nil
}

// SetStatus transitions an existing item's status.
func (s *ItemStore) SetStatus(ctx context.Context, id string, status domain.ItemStatus) error {
	defer s.root.lock(ctx)()

	item, ok := s.root.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	item.Status = status
	s.root.items[id] = item
	return nil
}

// ListActive returns active items ordered newest first.
func (s *ItemStore) ListActive(ctx context.Context, opts domain.ListOpts) ([]domain.Item, error) {
	defer s.root.lock(ctx)()

	var out []domain.Item
	for _, item := range s.root.items {
		if item.Status == domain.ItemStatusActive {
			out = append(out, item)
		}
	}
	sortItemsNewestFirst(out)
	return paginate(out, opts), nil
}

// ListBySeller returns a seller's items ordered newest first.
func (s *ItemStore) ListBySeller(ctx context.Context, seller string, opts domain.ListOpts) ([]domain.Item, error) {
	defer s.root.lock(ctx)()

	var out []domain.Item
	for _, item := range s.root.items {
		if item.Seller == seller {
			out = append(out, item)
		}
	}
	sortItemsNewestFirst(out)
	return paginate(out, opts), nil
}

// Count returns the total number of items ever listed.
func (s *ItemStore) Count(ctx context.Context) (int64, error) {
	defer s.root.lock(ctx)()
	return int64(len(s.root.items)), nil
}

func sortItemsNewestFirst(items []domain.Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
