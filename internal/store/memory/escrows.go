package memory

import (
	"context"
	"sort"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// EscrowStore implements domain.EscrowStore over the shared Store state.
type EscrowStore struct {
	root *Store
}

// Escrows returns the escrow store view.
func (s *Store) Escrows() *EscrowStore {
	return &EscrowStore{root: s}
}

// Create inserts a new escrow.
func (s *EscrowStore) Create(ctx context.Context, escrow domain.Escrow) error {
	defer s.root.lock(ctx)()

	if _, ok := s.root.escrows[escrow.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.root.escrows[escrow.ID] = escrow
	return nil
}

// Get returns an escrow by ID.
func (s *EscrowStore) Get(ctx context.Context, id string) (domain.Escrow, error) {
	defer s.root.lock(ctx)()

	escrow, ok := s.root.escrows[id]
	if !ok {
		return domain.Escrow{}, domain.ErrNotFound
	}
	return escrow, nil
}

// GetForUpdate behaves like Get under the store mutex.
func (s *EscrowStore) GetForUpdate(ctx context.Context, id string) (domain.Escrow, error) {
	return s.Get(ctx, id)
}

// Update rewrites an existing escrow record.
func (s *EscrowStore) Update(ctx context.Context, escrow domain.Escrow) error {
	defer s.root.lock(ctx)()

	if _, ok := s.root.escrows[escrow.ID]; !ok {
		return domain.ErrNotFound
	}
	s.root.escrows[escrow.ID] = escrow
	return nil
}

// OpenByItem returns the unresolved escrow for an item, or ErrNotFound.
func (s *EscrowStore) OpenByItem(ctx context.Context, itemID string) (domain.Escrow, error) {
	defer s.root.lock(ctx)()

	for _, escrow := range s.root.escrows {
		if escrow.ItemID == itemID && escrow.Unresolved() {
			return escrow, nil
		}
	}
	return domain.Escrow{}, domain.ErrNotFound
}

// ListByParty returns the escrows where address is buyer or seller, newest
// first.
func (s *EscrowStore) ListByParty(ctx context.Context, address string, opts domain.ListOpts) ([]domain.Escrow, error) {
	defer s.root.lock(ctx)()

	var out []domain.Escrow
	for _, escrow := range s.root.escrows {
		if escrow.Buyer == address || escrow.Seller == address {
			out = append(out, escrow)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, opts), nil
}
