package memory

import (
	"context"
	"sort"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// OfferStore implements domain.OfferStore over the shared Store state.
type OfferStore struct {
	root *Store
}

// Offers returns the offer store view.
func (s *Store) Offers() *OfferStore {
	return &OfferStore{root: s}
}

// Create inserts a new offer.
func (s *OfferStore) Create(ctx context.Context, offer domain.Offer) error {
	defer s.root.lock(ctx)()

	if _, ok := s.root.offers[offer.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.root.offers[offer.ID] = offer
	return nil
}

// Get returns an offer by ID.
func (s *OfferStore) Get(ctx context.Context, id string) (domain.Offer, error) {
	defer s.root.lock(ctx)()

	offer, ok := s.root.offers[id]
	if !ok {
		return domain.Offer{}, domain.ErrNotFound
	}
	return offer, nil
}

// GetForUpdate behaves like Get under the store mutex.
func (s *OfferStore) GetForUpdate(ctx context.Context, id string) (domain.Offer, error) {
	return s.Get(ctx, id)
}

// Update rewrites an existing offer record.
func (s *OfferStore) Update(ctx context.Context, offer domain.Offer) error {
	defer s.root.lock(ctx)()

	if _, ok := s.root.offers[offer.ID]; !ok {
		return domain.ErrNotFound
	}
	s.root.offers[offer.ID] = offer
	return nil
}

// ListByItem returns the offers made against an item, newest first.
func (s *OfferStore) ListByItem(ctx context.Context, itemID string, opts domain.ListOpts) ([]domain.Offer, error) {
	defer s.root.lock(ctx)()

	var out []domain.Offer
	for _, offer := range s.root.offers {
		if offer.ItemID == itemID {
			out = append(out, offer)
		}
	}
	sortOffersNewestFirst(out)
	return paginate(out, opts), nil
}

// ListByBuyer returns a buyer's offers, newest first.
func (s *OfferStore) ListByBuyer(ctx context.Context, buyer string, opts domain.ListOpts) ([]domain.Offer, error) {
	defer s.root.lock(ctx)()

	var out []domain.Offer
	for _, offer := range s.root.offers {
		if offer.Buyer == buyer {
			out = append(out, offer)
		}
	}
	sortOffersNewestFirst(out)
	return paginate(out, opts), nil
}

func sortOffersNewestFirst(offers []domain.Offer) {
	sort.Slice(offers, func(i, j int) bool {
		if offers[i].CreatedAt.Equal(offers[j].CreatedAt) {
			return offers[i].ID < offers[j].ID
		}
		return offers[i].CreatedAt.After(offers[j].CreatedAt)
	})
}
