package marketplace

import (
	"context"
	"log/slog"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// GetItem returns an item, reading through the cache when one is wired.
func (m *Marketplace) GetItem(ctx context.Context, id string) (domain.Item, error) {
	if m.cache != nil {
		if item, err := m.cache.Get(ctx, id); err == nil {
			return item, nil
		}
	}

	item, err := m.items.Get(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}

	if m.cache != nil {
		if err := m.cache.Set(ctx, item); err != nil {
			m.logger.WarnContext(ctx, "set item cache", slog.String("item_id", id), slog.String("error", err.Error()))
		}
	}
	return item, nil
}

// ListActiveItems returns the purchasable catalog.
func (m *Marketplace) ListActiveItems(ctx context.Context, opts domain.ListOpts) ([]domain.Item, error) {
	return m.items.ListActive(ctx, opts)
}

// ListItemsBySeller returns a seller's listings.
func (m *Marketplace) ListItemsBySeller(ctx context.Context, seller string, opts domain.ListOpts) ([]domain.Item, error) {
	return m.items.ListBySeller(ctx, seller, opts)
}

// GetOffer returns an offer by ID.
func (m *Marketplace) GetOffer(ctx context.Context, id string) (domain.Offer, error) {
	return m.offers.Get(ctx, id)
}

// ListOffersByItem returns the offers against an item.
func (m *Marketplace) ListOffersByItem(ctx context.Context, itemID string, opts domain.ListOpts) ([]domain.Offer, error) {
	return m.offers.ListByItem(ctx, itemID, opts)
}

// ListOffersByBuyer returns a buyer's offers.
func (m *Marketplace) ListOffersByBuyer(ctx context.Context, buyer string, opts domain.ListOpts) ([]domain.Offer, error) {
	return m.offers.ListByBuyer(ctx, buyer, opts)
}

// GetEscrow returns an escrow by ID.
func (m *Marketplace) GetEscrow(ctx context.Context, id string) (domain.Escrow, error) {
	return m.escrows.Get(ctx, id)
}

// ListEscrowsByParty returns the escrows where address is buyer or seller.
func (m *Marketplace) ListEscrowsByParty(ctx context.Context, address string, opts domain.ListOpts) ([]domain.Escrow, error) {
	return m.escrows.ListByParty(ctx, address, opts)
}

// Deposit credits an account from the external settlement rail. It is a
// ledger-collaborator operation, not a marketplace event.
func (m *Marketplace) Deposit(ctx context.Context, address string, amount uint64) error {
	if address == "" {
		return domain.Validationf(domain.CodeInvalidAddress, "address required")
	}
	if amount == 0 {
		return domain.Validationf(domain.CodeAmountNotPositive, "deposit must be greater than zero")
	}
	return m.tx.WithinTx(ctx, func(ctx context.Context) error {
		return m.ledger.Deposit(ctx, address, amount)
	})
}

// Balance returns the spendable balance of an account.
func (m *Marketplace) Balance(ctx context.Context, address string) (uint64, error) {
	return m.ledger.Balance(ctx, address)
}

// Events returns the event log, newest first.
func (m *Marketplace) Events(ctx context.Context, opts domain.ListOpts) ([]domain.Event, error) {
	return m.eventLog.List(ctx, opts)
}

// Stats reports the diagnostic counters plus the catalog size.
func (m *Marketplace) Stats(ctx context.Context) (map[string]uint64, error) {
	counters, err := m.counters.All(ctx)
	if err != nil {
		return nil, err
	}
	total, err := m.items.Count(ctx)
	if err != nil {
		return nil, err
	}
	counters["items_total"] = uint64(total)
	return counters, nil
}
