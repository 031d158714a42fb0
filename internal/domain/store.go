package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// Transactor runs fn inside a single storage transaction. Every mutating
// marketplace operation executes through exactly one WithinTx call: either
// all of its writes commit or none do. The transaction handle travels in
// the context so the stores pick it up transparently.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ItemStore persists catalog items.
type ItemStore interface {
	Create(ctx context.Context, item Item) error
	Get(ctx context.Context, id string) (Item, error)
	// GetForUpdate reads an item and locks its row for the remainder of
	// the surrounding transaction. The item row is the serialization
	// point for "is this item still purchasable".
	GetForUpdate(ctx context.Context, id string) (Item, error)
	UpdatePrice(ctx context.Context, id string, price uint64) error
	SetStatus(ctx context.Context, id string, status ItemStatus) error
	ListActive(ctx context.Context, opts ListOpts) ([]Item, error)
	ListBySeller(ctx context.Context, seller string, opts ListOpts) ([]Item, error)
	Count(ctx context.Context) (int64, error)
}

// OfferStore persists negotiation records.
type OfferStore interface {
	Create(ctx context.Context, offer Offer) error
	Get(ctx context.Context, id string) (Offer, error)
	GetForUpdate(ctx context.Context, id string) (Offer, error)
	// Update rewrites the mutable fields (amount, message, status,
	// counter bookkeeping, resolved_at) of an existing offer.
	Update(ctx context.Context, offer Offer) error
	ListByItem(ctx context.Context, itemID string, opts ListOpts) ([]Offer, error)
	ListByBuyer(ctx context.Context, buyer string, opts ListOpts) ([]Offer, error)
}

// EscrowStore persists custody records.
type EscrowStore interface {
	Create(ctx context.Context, escrow Escrow) error
	Get(ctx context.Context, id string) (Escrow, error)
	GetForUpdate(ctx context.Context, id string) (Escrow, error)
	Update(ctx context.Context, escrow Escrow) error
	// OpenByItem returns the unresolved (active or disputed) escrow for
	// an item, or ErrNotFound when there is none.
	OpenByItem(ctx context.Context, itemID string) (Escrow, error)
	ListByParty(ctx context.Context, address string, opts ListOpts) ([]Escrow, error)
}

// EventStore is the append-only event log. Append participates in the same
// transaction as the mutation that produced the event.
type EventStore interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context, opts ListOpts) ([]Event, error)
}

// CounterStore keeps the marketplace's monotonic diagnostic counters. The
// counters are observability only; entity IDs never derive from them.
type CounterStore interface {
	Incr(ctx context.Context, name string) error
	Get(ctx context.Context, name string) (uint64, error)
	All(ctx context.Context) (map[string]uint64, error)
}

// Diagnostic counter names.
const (
	CounterItemsCreated   = "items_created"
	CounterOffersCreated  = "offers_created"
	CounterEscrowsCreated = "escrows_created"
	CounterTradesSettled  = "trades_settled"
	CounterDisputesOpened = "disputes_opened"
)
