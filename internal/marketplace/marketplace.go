// Package marketplace implements the peer-to-peer ledger core: the item
// catalog, offer negotiation, and escrow custody state machines. Every
// mutating operation runs inside one storage transaction, re-reads
// authoritative state before checking preconditions, and either commits all
// of its writes or none of them.
package marketplace

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rijulg06/thriftchain/internal/capability"
	"github.com/rijulg06/thriftchain/internal/domain"
)

// Event bus destinations for marketplace events. The pub/sub channel feeds
// live consumers (WebSocket hub, notifiers); the stream is the durable copy
// that indexers and the archiver read.
const (
	EventChannel = "marketplace:events"
	EventStream  = "stream:marketplace:events"
)

// Deps bundles everything the aggregate needs. Tx, Items, Offers, Escrows,
// Ledger, Events, Counters and Issuer are required; Bus and Cache are
// optional off-core conveniences.
type Deps struct {
	Tx       domain.Transactor
	Items    domain.ItemStore
	Offers   domain.OfferStore
	Escrows  domain.EscrowStore
	Ledger   domain.Ledger
	Events   domain.EventStore
	Counters domain.CounterStore
	Bus      domain.EventBus
	Cache    domain.ItemCache
	Issuer   *capability.Issuer
	Clock    domain.Clock
	Logger   *slog.Logger
}

// Marketplace is the aggregate root: the single owner of the item, offer
// and escrow collections. All entity mutation goes through its methods.
type Marketplace struct {
	tx       domain.Transactor
	items    domain.ItemStore
	offers   domain.OfferStore
	escrows  domain.EscrowStore
	ledger   domain.Ledger
	eventLog domain.EventStore
	counters domain.CounterStore
	bus      domain.EventBus
	cache    domain.ItemCache
	issuer   *capability.Issuer
	clock    domain.Clock
	logger   *slog.Logger
}

// New creates the aggregate. Clock defaults to the system clock and Logger
// to slog.Default when unset.
func New(d Deps) *Marketplace {
	if d.Clock == nil {
		d.Clock = domain.SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Marketplace{
		tx:       d.Tx,
		items:    d.Items,
		offers:   d.Offers,
		escrows:  d.Escrows,
		ledger:   d.Ledger,
		eventLog: d.Events,
		counters: d.Counters,
		bus:      d.Bus,
		cache:    d.Cache,
		issuer:   d.Issuer,
		clock:    d.Clock,
		logger:   d.Logger.With(slog.String("component", "marketplace")),
	}
}

// newEvent stamps a fresh event with an ID and the current time.
func (m *Marketplace) newEvent(t domain.EventType) domain.Event {
	return domain.Event{
		ID:        uuid.New().String(),
		Type:      t,
		CreatedAt: m.clock.Now(),
	}
}

// emit publishes committed events to the bus. Delivery is best effort and
// never fails the operation that produced the events; the durable record
// is the event log written inside the transaction.
func (m *Marketplace) emit(ctx context.Context, events ...domain.Event) {
	if m.bus == nil {
		return
	}
	for _, e := range events {
		payload, err := json.Marshal(eventPayload(e))
		if err != nil {
			m.logger.WarnContext(ctx, "marshal event", slog.String("type", string(e.Type)), slog.String("error", err.Error()))
			continue
		}
		if err := m.bus.Publish(ctx, EventChannel, payload); err != nil {
			m.logger.WarnContext(ctx, "publish event", slog.String("type", string(e.Type)), slog.String("error", err.Error()))
		}
		if err := m.bus.StreamAppend(ctx, EventStream, payload); err != nil {
			m.logger.WarnContext(ctx, "stream event", slog.String("type", string(e.Type)), slog.String("error", err.Error()))
		}
	}
}

// eventPayload is the wire form of an event on the bus.
func eventPayload(e domain.Event) map[string]any {
	out := map[string]any{
		"id":         e.ID,
		"type":       string(e.Type),
		"actor":      e.Actor,
		"created_at": e.CreatedAt.Format(time.RFC3339Nano),
	}
	if e.ItemID != "" {
		out["item_id"] = e.ItemID
	}
	if e.OfferID != "" {
		out["offer_id"] = e.OfferID
	}
	if e.EscrowID != "" {
		out["escrow_id"] = e.EscrowID
	}
	if e.Amount > 0 {
		out["amount"] = e.Amount
	}
	for k, v := range e.Detail {
		out[k] = v
	}
	return out
}

// invalidateItem drops a cached item after a mutation. Best effort.
func (m *Marketplace) invalidateItem(ctx context.Context, id string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Invalidate(ctx, id); err != nil {
		m.logger.WarnContext(ctx, "invalidate item cache", slog.String("item_id", id), slog.String("error", err.Error()))
	}
}
