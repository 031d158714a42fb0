package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// Watcher subscribes to the marketplace event channel and forwards
// operator-relevant events to the Notifier. Delivery is best effort; a
// failed send is logged and the watcher keeps consuming.
type Watcher struct {
	bus      domain.EventBus
	notifier *Notifier
	channel  string
	logger   *slog.Logger
}

// NewWatcher creates a Watcher reading from the given pub/sub channel.
func NewWatcher(bus domain.EventBus, notifier *Notifier, channel string, logger *slog.Logger) *Watcher {
	return &Watcher{
		bus:      bus,
		notifier: notifier,
		channel:  channel,
		logger:   logger.With(slog.String("component", "notify_watcher")),
	}
}

// Run consumes events until the context is cancelled. It returns nil on
// cancellation and an error only when the subscription itself fails.
func (w *Watcher) Run(ctx context.Context) error {
	msgs, err := w.bus.Subscribe(ctx, w.channel)
	if err != nil {
		return fmt.Errorf("notify: subscribe %s: %w", w.channel, err)
	}

	w.logger.InfoContext(ctx, "notification watcher started",
		slog.String("channel", w.channel),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, payload)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, payload []byte) {
	var event struct {
		Type     string `json:"type"`
		ItemID   string `json:"item_id"`
		OfferID  string `json:"offer_id"`
		EscrowID string `json:"escrow_id"`
		Actor    string `json:"actor"`
		Amount   uint64 `json:"amount"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		w.logger.WarnContext(ctx, "malformed event payload",
			slog.String("error", err.Error()),
		)
		return
	}

	note, ok := render(event.Type, event.ItemID, event.OfferID, event.EscrowID, event.Actor, event.Amount)
	if !ok {
		return
	}

	if err := w.notifier.Notify(ctx, note); err != nil {
		w.logger.WarnContext(ctx, "notification delivery failed",
			slog.String("event", event.Type),
			slog.String("error", err.Error()),
		)
	}
}

// render maps an event type to an operator notification. Events with no
// operator interest return ok=false and are skipped.
func render(eventType, itemID, offerID, escrowID, actor string, amount uint64) (Notification, bool) {
	note := Notification{
		Event:    eventType,
		ItemID:   itemID,
		EscrowID: escrowID,
		Amount:   amount,
	}
	switch domain.EventType(eventType) {
	case domain.EventOfferCreated:
		note.Title = "New offer"
		note.Body = fmt.Sprintf("%s offered %d (offer %s)", actor, amount, offerID)
	case domain.EventOfferAccepted:
		note.Title = "Offer accepted"
		note.Body = fmt.Sprintf("offer %s accepted at %d, escrow opened", offerID, amount)
	case domain.EventItemSold:
		note.Title = "Item sold"
		note.Body = fmt.Sprintf("sold for %d, funds released to seller", amount)
	case domain.EventEscrowDisputed:
		note.Title = "Escrow disputed"
		note.Body = fmt.Sprintf("buyer %s disputed delivery", actor)
	case domain.EventEscrowRefunded:
		note.Title = "Escrow refunded"
		note.Body = fmt.Sprintf("refunded %d to buyer", amount)
	default:
		return Notification{}, false
	}
	return note, true
}
