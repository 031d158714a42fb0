package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/rijulg06/thriftchain/internal/domain"
)

type captureSender struct {
	sent []Notification
}

func (c *captureSender) Send(_ context.Context, n Notification) error {
	c.sent = append(c.sent, n)
	return nil
}

func (c *captureSender) Name() string { return "capture" }

func TestRender(t *testing.T) {
	t.Run("offer created carries identifiers", func(t *testing.T) {
		note, ok := render(string(domain.EventOfferCreated), "item-1", "offer-1", "", "0xBuyer", 300)
		if !ok {
			t.Fatal("offer_created should render")
		}
		if note.Title != "New offer" || note.ItemID != "item-1" || note.Amount != 300 {
			t.Errorf("note = %+v", note)
		}
		if note.Event != string(domain.EventOfferCreated) {
			t.Errorf("event = %s", note.Event)
		}
	})

	t.Run("uninteresting events are skipped", func(t *testing.T) {
		if _, ok := render(string(domain.EventItemPriceUpdated), "item-1", "", "", "", 0); ok {
			t.Error("price updates should not notify")
		}
	})
}

func TestNotifierFilter(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("configured events pass, others do not", func(t *testing.T) {
		sender := &captureSender{}
		n := NewNotifier([]Sender{sender}, []string{string(domain.EventItemSold)}, logger)

		sold := Notification{Event: string(domain.EventItemSold), Title: "Item sold"}
		if err := n.Notify(ctx, sold); err != nil {
			t.Fatalf("notify: %v", err)
		}
		offer := Notification{Event: string(domain.EventOfferCreated), Title: "New offer"}
		if err := n.Notify(ctx, offer); err != nil {
			t.Fatalf("notify: %v", err)
		}

		if len(sender.sent) != 1 || sender.sent[0].Event != string(domain.EventItemSold) {
			t.Errorf("sent = %+v, want only the item_sold alert", sender.sent)
		}
	})

	t.Run("empty filter allows everything", func(t *testing.T) {
		sender := &captureSender{}
		n := NewNotifier([]Sender{sender}, nil, logger)

		if err := n.Notify(ctx, Notification{Event: "anything"}); err != nil {
			t.Fatalf("notify: %v", err)
		}
		if len(sender.sent) != 1 {
			t.Errorf("sent = %d notifications, want 1", len(sender.sent))
		}
	})
}
