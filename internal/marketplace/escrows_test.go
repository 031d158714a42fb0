package marketplace

import (
	"context"
	"testing"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// acceptedEscrow lists an item, places an offer at amount, and accepts it.
func acceptedEscrow(t *testing.T, f *fixture, amount uint64) (domain.Item, domain.Escrow) {
	t.Helper()
	item := f.listItem(t, amount+100)
	offer := f.placeOffer(t, item.ID, amount)
	escrow, err := f.m.AcceptOffer(context.Background(), seller, AcceptOfferInput{OfferID: offer.ID})
	if err != nil {
		t.Fatalf("accept offer: %v", err)
	}
	return item, escrow
}

func TestConfirmDelivery(t *testing.T) {
	ctx := context.Background()

	t.Run("releases funds to the seller and sells the item", func(t *testing.T) {
		f := newFixture(t)
		item, escrow := acceptedEscrow(t, f, 400)

		completed, err := f.m.ConfirmDelivery(ctx, buyer, escrow.ID)
		if err != nil {
			t.Fatalf("confirm delivery: %v", err)
		}
		if completed.Status != domain.EscrowStatusCompleted || completed.CompletedAt == nil {
			t.Errorf("escrow = %+v, want completed with timestamp", completed)
		}

		if bal := f.balance(t, seller); bal != 400 {
			t.Errorf("seller balance = %d, want 400", bal)
		}
		if bal := f.balance(t, buyer); bal != 0 {
			t.Errorf("buyer balance = %d, want 0", bal)
		}
		if _, err := f.ledger.GetHold(ctx, domain.HoldKindEscrow, escrow.ID); err != domain.ErrNotFound {
			t.Errorf("escrow hold should be gone, err = %v", err)
		}

		got, err := f.m.GetItem(ctx, item.ID)
		if err != nil {
			t.Fatalf("get item: %v", err)
		}
		if got.Status != domain.ItemStatusSold {
			t.Errorf("item status = %s, want sold", got.Status)
		}
	})

	t.Run("only the buyer may confirm", func(t *testing.T) {
		f := newFixture(t)
		_, escrow := acceptedEscrow(t, f, 400)

		_, err := f.m.ConfirmDelivery(ctx, seller, escrow.ID)
		wantFault(t, err, domain.CodeNotBuyer)

		// The failed confirm moved nothing.
		if bal := f.balance(t, seller); bal != 0 {
			t.Errorf("seller balance = %d, want 0", bal)
		}
	})

	t.Run("confirm is not repeatable", func(t *testing.T) {
		f := newFixture(t)
		_, escrow := acceptedEscrow(t, f, 400)

		if _, err := f.m.ConfirmDelivery(ctx, buyer, escrow.ID); err != nil {
			t.Fatalf("first confirm: %v", err)
		}
		_, err := f.m.ConfirmDelivery(ctx, buyer, escrow.ID)
		wantFault(t, err, domain.CodeEscrowNotActive)

		// Funds released exactly once.
		if bal := f.balance(t, seller); bal != 400 {
			t.Errorf("seller balance = %d, want 400", bal)
		}
	})
}

func TestDisputeAndRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("buyer disputes, seller refunds", func(t *testing.T) {
		f := newFixture(t)
		item, escrow := acceptedEscrow(t, f, 400)

		disputed, err := f.m.DisputeEscrow(ctx, buyer, escrow.ID)
		if err != nil {
			t.Fatalf("dispute: %v", err)
		}
		if disputed.Status != domain.EscrowStatusDisputed {
			t.Errorf("status = %s, want disputed", disputed.Status)
		}
		// Disputing moves no funds.
		if bal := f.balance(t, buyer); bal != 0 {
			t.Errorf("buyer balance = %d, want 0 while disputed", bal)
		}

		refunded, err := f.m.RefundEscrow(ctx, seller, escrow.ID)
		if err != nil {
			t.Fatalf("refund: %v", err)
		}
		if refunded.Status != domain.EscrowStatusRefunded || refunded.CompletedAt == nil {
			t.Errorf("escrow = %+v, want refunded with timestamp", refunded)
		}
		if bal := f.balance(t, buyer); bal != 400 {
			t.Errorf("buyer balance = %d, want 400 after refund", bal)
		}
		if bal := f.balance(t, seller); bal != 0 {
			t.Errorf("seller balance = %d, want 0 after refund", bal)
		}

		// The item never sold and can be negotiated again.
		got, err := f.m.GetItem(ctx, item.ID)
		if err != nil {
			t.Fatalf("get item: %v", err)
		}
		if got.Status != domain.ItemStatusActive {
			t.Errorf("item status = %s, want active after refund", got.Status)
		}
	})

	t.Run("only the buyer may dispute", func(t *testing.T) {
		f := newFixture(t)
		_, escrow := acceptedEscrow(t, f, 400)

		_, err := f.m.DisputeEscrow(ctx, seller, escrow.ID)
		wantFault(t, err, domain.CodeNotBuyer)
	})

	t.Run("refund requires a dispute", func(t *testing.T) {
		f := newFixture(t)
		_, escrow := acceptedEscrow(t, f, 400)

		_, err := f.m.RefundEscrow(ctx, seller, escrow.ID)
		wantFault(t, err, domain.CodeEscrowNotDisputed)
	})

	t.Run("only the seller may refund", func(t *testing.T) {
		f := newFixture(t)
		_, escrow := acceptedEscrow(t, f, 400)
		if _, err := f.m.DisputeEscrow(ctx, buyer, escrow.ID); err != nil {
			t.Fatalf("dispute: %v", err)
		}

		_, err := f.m.RefundEscrow(ctx, buyer, escrow.ID)
		wantFault(t, err, domain.CodeNotSeller)
	})

	t.Run("disputed escrow cannot be confirmed", func(t *testing.T) {
		f := newFixture(t)
		_, escrow := acceptedEscrow(t, f, 400)
		if _, err := f.m.DisputeEscrow(ctx, buyer, escrow.ID); err != nil {
			t.Fatalf("dispute: %v", err)
		}

		_, err := f.m.ConfirmDelivery(ctx, buyer, escrow.ID)
		wantFault(t, err, domain.CodeEscrowNotActive)
	})

	t.Run("item sells again after a refund", func(t *testing.T) {
		f := newFixture(t)
		item, escrow := acceptedEscrow(t, f, 400)
		if _, err := f.m.DisputeEscrow(ctx, buyer, escrow.ID); err != nil {
			t.Fatalf("dispute: %v", err)
		}
		if _, err := f.m.RefundEscrow(ctx, seller, escrow.ID); err != nil {
			t.Fatalf("refund: %v", err)
		}

		// A fresh buyer negotiates the same item to completion.
		f.deposit(t, other, 350)
		offer, err := f.m.CreateOffer(ctx, other, CreateOfferInput{
			ItemID: item.ID, Amount: 350, Payment: 350, ExpiresInHours: 24,
		})
		if err != nil {
			t.Fatalf("second buyer offer: %v", err)
		}
		second, err := f.m.AcceptOffer(ctx, seller, AcceptOfferInput{OfferID: offer.ID})
		if err != nil {
			t.Fatalf("accept second offer: %v", err)
		}
		if _, err := f.m.ConfirmDelivery(ctx, other, second.ID); err != nil {
			t.Fatalf("confirm second escrow: %v", err)
		}
		if bal := f.balance(t, seller); bal != 350 {
			t.Errorf("seller balance = %d, want 350", bal)
		}
	})
}

func TestSettlementScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Full negotiation: list, offer, seller counter, buyer accepts with
	// top-up, delivery confirms.
	item := f.listItem(t, 500)
	offer := f.placeOffer(t, item.ID, 300)

	if _, err := f.m.CounterOffer(ctx, seller, CounterOfferInput{
		OfferID: offer.ID, NewAmount: 400,
	}); err != nil {
		t.Fatalf("seller counter: %v", err)
	}

	f.deposit(t, buyer, 100)
	escrow, err := f.m.AcceptOffer(ctx, buyer, AcceptOfferInput{OfferID: offer.ID, Payment: 100})
	if err != nil {
		t.Fatalf("buyer accept: %v", err)
	}
	if _, err := f.m.ConfirmDelivery(ctx, buyer, escrow.ID); err != nil {
		t.Fatalf("confirm delivery: %v", err)
	}

	if bal := f.balance(t, seller); bal != 400 {
		t.Errorf("seller balance = %d, want 400", bal)
	}
	if bal := f.balance(t, buyer); bal != 0 {
		t.Errorf("buyer balance = %d, want 0", bal)
	}

	stats, err := f.m.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for counter, want := range map[string]uint64{
		domain.CounterItemsCreated:   1,
		domain.CounterOffersCreated:  1,
		domain.CounterEscrowsCreated: 1,
		domain.CounterTradesSettled:  1,
		"items_total":                1,
	} {
		if stats[counter] != want {
			t.Errorf("stats[%s] = %d, want %d", counter, stats[counter], want)
		}
	}

	// The event log recorded the whole negotiation, newest first.
	events, err := f.m.Events(ctx, domain.ListOpts{})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	var types []domain.EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	want := []domain.EventType{
		domain.EventItemSold,
		domain.EventItemMarkedAsSold,
		domain.EventOfferAccepted,
		domain.EventOfferCountered,
		domain.EventOfferCreated,
		domain.EventItemCreated,
	}
	if len(types) != len(want) {
		t.Fatalf("got %d events %v, want %d", len(types), types, len(want))
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, types[i], want[i])
		}
	}
}
