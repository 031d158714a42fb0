package marketplace

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rijulg06/thriftchain/internal/capability"
	"github.com/rijulg06/thriftchain/internal/domain"
	"github.com/rijulg06/thriftchain/internal/store/memory"
)

func TestCreateOffer(t *testing.T) {
	ctx := context.Background()

	t.Run("locks the payment under a hold", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)

		offer := f.placeOffer(t, item.ID, 400)
		if offer.Status != domain.OfferStatusPending {
			t.Errorf("status = %s, want %s", offer.Status, domain.OfferStatusPending)
		}
		if offer.Seller != seller {
			t.Errorf("seller = %s, want %s", offer.Seller, seller)
		}

		// The full payment moved out of the spendable balance.
		if bal := f.balance(t, buyer); bal != 0 {
			t.Errorf("buyer balance = %d, want 0", bal)
		}
		hold, err := f.ledger.GetHold(ctx, domain.HoldKindOffer, offer.ID)
		if err != nil {
			t.Fatalf("get hold: %v", err)
		}
		if hold.Amount != 400 || hold.Owner != buyer {
			t.Errorf("hold = %+v, want amount 400 owned by buyer", hold)
		}
	})

	t.Run("payment must equal amount", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		f.deposit(t, buyer, 1000)

		_, err := f.m.CreateOffer(ctx, buyer, CreateOfferInput{
			ItemID: item.ID, Amount: 400, Payment: 399, ExpiresInHours: 24,
		})
		wantFault(t, err, domain.CodePaymentMismatch)

		_, err = f.m.CreateOffer(ctx, buyer, CreateOfferInput{
			ItemID: item.ID, Amount: 400, Payment: 401, ExpiresInHours: 24,
		})
		wantFault(t, err, domain.CodePaymentMismatch)

		// Nothing moved.
		if bal := f.balance(t, buyer); bal != 1000 {
			t.Errorf("buyer balance = %d, want 1000", bal)
		}
	})

	t.Run("expiry bounds", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		f.deposit(t, buyer, 1000)

		for _, hours := range []int{0, domain.MaxOfferExpiryHours + 1, -5} {
			_, err := f.m.CreateOffer(ctx, buyer, CreateOfferInput{
				ItemID: item.ID, Amount: 400, Payment: 400, ExpiresInHours: hours,
			})
			wantFault(t, err, domain.CodeExpiryOutOfRange)
		}

		// Both bounds are inclusive.
		for _, hours := range []int{domain.MinOfferExpiryHours, domain.MaxOfferExpiryHours} {
			if _, err := f.m.CreateOffer(ctx, buyer, CreateOfferInput{
				ItemID: item.ID, Amount: 100, Payment: 100, ExpiresInHours: hours,
			}); err != nil {
				t.Errorf("expiry %dh should be accepted: %v", hours, err)
			}
		}
	})

	t.Run("seller cannot offer on own item", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		f.deposit(t, seller, 400)

		_, err := f.m.CreateOffer(ctx, seller, CreateOfferInput{
			ItemID: item.ID, Amount: 400, Payment: 400, ExpiresInHours: 24,
		})
		wantFault(t, err, domain.CodeBuyerIsSeller)
	})

	t.Run("insufficient funds abort cleanly", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		f.deposit(t, buyer, 100)

		_, err := f.m.CreateOffer(ctx, buyer, CreateOfferInput{
			ItemID: item.ID, Amount: 400, Payment: 400, ExpiresInHours: 24,
		})
		wantFault(t, err, domain.CodeInsufficientFunds)

		if bal := f.balance(t, buyer); bal != 100 {
			t.Errorf("buyer balance = %d, want 100", bal)
		}
		offers, err := f.m.ListOffersByItem(ctx, item.ID, domain.ListOpts{})
		if err != nil {
			t.Fatalf("list offers: %v", err)
		}
		if len(offers) != 0 {
			t.Errorf("got %d offers, want none after aborted create", len(offers))
		}
	})

	t.Run("inactive item rejected", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		if _, err := f.m.CancelItem(ctx, seller, item.ID); err != nil {
			t.Fatalf("cancel item: %v", err)
		}
		f.deposit(t, buyer, 400)

		_, err := f.m.CreateOffer(ctx, buyer, CreateOfferInput{
			ItemID: item.ID, Amount: 400, Payment: 400, ExpiresInHours: 24,
		})
		wantFault(t, err, domain.CodeItemNotActive)
	})
}

func TestCounterOffer(t *testing.T) {
	ctx := context.Background()

	t.Run("buyer raise tops up the hold", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 300)
		f.deposit(t, buyer, 100)

		countered, err := f.m.CounterOffer(ctx, buyer, CounterOfferInput{
			OfferID: offer.ID, NewAmount: 400, Payment: 100,
		})
		if err != nil {
			t.Fatalf("buyer counter: %v", err)
		}
		if countered.Amount != 400 || countered.CounteredBy != buyer {
			t.Errorf("counter = %+v, want amount 400 by buyer", countered)
		}

		hold, err := f.ledger.GetHold(ctx, domain.HoldKindOffer, offer.ID)
		if err != nil {
			t.Fatalf("get hold: %v", err)
		}
		if hold.Amount != 400 {
			t.Errorf("hold amount = %d, want 400", hold.Amount)
		}
		if bal := f.balance(t, buyer); bal != 0 {
			t.Errorf("buyer balance = %d, want 0", bal)
		}
	})

	t.Run("buyer raise with wrong payment rejected", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 300)
		f.deposit(t, buyer, 100)

		_, err := f.m.CounterOffer(ctx, buyer, CounterOfferInput{
			OfferID: offer.ID, NewAmount: 400, Payment: 50,
		})
		wantFault(t, err, domain.CodePaymentMismatch)
	})

	t.Run("buyer lower refunds the excess", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 400)

		if _, err := f.m.CounterOffer(ctx, buyer, CounterOfferInput{
			OfferID: offer.ID, NewAmount: 250,
		}); err != nil {
			t.Fatalf("buyer lower: %v", err)
		}

		hold, err := f.ledger.GetHold(ctx, domain.HoldKindOffer, offer.ID)
		if err != nil {
			t.Fatalf("get hold: %v", err)
		}
		if hold.Amount != 250 {
			t.Errorf("hold amount = %d, want 250", hold.Amount)
		}
		if bal := f.balance(t, buyer); bal != 150 {
			t.Errorf("buyer balance = %d, want 150 refunded", bal)
		}
	})

	t.Run("seller counter moves no funds", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 300)

		countered, err := f.m.CounterOffer(ctx, seller, CounterOfferInput{
			OfferID: offer.ID, NewAmount: 450,
		})
		if err != nil {
			t.Fatalf("seller counter: %v", err)
		}
		if countered.Status != domain.OfferStatusCountered || countered.CounteredBy != seller {
			t.Errorf("counter = %+v, want countered by seller", countered)
		}

		// Custody stays at the originally funded amount.
		hold, err := f.ledger.GetHold(ctx, domain.HoldKindOffer, offer.ID)
		if err != nil {
			t.Fatalf("get hold: %v", err)
		}
		if hold.Amount != 300 {
			t.Errorf("hold amount = %d, want 300", hold.Amount)
		}
	})

	t.Run("seller counter with payment rejected", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 300)

		_, err := f.m.CounterOffer(ctx, seller, CounterOfferInput{
			OfferID: offer.ID, NewAmount: 450, Payment: 150,
		})
		wantFault(t, err, domain.CodePaymentMismatch)
	})

	t.Run("outsider rejected", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 300)

		_, err := f.m.CounterOffer(ctx, other, CounterOfferInput{
			OfferID: offer.ID, NewAmount: 350,
		})
		wantFault(t, err, domain.CodeNotParticipant)
	})

	t.Run("expired offer rejected", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 300)

		f.clock.advance(24 * time.Hour)
		_, err := f.m.CounterOffer(ctx, seller, CounterOfferInput{
			OfferID: offer.ID, NewAmount: 350,
		})
		wantFault(t, err, domain.CodeOfferExpired)
	})
}

func TestAcceptOffer(t *testing.T) {
	ctx := context.Background()

	t.Run("seller accepts initial offer into escrow", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 400)

		escrow, err := f.m.AcceptOffer(ctx, seller, AcceptOfferInput{OfferID: offer.ID})
		if err != nil {
			t.Fatalf("accept offer: %v", err)
		}
		if escrow.Status != domain.EscrowStatusActive || escrow.Amount != 400 {
			t.Errorf("escrow = %+v, want active at 400", escrow)
		}
		if escrow.Buyer != buyer || escrow.Seller != seller {
			t.Errorf("escrow parties = %s/%s", escrow.Buyer, escrow.Seller)
		}

		// Custody re-keyed from the offer to the escrow.
		if _, err := f.ledger.GetHold(ctx, domain.HoldKindOffer, offer.ID); err != domain.ErrNotFound {
			t.Errorf("offer hold should be gone, err = %v", err)
		}
		hold, err := f.ledger.GetHold(ctx, domain.HoldKindEscrow, escrow.ID)
		if err != nil {
			t.Fatalf("get escrow hold: %v", err)
		}
		if hold.Amount != 400 {
			t.Errorf("escrow hold = %d, want 400", hold.Amount)
		}

		// The item stays purchasable until delivery confirms.
		got, err := f.m.GetItem(ctx, item.ID)
		if err != nil {
			t.Fatalf("get item: %v", err)
		}
		if got.Status != domain.ItemStatusActive {
			t.Errorf("item status = %s, want active during escrow", got.Status)
		}
	})

	t.Run("buyer cannot accept own initial offer", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 400)

		_, err := f.m.AcceptOffer(ctx, buyer, AcceptOfferInput{OfferID: offer.ID})
		wantFault(t, err, domain.CodeWrongAcceptor)
	})

	t.Run("double accept rejected", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 400)

		if _, err := f.m.AcceptOffer(ctx, seller, AcceptOfferInput{OfferID: offer.ID}); err != nil {
			t.Fatalf("first accept: %v", err)
		}
		_, err := f.m.AcceptOffer(ctx, seller, AcceptOfferInput{OfferID: offer.ID})
		wantFault(t, err, domain.CodeOfferNotOpen)
	})

	t.Run("second escrow on the same item blocked", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		first := f.placeOffer(t, item.ID, 400)

		// A second buyer also bids.
		f.deposit(t, other, 450)
		second, err := f.m.CreateOffer(ctx, other, CreateOfferInput{
			ItemID: item.ID, Amount: 450, Payment: 450, ExpiresInHours: 24,
		})
		if err != nil {
			t.Fatalf("second offer: %v", err)
		}

		if _, err := f.m.AcceptOffer(ctx, seller, AcceptOfferInput{OfferID: first.ID}); err != nil {
			t.Fatalf("accept first: %v", err)
		}
		_, err = f.m.AcceptOffer(ctx, seller, AcceptOfferInput{OfferID: second.ID})
		wantFault(t, err, domain.CodeItemInEscrow)
	})

	t.Run("buyer accepts seller counter with top-up", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 300)

		if _, err := f.m.CounterOffer(ctx, seller, CounterOfferInput{
			OfferID: offer.ID, NewAmount: 450,
		}); err != nil {
			t.Fatalf("seller counter: %v", err)
		}

		// Accepting without the difference fails before funds move.
		_, err := f.m.AcceptOffer(ctx, buyer, AcceptOfferInput{OfferID: offer.ID})
		wantFault(t, err, domain.CodePaymentMismatch)

		f.deposit(t, buyer, 150)
		escrow, err := f.m.AcceptOffer(ctx, buyer, AcceptOfferInput{OfferID: offer.ID, Payment: 150})
		if err != nil {
			t.Fatalf("accept counter: %v", err)
		}
		if escrow.Amount != 450 {
			t.Errorf("escrow amount = %d, want 450", escrow.Amount)
		}
		hold, err := f.ledger.GetHold(ctx, domain.HoldKindEscrow, escrow.ID)
		if err != nil {
			t.Fatalf("get escrow hold: %v", err)
		}
		if hold.Amount != 450 {
			t.Errorf("escrow hold = %d, want 450", hold.Amount)
		}
	})

	t.Run("seller cannot accept own counter", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 300)

		if _, err := f.m.CounterOffer(ctx, seller, CounterOfferInput{
			OfferID: offer.ID, NewAmount: 450,
		}); err != nil {
			t.Fatalf("seller counter: %v", err)
		}
		_, err := f.m.AcceptOffer(ctx, seller, AcceptOfferInput{OfferID: offer.ID})
		wantFault(t, err, domain.CodeWrongAcceptor)
	})

	t.Run("expired offer rejected", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 400)

		f.clock.advance(25 * time.Hour)
		_, err := f.m.AcceptOffer(ctx, seller, AcceptOfferInput{OfferID: offer.ID})
		wantFault(t, err, domain.CodeOfferExpired)
	})
}

func TestRejectAndCancelOffer(t *testing.T) {
	ctx := context.Background()

	t.Run("seller reject refunds the buyer", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 400)

		rejected, err := f.m.RejectOffer(ctx, seller, offer.ID)
		if err != nil {
			t.Fatalf("reject: %v", err)
		}
		if rejected.Status != domain.OfferStatusRejected || rejected.ResolvedAt == nil {
			t.Errorf("offer = %+v, want rejected with resolved_at", rejected)
		}
		if bal := f.balance(t, buyer); bal != 400 {
			t.Errorf("buyer balance = %d, want 400", bal)
		}
	})

	t.Run("only the seller may reject", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 400)

		_, err := f.m.RejectOffer(ctx, buyer, offer.ID)
		wantFault(t, err, domain.CodeNotSeller)
	})

	t.Run("reject after expiry rejected", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 400)

		f.clock.advance(24 * time.Hour)
		_, err := f.m.RejectOffer(ctx, seller, offer.ID)
		wantFault(t, err, domain.CodeOfferExpired)
	})

	t.Run("buyer cancel works even after expiry", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 400)

		f.clock.advance(48 * time.Hour)
		cancelled, err := f.m.CancelOffer(ctx, buyer, offer.ID)
		if err != nil {
			t.Fatalf("cancel expired offer: %v", err)
		}
		if cancelled.Status != domain.OfferStatusCancelled {
			t.Errorf("status = %s, want cancelled", cancelled.Status)
		}
		if bal := f.balance(t, buyer); bal != 400 {
			t.Errorf("buyer balance = %d, want 400", bal)
		}
	})

	t.Run("only the buyer may cancel", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 400)

		_, err := f.m.CancelOffer(ctx, seller, offer.ID)
		wantFault(t, err, domain.CodeNotBuyer)
	})

	t.Run("terminal offers stay terminal", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 400)

		if _, err := f.m.CancelOffer(ctx, buyer, offer.ID); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		for _, op := range []func() error{
			func() error { _, err := f.m.CancelOffer(ctx, buyer, offer.ID); return err },
			func() error { _, err := f.m.RejectOffer(ctx, seller, offer.ID); return err },
			func() error { _, err := f.m.AcceptOffer(ctx, seller, AcceptOfferInput{OfferID: offer.ID}); return err },
		} {
			wantFault(t, op(), domain.CodeOfferNotOpen)
		}
		// The refund happened exactly once.
		if bal := f.balance(t, buyer); bal != 400 {
			t.Errorf("buyer balance = %d, want 400", bal)
		}
	})
}

// wrappedEscrowStore reports not-found with the sentinel wrapped, the way
// driver-backed stores annotate their errors.
type wrappedEscrowStore struct {
	*memory.EscrowStore
}

func (w wrappedEscrowStore) OpenByItem(ctx context.Context, itemID string) (domain.Escrow, error) {
	escrow, err := w.EscrowStore.OpenByItem(ctx, itemID)
	if err != nil {
		return escrow, fmt.Errorf("escrows: open by item %s: %w", itemID, err)
	}
	return escrow, nil
}

func TestAcceptOfferWrappedNotFound(t *testing.T) {
	ctx := context.Background()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.NewWithClock(clock)
	issuer := capability.NewIssuer("test-listing-secret")

	m := New(Deps{
		Tx:       store,
		Items:    store.Items(),
		Offers:   store.Offers(),
		Escrows:  wrappedEscrowStore{EscrowStore: store.Escrows()},
		Ledger:   store.Ledger(),
		Events:   store.Events(),
		Counters: store.Counters(),
		Issuer:   issuer,
		Clock:    clock,
	})

	item, err := m.CreateItem(ctx, seller, issuer.Issue(), CreateItemInput{
		Title: "leather satchel", Description: "brown, brass buckles", Price: 300,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if err := m.Deposit(ctx, buyer, 300); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	offer, err := m.CreateOffer(ctx, buyer, CreateOfferInput{
		ItemID: item.ID, Amount: 300, Payment: 300, ExpiresInHours: 24,
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}

	// The open-escrow check must treat a wrapped not-found as "no open
	// escrow" and let the acceptance proceed.
	if _, err := m.AcceptOffer(ctx, seller, AcceptOfferInput{OfferID: offer.ID}); err != nil {
		t.Fatalf("accept offer: %v", err)
	}
}
