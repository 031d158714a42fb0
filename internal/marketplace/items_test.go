package marketplace

import (
	"context"
	"testing"

	"github.com/rijulg06/thriftchain/internal/capability"
	"github.com/rijulg06/thriftchain/internal/domain"
)

func TestCreateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("lists an active item", func(t *testing.T) {
		f := newFixture(t)

		item := f.listItem(t, 500)
		if item.Status != domain.ItemStatusActive {
			t.Errorf("status = %s, want %s", item.Status, domain.ItemStatusActive)
		}
		if item.Seller != seller {
			t.Errorf("seller = %s, want %s", item.Seller, seller)
		}

		got, err := f.m.GetItem(ctx, item.ID)
		if err != nil {
			t.Fatalf("get item: %v", err)
		}
		if got.Price != 500 {
			t.Errorf("price = %d, want 500", got.Price)
		}
		if typ := lastEventType(t, f); typ != domain.EventItemCreated {
			t.Errorf("last event = %s, want %s", typ, domain.EventItemCreated)
		}
	})

	t.Run("lists with a token redeemed from the operator secret", func(t *testing.T) {
		// The API boundary never calls Issue; it redeems the bearer
		// secret on a freshly wired issuer.
		f := newFixture(t)
		token := f.issuer.Redeem("test-listing-secret")
		if token == nil {
			t.Fatal("operator secret should redeem a token on a fresh issuer")
		}

		item, err := f.m.CreateItem(ctx, seller, token, CreateItemInput{
			Title: "wool overcoat", Description: "charcoal, size L", Price: 900,
		})
		if err != nil {
			t.Fatalf("create item with redeemed token: %v", err)
		}
		if item.Status != domain.ItemStatusActive {
			t.Errorf("status = %s, want %s", item.Status, domain.ItemStatusActive)
		}
	})

	t.Run("rejects missing capability", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.m.CreateItem(ctx, seller, nil, CreateItemInput{
			Title: "x", Description: "y", Price: 100,
		})
		wantFault(t, err, domain.CodeInvalidCapability)
	})

	t.Run("rejects foreign capability", func(t *testing.T) {
		f := newFixture(t)
		foreign := capability.NewIssuer("test-listing-secret").Issue()
		_, err := f.m.CreateItem(ctx, seller, foreign, CreateItemInput{
			Title: "x", Description: "y", Price: 100,
		})
		wantFault(t, err, domain.CodeInvalidCapability)
	})

	t.Run("rejects zero price", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.m.CreateItem(ctx, seller, f.issuer.Issue(), CreateItemInput{
			Title: "x", Description: "y", Price: 0,
		})
		wantFault(t, err, domain.CodePriceNotPositive)
	})

	t.Run("rejects blank title and description", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.m.CreateItem(ctx, seller, f.issuer.Issue(), CreateItemInput{
			Title: "   ", Description: "y", Price: 100,
		})
		wantFault(t, err, domain.CodeEmptyTitle)

		_, err = f.m.CreateItem(ctx, seller, f.issuer.Issue(), CreateItemInput{
			Title: "x", Description: "", Price: 100,
		})
		wantFault(t, err, domain.CodeEmptyDescription)
	})
}

func TestUpdateItemPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("seller updates active listing", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)

		updated, err := f.m.UpdateItemPrice(ctx, seller, item.ID, 450)
		if err != nil {
			t.Fatalf("update price: %v", err)
		}
		if updated.Price != 450 {
			t.Errorf("price = %d, want 450", updated.Price)
		}
		if typ := lastEventType(t, f); typ != domain.EventItemPriceUpdated {
			t.Errorf("last event = %s, want %s", typ, domain.EventItemPriceUpdated)
		}
	})

	t.Run("non-seller rejected", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		_, err := f.m.UpdateItemPrice(ctx, buyer, item.ID, 450)
		wantFault(t, err, domain.CodeNotSeller)
	})

	t.Run("zero price rejected", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		_, err := f.m.UpdateItemPrice(ctx, seller, item.ID, 0)
		wantFault(t, err, domain.CodePriceNotPositive)
	})

	t.Run("cancelled listing rejected", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		if _, err := f.m.CancelItem(ctx, seller, item.ID); err != nil {
			t.Fatalf("cancel item: %v", err)
		}
		_, err := f.m.UpdateItemPrice(ctx, seller, item.ID, 450)
		wantFault(t, err, domain.CodeItemNotActive)
	})

	t.Run("unknown item", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.m.UpdateItemPrice(ctx, seller, "missing", 450)
		if err != domain.ErrNotFound {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestCancelItem(t *testing.T) {
	ctx := context.Background()

	t.Run("seller cancels active listing", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)

		cancelled, err := f.m.CancelItem(ctx, seller, item.ID)
		if err != nil {
			t.Fatalf("cancel item: %v", err)
		}
		if cancelled.Status != domain.ItemStatusCancelled {
			t.Errorf("status = %s, want %s", cancelled.Status, domain.ItemStatusCancelled)
		}
	})

	t.Run("cancel is not repeatable", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		if _, err := f.m.CancelItem(ctx, seller, item.ID); err != nil {
			t.Fatalf("first cancel: %v", err)
		}
		_, err := f.m.CancelItem(ctx, seller, item.ID)
		wantFault(t, err, domain.CodeItemNotActive)
	})

	t.Run("non-seller rejected", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		_, err := f.m.CancelItem(ctx, other, item.ID)
		wantFault(t, err, domain.CodeNotSeller)
	})

	t.Run("pending offer funds stay recoverable", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, 500)
		offer := f.placeOffer(t, item.ID, 400)

		if _, err := f.m.CancelItem(ctx, seller, item.ID); err != nil {
			t.Fatalf("cancel item: %v", err)
		}

		if _, err := f.m.CancelOffer(ctx, buyer, offer.ID); err != nil {
			t.Fatalf("cancel offer after item cancel: %v", err)
		}
		if bal := f.balance(t, buyer); bal != 400 {
			t.Errorf("buyer balance = %d, want 400 after refund", bal)
		}
	})
}
