package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rijulg06/thriftchain/internal/domain"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func TestWithinTxRollback(t *testing.T) {
	ctx := context.Background()
	s := New()
	ledger := s.Ledger()

	if err := ledger.Deposit(ctx, "alice", 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		if err := ledger.PlaceHold(ctx, domain.HoldKindOffer, "o1", "alice", 60); err != nil {
			return err
		}
		if err := s.Items().Create(ctx, domain.Item{ID: "i1", Status: domain.ItemStatusActive}); err != nil {
			return err
		}
		return boom
	})
	if err != boom {
		t.Fatalf("err = %v, want boom", err)
	}

	// Every write inside the failed transaction rolled back.
	if bal, _ := ledger.Balance(ctx, "alice"); bal != 100 {
		t.Errorf("balance = %d, want 100", bal)
	}
	if _, err := ledger.GetHold(ctx, domain.HoldKindOffer, "o1"); err != domain.ErrNotFound {
		t.Errorf("hold err = %v, want ErrNotFound", err)
	}
	if _, err := s.Items().Get(ctx, "i1"); err != domain.ErrNotFound {
		t.Errorf("item err = %v, want ErrNotFound", err)
	}
}

func TestLedgerTimestampsFollowClock(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewWithClock(fixedClock{now: at})
	ledger := s.Ledger()

	if err := ledger.Deposit(ctx, "alice", 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := ledger.PlaceHold(ctx, domain.HoldKindOffer, "o1", "alice", 60); err != nil {
		t.Fatalf("place hold: %v", err)
	}

	if got := s.accounts["alice"].UpdatedAt; !got.Equal(at) {
		t.Errorf("account UpdatedAt = %s, want %s", got, at)
	}
	hold, err := ledger.GetHold(ctx, domain.HoldKindOffer, "o1")
	if err != nil {
		t.Fatalf("get hold: %v", err)
	}
	if !hold.CreatedAt.Equal(at) {
		t.Errorf("hold CreatedAt = %s, want %s", hold.CreatedAt, at)
	}
}

func TestLedgerHolds(t *testing.T) {
	ctx := context.Background()
	s := New()
	ledger := s.Ledger()

	if err := ledger.Deposit(ctx, "alice", 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	t.Run("insufficient balance", func(t *testing.T) {
		err := ledger.PlaceHold(ctx, domain.HoldKindOffer, "big", "alice", 500)
		if f, ok := domain.AsFault(err); !ok || f.Code != domain.CodeInsufficientFunds {
			t.Errorf("err = %v, want insufficient funds fault", err)
		}
	})

	t.Run("over-release rejected", func(t *testing.T) {
		if err := ledger.PlaceHold(ctx, domain.HoldKindOffer, "o1", "alice", 40); err != nil {
			t.Fatalf("place hold: %v", err)
		}
		err := ledger.ReduceHold(ctx, domain.HoldKindOffer, "o1", "alice", 50)
		if f, ok := domain.AsFault(err); !ok || f.Code != domain.CodeHoldMismatch {
			t.Errorf("err = %v, want hold mismatch fault", err)
		}
	})

	t.Run("move then release", func(t *testing.T) {
		if err := ledger.MoveHold(ctx, domain.HoldKindOffer, "o1", domain.HoldKindEscrow, "e1"); err != nil {
			t.Fatalf("move hold: %v", err)
		}
		amount, err := ledger.ReleaseHold(ctx, domain.HoldKindEscrow, "e1", "bob")
		if err != nil {
			t.Fatalf("release hold: %v", err)
		}
		if amount != 40 {
			t.Errorf("released = %d, want 40", amount)
		}
		if bal, _ := ledger.Balance(ctx, "bob"); bal != 40 {
			t.Errorf("bob balance = %d, want 40", bal)
		}
	})
}
