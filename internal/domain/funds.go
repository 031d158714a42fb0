package domain

import (
	"context"
	"time"
)

// HoldKind distinguishes an offer's pre-escrow hold from escrow custody.
type HoldKind string

const (
	HoldKindOffer  HoldKind = "offer"
	HoldKindEscrow HoldKind = "escrow"
)

// Account is a fungible balance owned by an address.
type Account struct {
	Address   string
	Balance   uint64
	UpdatedAt time.Time
}

// Hold is an amount debited from its owner and locked to a specific offer
// or escrow. Held funds are spendable by neither party until a state
// transition releases them.
type Hold struct {
	Kind      HoldKind
	RefID     string
	Owner     string // the buyer whose funds are locked
	Amount    uint64
	CreatedAt time.Time
}

// Ledger is the explicit funds abstraction: per-address accounts plus named
// holds. Every method is all-or-nothing within the surrounding transaction;
// the core never observes a transfer half-applied.
//
// Insufficient balances and missing holds surface as *Fault values so the
// marketplace can report them as abort codes.
type Ledger interface {
	// Deposit credits an account, creating it if needed.
	Deposit(ctx context.Context, address string, amount uint64) error

	// Balance returns the spendable (non-held) balance of an account.
	// Unknown addresses have balance zero.
	Balance(ctx context.Context, address string) (uint64, error)

	// PlaceHold debits owner and locks amount under (kind, refID).
	PlaceHold(ctx context.Context, kind HoldKind, refID, owner string, amount uint64) error

	// TopUpHold debits owner and adds amount to an existing hold.
	TopUpHold(ctx context.Context, kind HoldKind, refID, owner string, amount uint64) error

	// ReduceHold releases amount from a hold back to the named recipient.
	ReduceHold(ctx context.Context, kind HoldKind, refID, to string, amount uint64) error

	// MoveHold re-keys custody from one reference to another without
	// touching any balance (offer hold -> escrow custody).
	MoveHold(ctx context.Context, fromKind HoldKind, fromRef string, toKind HoldKind, toRef string) error

	// ReleaseHold releases the full hold to the named recipient and
	// removes it, returning the released amount.
	ReleaseHold(ctx context.Context, kind HoldKind, refID, to string) (uint64, error)

	// GetHold returns the hold locked under (kind, refID), or ErrNotFound.
	GetHold(ctx context.Context, kind HoldKind, refID string) (Hold, error)
}
