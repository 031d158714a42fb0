package memory

import (
	"context"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// Ledger implements domain.Ledger over the shared Store state.
type Ledger struct {
	root *Store
}

// Ledger returns the funds ledger view.
func (s *Store) Ledger() *Ledger {
	return &Ledger{root: s}
}

// Deposit credits an account, creating it if needed.
func (l *Ledger) Deposit(ctx context.Context, address string, amount uint64) error {
	defer l.root.lock(ctx)()

	acct := l.root.accounts[address]
	acct.Address = address
	acct.Balance += amount
	acct.UpdatedAt = l.root.clock.Now()
	l.root.accounts[address] = acct
	return nil
}

// Balance returns the spendable balance of an account.
func (l *Ledger) Balance(ctx context.Context, address string) (uint64, error) {
	defer l.root.lock(ctx)()
	return l.root.accounts[address].Balance, nil
}

// PlaceHold debits owner and locks amount under (kind, refID).
func (l *Ledger) PlaceHold(ctx context.Context, kind domain.HoldKind, refID, owner string, amount uint64) error {
	defer l.root.lock(ctx)()

	key := holdKey{kind: kind, refID: refID}
	if _, ok := l.root.holds[key]; ok {
		return domain.ErrAlreadyExists
	}
	if err := l.debit(owner, amount); err != nil {
		return err
	}
	l.root.holds[key] = domain.Hold{
		Kind:      kind,
		RefID:     refID,
		Owner:     owner,
		Amount:    amount,
		CreatedAt: l.root.clock.Now(),
	}
	return nil
}

// TopUpHold debits owner and adds amount to an existing hold.
func (l *Ledger) TopUpHold(ctx context.Context, kind domain.HoldKind, refID, owner string, amount uint64) error {
	defer l.root.lock(ctx)()

	key := holdKey{kind: kind, refID: refID}
	hold, ok := l.root.holds[key]
	if !ok {
		return domain.ErrNotFound
	}
	if err := l.debit(owner, amount); err != nil {
		return err
	}
	hold.Amount += amount
	l.root.holds[key] = hold
	return nil
}

// ReduceHold releases amount from a hold back to the named recipient.
func (l *Ledger) ReduceHold(ctx context.Context, kind domain.HoldKind, refID, to string, amount uint64) error {
	defer l.root.lock(ctx)()

	key := holdKey{kind: kind, refID: refID}
	hold, ok := l.root.holds[key]
	if !ok {
		return domain.ErrNotFound
	}
	if amount > hold.Amount {
		return domain.Statef(domain.CodeHoldMismatch,
			"hold %s/%s custodies %d, cannot release %d", kind, refID, hold.Amount, amount)
	}
	hold.Amount -= amount
	l.root.holds[key] = hold
	l.credit(to, amount)
	return nil
}

// MoveHold re-keys custody from one reference to another.
func (l *Ledger) MoveHold(ctx context.Context, fromKind domain.HoldKind, fromRef string, toKind domain.HoldKind, toRef string) error {
	defer l.root.lock(ctx)()

	fromKey := holdKey{kind: fromKind, refID: fromRef}
	hold, ok := l.root.holds[fromKey]
	if !ok {
		return domain.ErrNotFound
	}
	toKey := holdKey{kind: toKind, refID: toRef}
	if _, ok := l.root.holds[toKey]; ok {
		return domain.ErrAlreadyExists
	}

	delete(l.root.holds, fromKey)
	hold.Kind = toKind
	hold.RefID = toRef
	l.root.holds[toKey] = hold
	return nil
}

// ReleaseHold releases the full hold to the named recipient and removes it.
func (l *Ledger) ReleaseHold(ctx context.Context, kind domain.HoldKind, refID, to string) (uint64, error) {
	defer l.root.lock(ctx)()

	key := holdKey{kind: kind, refID: refID}
	hold, ok := l.root.holds[key]
	if !ok {
		return 0, domain.ErrNotFound
	}
	delete(l.root.holds, key)
	l.credit(to, hold.Amount)
	return hold.Amount, nil
}

// GetHold returns the hold locked under (kind, refID).
func (l *Ledger) GetHold(ctx context.Context, kind domain.HoldKind, refID string) (domain.Hold, error) {
	defer l.root.lock(ctx)()

	hold, ok := l.root.holds[holdKey{kind: kind, refID: refID}]
	if !ok {
		return domain.Hold{}, domain.ErrNotFound
	}
	return hold, nil
}

// debit and credit assume the store mutex is held.

func (l *Ledger) debit(address string, amount uint64) error {
	acct := l.root.accounts[address]
	if acct.Balance < amount {
		return domain.Validationf(domain.CodeInsufficientFunds,
			"account %s holds %d, needs %d", address, acct.Balance, amount)
	}
	acct.Address = address
	acct.Balance -= amount
	acct.UpdatedAt = l.root.clock.Now()
	l.root.accounts[address] = acct
	return nil
}

func (l *Ledger) credit(address string, amount uint64) {
	acct := l.root.accounts[address]
	acct.Address = address
	acct.Balance += amount
	acct.UpdatedAt = l.root.clock.Now()
	l.root.accounts[address] = acct
}
