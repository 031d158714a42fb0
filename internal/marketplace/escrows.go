package marketplace

import (
	"context"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// ConfirmDelivery is the buyer's acknowledgement that the goods arrived.
// It releases the custodied funds to the seller, completes the escrow, and
// finalizes the item as sold. This is the only path that marks an item
// sold.
func (m *Marketplace) ConfirmDelivery(ctx context.Context, caller, escrowID string) (domain.Escrow, error) {
	var escrow domain.Escrow
	var events []domain.Event

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		escrow, err = m.escrows.GetForUpdate(ctx, escrowID)
		if err != nil {
			return err
		}
		if escrow.Status != domain.EscrowStatusActive {
			return domain.Statef(domain.CodeEscrowNotActive, "escrow %s is %s", escrowID, escrow.Status)
		}
		if caller != escrow.Buyer {
			return domain.Authorizationf(domain.CodeNotBuyer, "only the buyer may confirm delivery of escrow %s", escrowID)
		}

		item, err := m.items.GetForUpdate(ctx, escrow.ItemID)
		if err != nil {
			return err
		}
		if !item.Purchasable() {
			return domain.Statef(domain.CodeItemNotActive, "item %s is %s", escrow.ItemID, item.Status)
		}

		if _, err := m.ledger.ReleaseHold(ctx, domain.HoldKindEscrow, escrow.ID, escrow.Seller); err != nil {
			return err
		}

		now := m.clock.Now()
		escrow.Status = domain.EscrowStatusCompleted
		escrow.CompletedAt = &now
		if err := m.escrows.Update(ctx, escrow); err != nil {
			return err
		}

		soldEv, err := m.markSold(ctx, item, caller)
		if err != nil {
			return err
		}
		if err := m.counters.Incr(ctx, domain.CounterTradesSettled); err != nil {
			return err
		}

		ev := m.newEvent(domain.EventItemSold)
		ev.ItemID = escrow.ItemID
		ev.EscrowID = escrow.ID
		ev.Actor = caller
		ev.Amount = escrow.Amount
		if err := m.eventLog.Append(ctx, ev); err != nil {
			return err
		}

		events = []domain.Event{soldEv, ev}
		return nil
	})
	if err != nil {
		return domain.Escrow{}, err
	}

	m.invalidateItem(ctx, escrow.ItemID)
	m.emit(ctx, events...)
	return escrow, nil
}

// DisputeEscrow flags an active escrow. Buyer only; no funds move. From
// disputed, only a seller refund resolves the escrow.
func (m *Marketplace) DisputeEscrow(ctx context.Context, caller, escrowID string) (domain.Escrow, error) {
	var escrow domain.Escrow
	var ev domain.Event

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		escrow, err = m.escrows.GetForUpdate(ctx, escrowID)
		if err != nil {
			return err
		}
		if escrow.Status != domain.EscrowStatusActive {
			return domain.Statef(domain.CodeEscrowNotActive, "escrow %s is %s", escrowID, escrow.Status)
		}
		if caller != escrow.Buyer {
			return domain.Authorizationf(domain.CodeNotBuyer, "only the buyer may dispute escrow %s", escrowID)
		}

		escrow.Status = domain.EscrowStatusDisputed
		if err := m.escrows.Update(ctx, escrow); err != nil {
			return err
		}
		if err := m.counters.Incr(ctx, domain.CounterDisputesOpened); err != nil {
			return err
		}

		ev = m.newEvent(domain.EventEscrowDisputed)
		ev.ItemID = escrow.ItemID
		ev.EscrowID = escrow.ID
		ev.Actor = caller
		ev.Amount = escrow.Amount
		return m.eventLog.Append(ctx, ev)
	})
	if err != nil {
		return domain.Escrow{}, err
	}

	m.emit(ctx, ev)
	return escrow, nil
}

// RefundEscrow resolves a disputed escrow by returning the custodied funds
// to the buyer. Seller only: the party holding the goods carries the burden
// of resolving the dispute, and money moves back only on their explicit
// action. The item stays in its current status and can sell again.
func (m *Marketplace) RefundEscrow(ctx context.Context, caller, escrowID string) (domain.Escrow, error) {
	var escrow domain.Escrow
	var ev domain.Event

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		escrow, err = m.escrows.GetForUpdate(ctx, escrowID)
		if err != nil {
			return err
		}
		if escrow.Status != domain.EscrowStatusDisputed {
			return domain.Statef(domain.CodeEscrowNotDisputed, "escrow %s is %s, refunds require a dispute", escrowID, escrow.Status)
		}
		if caller != escrow.Seller {
			return domain.Authorizationf(domain.CodeNotSeller, "only the seller may refund escrow %s", escrowID)
		}

		if _, err := m.ledger.ReleaseHold(ctx, domain.HoldKindEscrow, escrow.ID, escrow.Buyer); err != nil {
			return err
		}

		now := m.clock.Now()
		escrow.Status = domain.EscrowStatusRefunded
		escrow.CompletedAt = &now
		if err := m.escrows.Update(ctx, escrow); err != nil {
			return err
		}

		ev = m.newEvent(domain.EventEscrowRefunded)
		ev.ItemID = escrow.ItemID
		ev.EscrowID = escrow.ID
		ev.Actor = caller
		ev.Amount = escrow.Amount
		return m.eventLog.Append(ctx, ev)
	})
	if err != nil {
		return domain.Escrow{}, err
	}

	m.emit(ctx, ev)
	return escrow, nil
}
