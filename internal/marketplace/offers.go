package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// CreateOfferInput carries a buyer's bid. Payment is the value split off
// the buyer's account for custody; it must equal Amount exactly.
type CreateOfferInput struct {
	ItemID         string
	Amount         uint64
	Payment        uint64
	Message        string
	ExpiresInHours int
}

// CreateOffer places a funded offer against an active item. The declared
// payment is locked under the offer's hold; any under- or over-payment
// aborts before funds move.
func (m *Marketplace) CreateOffer(ctx context.Context, buyer string, in CreateOfferInput) (domain.Offer, error) {
	if buyer == "" {
		return domain.Offer{}, domain.Validationf(domain.CodeInvalidAddress, "buyer address required")
	}
	if in.Amount == 0 {
		return domain.Offer{}, domain.Validationf(domain.CodeAmountNotPositive, "offer amount must be greater than zero")
	}
	if in.ExpiresInHours < domain.MinOfferExpiryHours || in.ExpiresInHours > domain.MaxOfferExpiryHours {
		return domain.Offer{}, domain.Validationf(domain.CodeExpiryOutOfRange,
			"expiry must be between %d and %d hours, got %d", domain.MinOfferExpiryHours, domain.MaxOfferExpiryHours, in.ExpiresInHours)
	}
	if in.Payment != in.Amount {
		return domain.Offer{}, domain.Validationf(domain.CodePaymentMismatch,
			"payment of %d does not match offer amount %d", in.Payment, in.Amount)
	}

	now := m.clock.Now()
	offer := domain.Offer{
		ID:        uuid.New().String(),
		ItemID:    in.ItemID,
		Buyer:     buyer,
		Amount:    in.Amount,
		Message:   in.Message,
		Status:    domain.OfferStatusPending,
		ExpiresAt: now.Add(time.Duration(in.ExpiresInHours) * time.Hour),
		CreatedAt: now,
	}

	var ev domain.Event

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := m.items.Get(ctx, in.ItemID)
		if err != nil {
			return err
		}
		if !item.Purchasable() {
			return domain.Statef(domain.CodeItemNotActive, "item %s is %s", in.ItemID, item.Status)
		}
		if buyer == item.Seller {
			return domain.Authorizationf(domain.CodeBuyerIsSeller, "seller cannot offer on own item")
		}
		offer.Seller = item.Seller

		if err := m.ledger.PlaceHold(ctx, domain.HoldKindOffer, offer.ID, buyer, in.Payment); err != nil {
			return err
		}
		if err := m.offers.Create(ctx, offer); err != nil {
			return err
		}
		if err := m.counters.Incr(ctx, domain.CounterOffersCreated); err != nil {
			return err
		}

		ev = m.newEvent(domain.EventOfferCreated)
		ev.ItemID = offer.ItemID
		ev.OfferID = offer.ID
		ev.Actor = buyer
		ev.Amount = offer.Amount
		return m.eventLog.Append(ctx, ev)
	})
	if err != nil {
		return domain.Offer{}, err
	}

	m.emit(ctx, ev)
	return offer, nil
}

// CounterOfferInput revises an open offer's terms. Payment funds the hold
// top-up when the buyer raises their own offer; it must be zero otherwise.
type CounterOfferInput struct {
	OfferID   string
	NewAmount uint64
	Message   string
	Payment   uint64
}

// CounterOffer revises an open, unexpired offer. Either party may counter.
// A buyer counter reconciles the custodied payment immediately: raising the
// amount requires payment of exactly the difference, lowering it refunds
// the excess. A seller counter only proposes new terms; custody is
// reconciled when the buyer accepts.
func (m *Marketplace) CounterOffer(ctx context.Context, caller string, in CounterOfferInput) (domain.Offer, error) {
	if in.NewAmount == 0 {
		return domain.Offer{}, domain.Validationf(domain.CodeAmountNotPositive, "counter amount must be greater than zero")
	}

	var offer domain.Offer
	var ev domain.Event

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		offer, err = m.offers.GetForUpdate(ctx, in.OfferID)
		if err != nil {
			return err
		}
		if !offer.Open() {
			return domain.Statef(domain.CodeOfferNotOpen, "offer %s is %s", in.OfferID, offer.Status)
		}
		if offer.Expired(m.clock.Now()) {
			return domain.Temporalf(domain.CodeOfferExpired, "offer %s expired at %s", in.OfferID, offer.ExpiresAt.Format(time.RFC3339))
		}
		if caller != offer.Buyer && caller != offer.Seller {
			return domain.Authorizationf(domain.CodeNotParticipant, "caller %s is not a party to offer %s", caller, in.OfferID)
		}

		item, err := m.items.Get(ctx, offer.ItemID)
		if err != nil {
			return err
		}
		if !item.Purchasable() {
			return domain.Statef(domain.CodeItemNotActive, "item %s is %s", offer.ItemID, item.Status)
		}

		if caller == offer.Buyer {
			if err := m.reconcileHold(ctx, offer, in.NewAmount, in.Payment); err != nil {
				return err
			}
		} else if in.Payment != 0 {
			return domain.Validationf(domain.CodePaymentMismatch, "seller counters carry no payment, got %d", in.Payment)
		}

		offer.Amount = in.NewAmount
		offer.Message = in.Message
		offer.Status = domain.OfferStatusCountered
		offer.IsCounter = true
		offer.CounteredBy = caller
		if err := m.offers.Update(ctx, offer); err != nil {
			return err
		}

		ev = m.newEvent(domain.EventOfferCountered)
		ev.ItemID = offer.ItemID
		ev.OfferID = offer.ID
		ev.Actor = caller
		ev.Amount = offer.Amount
		return m.eventLog.Append(ctx, ev)
	})
	if err != nil {
		return domain.Offer{}, err
	}

	m.emit(ctx, ev)
	return offer, nil
}

// AcceptOfferInput accepts an open offer. Payment covers the difference
// when the buyer accepts a seller counter that raised the amount above the
// custodied hold; it must be zero in every other case.
type AcceptOfferInput struct {
	OfferID string
	Payment uint64
}

// AcceptOffer closes the negotiation and opens custody: the seller accepts
// an initial offer, the non-countering side accepts a counter. The offer's
// hold is reconciled to the agreed amount and moved into a new escrow; the
// item stays active until delivery is confirmed, but a second acceptance is
// blocked while an unresolved escrow exists.
func (m *Marketplace) AcceptOffer(ctx context.Context, caller string, in AcceptOfferInput) (domain.Escrow, error) {
	var escrow domain.Escrow
	var ev domain.Event

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		offer, err := m.offers.GetForUpdate(ctx, in.OfferID)
		if err != nil {
			return err
		}
		if !offer.Open() {
			return domain.Statef(domain.CodeOfferNotOpen, "offer %s is %s", in.OfferID, offer.Status)
		}
		now := m.clock.Now()
		if offer.Expired(now) {
			return domain.Temporalf(domain.CodeOfferExpired, "offer %s expired at %s", in.OfferID, offer.ExpiresAt.Format(time.RFC3339))
		}
		if err := authorizeAccept(offer, caller); err != nil {
			return err
		}

		item, err := m.items.GetForUpdate(ctx, offer.ItemID)
		if err != nil {
			return err
		}
		if !item.Purchasable() {
			return domain.Statef(domain.CodeItemNotActive, "item %s is %s", offer.ItemID, item.Status)
		}
		if open, err := m.escrows.OpenByItem(ctx, offer.ItemID); err == nil {
			return domain.Statef(domain.CodeItemInEscrow, "item %s already has unresolved escrow %s", offer.ItemID, open.ID)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		// A seller counter leaves the hold at the previously funded
		// amount; the buyer's acceptance restores custody == amount
		// before the escrow is created.
		if caller == offer.Buyer {
			if err := m.reconcileHold(ctx, offer, offer.Amount, in.Payment); err != nil {
				return err
			}
		} else if in.Payment != 0 {
			return domain.Validationf(domain.CodePaymentMismatch, "seller acceptance carries no payment, got %d", in.Payment)
		}

		offer.Status = domain.OfferStatusAccepted
		offer.ResolvedAt = &now
		if err := m.offers.Update(ctx, offer); err != nil {
			return err
		}

		escrow = domain.Escrow{
			ID:        uuid.New().String(),
			ItemID:    offer.ItemID,
			Buyer:     offer.Buyer,
			Seller:    offer.Seller,
			Amount:    offer.Amount,
			Status:    domain.EscrowStatusActive,
			CreatedAt: now,
		}
		if err := m.escrows.Create(ctx, escrow); err != nil {
			return err
		}
		if err := m.ledger.MoveHold(ctx, domain.HoldKindOffer, offer.ID, domain.HoldKindEscrow, escrow.ID); err != nil {
			return err
		}
		if err := m.counters.Incr(ctx, domain.CounterEscrowsCreated); err != nil {
			return err
		}

		ev = m.newEvent(domain.EventOfferAccepted)
		ev.ItemID = offer.ItemID
		ev.OfferID = offer.ID
		ev.EscrowID = escrow.ID
		ev.Actor = caller
		ev.Amount = offer.Amount
		return m.eventLog.Append(ctx, ev)
	})
	if err != nil {
		return domain.Escrow{}, err
	}

	m.emit(ctx, ev)
	return escrow, nil
}

// RejectOffer declines an open, unexpired offer and returns the held
// payment to the buyer. Seller only.
func (m *Marketplace) RejectOffer(ctx context.Context, caller, offerID string) (domain.Offer, error) {
	return m.closeOffer(ctx, caller, offerID, domain.OfferStatusRejected)
}

// CancelOffer withdraws an offer and returns the held payment to the
// buyer. Buyer only; cancellation stays available after expiry, up until a
// terminal status.
func (m *Marketplace) CancelOffer(ctx context.Context, caller, offerID string) (domain.Offer, error) {
	return m.closeOffer(ctx, caller, offerID, domain.OfferStatusCancelled)
}

// closeOffer is the shared reject/cancel path: release the hold back to
// the buyer and finalize the offer.
func (m *Marketplace) closeOffer(ctx context.Context, caller, offerID string, terminal domain.OfferStatus) (domain.Offer, error) {
	var offer domain.Offer
	var ev domain.Event

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		offer, err = m.offers.GetForUpdate(ctx, offerID)
		if err != nil {
			return err
		}
		if !offer.Open() {
			return domain.Statef(domain.CodeOfferNotOpen, "offer %s is %s", offerID, offer.Status)
		}

		now := m.clock.Now()
		var evType domain.EventType
		switch terminal {
		case domain.OfferStatusRejected:
			if caller != offer.Seller {
				return domain.Authorizationf(domain.CodeNotSeller, "only the seller may reject offer %s", offerID)
			}
			if offer.Expired(now) {
				return domain.Temporalf(domain.CodeOfferExpired, "offer %s expired at %s", offerID, offer.ExpiresAt.Format(time.RFC3339))
			}
			evType = domain.EventOfferRejected
		case domain.OfferStatusCancelled:
			if caller != offer.Buyer {
				return domain.Authorizationf(domain.CodeNotBuyer, "only the buyer may cancel offer %s", offerID)
			}
			evType = domain.EventOfferCancelled
		}

		if _, err := m.ledger.ReleaseHold(ctx, domain.HoldKindOffer, offer.ID, offer.Buyer); err != nil {
			return err
		}
		offer.Status = terminal
		offer.ResolvedAt = &now
		if err := m.offers.Update(ctx, offer); err != nil {
			return err
		}

		ev = m.newEvent(evType)
		ev.ItemID = offer.ItemID
		ev.OfferID = offer.ID
		ev.Actor = caller
		ev.Amount = offer.Amount
		return m.eventLog.Append(ctx, ev)
	})
	if err != nil {
		return domain.Offer{}, err
	}

	m.emit(ctx, ev)
	return offer, nil
}

// reconcileHold adjusts the buyer-funded custody of an offer to target.
// Raising requires payment of exactly the difference; lowering refunds the
// excess to the buyer and requires zero payment.
func (m *Marketplace) reconcileHold(ctx context.Context, offer domain.Offer, target, payment uint64) error {
	hold, err := m.ledger.GetHold(ctx, domain.HoldKindOffer, offer.ID)
	if err != nil {
		return err
	}

	switch {
	case target > hold.Amount:
		need := target - hold.Amount
		if payment != need {
			return domain.Validationf(domain.CodePaymentMismatch,
				"payment of %d does not match required top-up %d", payment, need)
		}
		return m.ledger.TopUpHold(ctx, domain.HoldKindOffer, offer.ID, offer.Buyer, need)
	case target < hold.Amount:
		if payment != 0 {
			return domain.Validationf(domain.CodePaymentMismatch,
				"lowering the amount refunds the excess, payment must be zero, got %d", payment)
		}
		return m.ledger.ReduceHold(ctx, domain.HoldKindOffer, offer.ID, offer.Buyer, hold.Amount-target)
	default:
		if payment != 0 {
			return domain.Validationf(domain.CodePaymentMismatch,
				"custody already matches, payment must be zero, got %d", payment)
		}
		return nil
	}
}

// authorizeAccept enforces who may accept the current terms: the seller for
// an initial buyer offer, otherwise the side that did not author the
// current counter.
func authorizeAccept(offer domain.Offer, caller string) error {
	if offer.CounteredBy == "" {
		if caller != offer.Seller {
			return domain.Authorizationf(domain.CodeWrongAcceptor, "only the seller may accept the initial offer")
		}
		return nil
	}
	switch offer.CounteredBy {
	case offer.Seller:
		if caller != offer.Buyer {
			return domain.Authorizationf(domain.CodeWrongAcceptor, "only the buyer may accept a seller counter")
		}
	case offer.Buyer:
		if caller != offer.Seller {
			return domain.Authorizationf(domain.CodeWrongAcceptor, "only the seller may accept a buyer counter")
		}
	}
	return nil
}
