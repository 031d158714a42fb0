package domain

import "time"

// OfferStatus tracks the offer lifecycle.
type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusCountered OfferStatus = "countered"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusRejected  OfferStatus = "rejected"
	OfferStatusCancelled OfferStatus = "cancelled"
)

// Offer expiry bounds, in hours from creation.
const (
	MinOfferExpiryHours = 1
	MaxOfferExpiryHours = 168
)

// Offer is a buyer's bid on an item, funded up front: the offer's amount
// always equals the payment held in custody for it (seller counters are
// reconciled when the buyer accepts). Seller is a denormalized copy of
// item.Seller taken at creation so authorization checks never re-read the
// item.
type Offer struct {
	ID          string
	ItemID      string
	Buyer       string
	Seller      string
	Amount      uint64
	Message     string
	Status      OfferStatus
	IsCounter   bool   // current amount/message are counter terms
	CounteredBy string // address that authored the current counter terms, empty for the initial offer
	ExpiresAt   time.Time
	CreatedAt   time.Time
	ResolvedAt  *time.Time // set when the offer reaches a terminal status
}

// Open reports whether the offer can still be negotiated.
func (o Offer) Open() bool {
	return o.Status == OfferStatusPending || o.Status == OfferStatusCountered
}

// Terminal reports whether the offer reached a final status.
func (o Offer) Terminal() bool {
	switch o.Status {
	case OfferStatusAccepted, OfferStatusRejected, OfferStatusCancelled:
		return true
	}
	return false
}

// Expired reports whether the offer lapsed at the given instant. Expiry is
// evaluated lazily at each operation; there is no background sweep.
func (o Offer) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// AwaitingBuyer reports whether the pending decision sits with the buyer,
// i.e. the current terms were authored by the seller.
func (o Offer) AwaitingBuyer() bool {
	return o.CounteredBy != "" && o.CounteredBy == o.Seller
}
