package domain

import "time"

// EscrowStatus tracks fund custody after an offer is accepted.
type EscrowStatus string

const (
	EscrowStatusActive    EscrowStatus = "active"
	EscrowStatusCompleted EscrowStatus = "completed"
	EscrowStatusDisputed  EscrowStatus = "disputed"
	EscrowStatusRefunded  EscrowStatus = "refunded"
)

// Escrow holds a buyer's payment between offer acceptance and delivery
// confirmation (or refund). Amount is fixed at creation and always equals
// the custodied hold. Completed and refunded escrows are immutable history;
// they are never deleted.
type Escrow struct {
	ID          string
	ItemID      string
	Buyer       string
	Seller      string
	Amount      uint64
	Status      EscrowStatus
	CreatedAt   time.Time
	CompletedAt *time.Time // set on completion or refund
}

// Resolved reports whether custody has been emptied and the record is
// final.
func (e Escrow) Resolved() bool {
	return e.Status == EscrowStatusCompleted || e.Status == EscrowStatusRefunded
}

// Unresolved reports whether the escrow still custodies funds (active or
// disputed). An item with an unresolved escrow cannot enter a second one.
func (e Escrow) Unresolved() bool {
	return e.Status == EscrowStatusActive || e.Status == EscrowStatusDisputed
}
