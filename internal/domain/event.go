package domain

import "time"

// EventType names the domain events appended to the event log. External
// indexers and the UI consume them; the core only appends and never reads
// them back.
type EventType string

const (
	EventItemCreated      EventType = "item_created"
	EventItemPriceUpdated EventType = "item_price_updated"
	EventItemCancelled    EventType = "item_cancelled"
	EventItemMarkedAsSold EventType = "item_marked_as_sold"
	EventOfferCreated     EventType = "offer_created"
	EventOfferCountered   EventType = "offer_countered"
	EventOfferAccepted    EventType = "offer_accepted"
	EventOfferRejected    EventType = "offer_rejected"
	EventOfferCancelled   EventType = "offer_cancelled"
	EventItemSold         EventType = "item_sold"
	EventEscrowDisputed   EventType = "escrow_disputed"
	EventEscrowRefunded   EventType = "escrow_refunded"
)

// Event is a single append-only ledger notification. Entity IDs are set
// where relevant and empty otherwise; Detail carries event-specific extras
// such as old/new prices.
type Event struct {
	ID        string
	Type      EventType
	ItemID    string
	OfferID   string
	EscrowID  string
	Actor     string
	Amount    uint64
	Detail    map[string]any
	CreatedAt time.Time
}
