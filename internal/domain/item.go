package domain

import "time"

// ItemStatus represents the lifecycle state of a listed item.
type ItemStatus string

const (
	ItemStatusActive    ItemStatus = "active"
	ItemStatusSold      ItemStatus = "sold"
	ItemStatusCancelled ItemStatus = "cancelled"
)

// Item is a listing in the marketplace catalog. The seller is fixed at
// creation and never changes; status only advances active -> sold or
// active -> cancelled.
type Item struct {
	ID          string
	Seller      string // normalized hex address
	Title       string
	Description string
	Price       uint64 // smallest currency unit
	Category    string
	Tags        []string
	ImageRefs   []string // opaque blob keys owned by the blob store
	Condition   string
	Brand       string
	Size        string
	Color       string
	Material    string
	Status      ItemStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Purchasable reports whether offers can still be made and settled against
// the item.
func (i Item) Purchasable() bool {
	return i.Status == ItemStatusActive
}

// Cancelled reports whether the seller withdrew the listing.
func (i Item) Cancelled() bool {
	return i.Status == ItemStatusCancelled
}
