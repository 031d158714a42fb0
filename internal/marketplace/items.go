package marketplace

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/rijulg06/thriftchain/internal/capability"
	"github.com/rijulg06/thriftchain/internal/domain"
)

// CreateItemInput carries the seller-provided listing fields.
type CreateItemInput struct {
	Title       string
	Description string
	Price       uint64
	Category    string
	Tags        []string
	ImageRefs   []string
	Condition   string
	Brand       string
	Size        string
	Color       string
	Material    string
}

// CreateItem lists a new item. The caller must present a listing capability
// minted by this marketplace's issuer; possession is the authorization, a
// forged or foreign token aborts the call.
func (m *Marketplace) CreateItem(ctx context.Context, seller string, token *capability.Token, in CreateItemInput) (domain.Item, error) {
	if !m.issuer.Verify(token) {
		return domain.Item{}, domain.Authorizationf(domain.CodeInvalidCapability, "listing capability missing or not issued by this marketplace")
	}
	if seller == "" {
		return domain.Item{}, domain.Validationf(domain.CodeInvalidAddress, "seller address required")
	}
	if in.Price == 0 {
		return domain.Item{}, domain.Validationf(domain.CodePriceNotPositive, "price must be greater than zero")
	}
	if strings.TrimSpace(in.Title) == "" {
		return domain.Item{}, domain.Validationf(domain.CodeEmptyTitle, "title must not be empty")
	}
	if strings.TrimSpace(in.Description) == "" {
		return domain.Item{}, domain.Validationf(domain.CodeEmptyDescription, "description must not be empty")
	}

	now := m.clock.Now()
	item := domain.Item{
		ID:          uuid.New().String(),
		Seller:      seller,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Tags:        in.Tags,
		ImageRefs:   in.ImageRefs,
		Condition:   in.Condition,
		Brand:       in.Brand,
		Size:        in.Size,
		Color:       in.Color,
		Material:    in.Material,
		Status:      domain.ItemStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ev := m.newEvent(domain.EventItemCreated)
	ev.ItemID = item.ID
	ev.Actor = seller
	ev.Amount = item.Price

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := m.items.Create(ctx, item); err != nil {
			return err
		}
		if err := m.counters.Incr(ctx, domain.CounterItemsCreated); err != nil {
			return err
		}
		return m.eventLog.Append(ctx, ev)
	})
	if err != nil {
		return domain.Item{}, err
	}

	m.emit(ctx, ev)
	return item, nil
}

// UpdateItemPrice changes the listing price. Only the seller may update,
// only while the item is active, and only to a positive price.
func (m *Marketplace) UpdateItemPrice(ctx context.Context, caller, itemID string, newPrice uint64) (domain.Item, error) {
	if newPrice == 0 {
		return domain.Item{}, domain.Validationf(domain.CodePriceNotPositive, "price must be greater than zero")
	}

	var item domain.Item
	var ev domain.Event

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = m.items.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if caller != item.Seller {
			return domain.Authorizationf(domain.CodeNotSeller, "caller %s is not the seller of item %s", caller, itemID)
		}
		if !item.Purchasable() {
			return domain.Statef(domain.CodeItemNotActive, "item %s is %s", itemID, item.Status)
		}

		oldPrice := item.Price
		if err := m.items.UpdatePrice(ctx, itemID, newPrice); err != nil {
			return err
		}
		item.Price = newPrice

		ev = m.newEvent(domain.EventItemPriceUpdated)
		ev.ItemID = itemID
		ev.Actor = caller
		ev.Amount = newPrice
		ev.Detail = map[string]any{"old_price": oldPrice, "new_price": newPrice}
		return m.eventLog.Append(ctx, ev)
	})
	if err != nil {
		return domain.Item{}, err
	}

	m.invalidateItem(ctx, itemID)
	m.emit(ctx, ev)
	return item, nil
}

// CancelItem withdraws an active listing. Pending offers are untouched;
// later offer operations re-check the item status and abort. Held offer
// funds stay recoverable through reject/cancel.
func (m *Marketplace) CancelItem(ctx context.Context, caller, itemID string) (domain.Item, error) {
	var item domain.Item
	var ev domain.Event

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = m.items.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if caller != item.Seller {
			return domain.Authorizationf(domain.CodeNotSeller, "caller %s is not the seller of item %s", caller, itemID)
		}
		if !item.Purchasable() {
			return domain.Statef(domain.CodeItemNotActive, "item %s is %s", itemID, item.Status)
		}

		if err := m.items.SetStatus(ctx, itemID, domain.ItemStatusCancelled); err != nil {
			return err
		}
		item.Status = domain.ItemStatusCancelled

		ev = m.newEvent(domain.EventItemCancelled)
		ev.ItemID = itemID
		ev.Actor = caller
		return m.eventLog.Append(ctx, ev)
	})
	if err != nil {
		return domain.Item{}, err
	}

	m.invalidateItem(ctx, itemID)
	m.emit(ctx, ev)
	return item, nil
}

// markSold finalizes an item as sold. Internal only: the sole caller is
// delivery confirmation, inside its transaction. The item must still be
// active.
func (m *Marketplace) markSold(ctx context.Context, item domain.Item, actor string) (domain.Event, error) {
	if !item.Purchasable() {
		return domain.Event{}, domain.Statef(domain.CodeItemNotActive, "item %s is %s", item.ID, item.Status)
	}
	if err := m.items.SetStatus(ctx, item.ID, domain.ItemStatusSold); err != nil {
		return domain.Event{}, err
	}

	ev := m.newEvent(domain.EventItemMarkedAsSold)
	ev.ItemID = item.ID
	ev.Actor = actor
	if err := m.eventLog.Append(ctx, ev); err != nil {
		return domain.Event{}, err
	}
	return ev, nil
}
