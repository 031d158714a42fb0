package marketplace

import (
	"context"
	"testing"
	"time"

	"github.com/rijulg06/thriftchain/internal/capability"
	"github.com/rijulg06/thriftchain/internal/domain"
	"github.com/rijulg06/thriftchain/internal/store/memory"
)

const (
	seller = "0xAaaaAaAaaAaAaAAAaaaAaaAAaaaAAAaaaaaAAaA1"
	buyer  = "0xBbbBbbbbBBbBbbbBbBbbbbBBbbbbBbbBBBbBbBB2"
	other  = "0xCccCCcccCCcCcccCcCccccCCccccCccCCCcCcCC3"
)

// fakeClock is a settable Clock for driving expiry.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	m      *Marketplace
	store  *memory.Store
	ledger domain.Ledger
	clock  *fakeClock
	issuer *capability.Issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.NewWithClock(clock)
	issuer := capability.NewIssuer("test-listing-secret")

	m := New(Deps{
		Tx:       store,
		Items:    store.Items(),
		Offers:   store.Offers(),
		Escrows:  store.Escrows(),
		Ledger:   store.Ledger(),
		Events:   store.Events(),
		Counters: store.Counters(),
		Issuer:   issuer,
		Clock:    clock,
	})

	return &fixture{
		m:      m,
		store:  store,
		ledger: store.Ledger(),
		clock:  clock,
		issuer: issuer,
	}
}

func (f *fixture) deposit(t *testing.T, address string, amount uint64) {
	t.Helper()
	if err := f.m.Deposit(context.Background(), address, amount); err != nil {
		t.Fatalf("deposit %d to %s: %v", amount, address, err)
	}
}

func (f *fixture) balance(t *testing.T, address string) uint64 {
	t.Helper()
	bal, err := f.m.Balance(context.Background(), address)
	if err != nil {
		t.Fatalf("balance of %s: %v", address, err)
	}
	return bal
}

// listItem creates an active listing with a valid capability token.
func (f *fixture) listItem(t *testing.T, price uint64) domain.Item {
	t.Helper()
	item, err := f.m.CreateItem(context.Background(), seller, f.issuer.Issue(), CreateItemInput{
		Title:       "vintage denim jacket",
		Description: "lightly worn, size M",
		Price:       price,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item
}

// placeOffer funds the buyer just enough and places an offer at amount.
func (f *fixture) placeOffer(t *testing.T, itemID string, amount uint64) domain.Offer {
	t.Helper()
	f.deposit(t, buyer, amount)
	offer, err := f.m.CreateOffer(context.Background(), buyer, CreateOfferInput{
		ItemID:         itemID,
		Amount:         amount,
		Payment:        amount,
		ExpiresInHours: 24,
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	return offer
}

// wantFault asserts err carries the given abort code.
func wantFault(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("want abort %d, got nil error", code)
	}
	f, ok := domain.AsFault(err)
	if !ok {
		t.Fatalf("want abort %d, got non-fault error: %v", code, err)
	}
	if f.Code != code {
		t.Fatalf("want abort %d, got %d (%s)", code, f.Code, f.Reason)
	}
}

func lastEventType(t *testing.T, f *fixture) domain.EventType {
	t.Helper()
	events, err := f.m.Events(context.Background(), domain.ListOpts{Limit: 1})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("event log is empty")
	}
	return events[0].Type
}
