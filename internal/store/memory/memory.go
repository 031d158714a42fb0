// Package memory implements every domain store interface in process
// memory, guarded by a single mutex. One mutex per marketplace is the
// simplest transactional layer that preserves the "no partial mutation"
// guarantee: WithinTx snapshots the state and restores it when the
// operation aborts. It backs the memory run mode and the service tests.
package memory

import (
	"context"
	"sync"

	"github.com/rijulg06/thriftchain/internal/domain"
)

type holdKey struct {
	kind  domain.HoldKind
	refID string
}

// Store holds all marketplace state. It implements domain.Transactor
// directly; the per-entity views returned by Items, Offers, Escrows,
// Ledger, Events and Counters implement the corresponding store
// interfaces over the shared state.
type Store struct {
	clock domain.Clock

	mu       sync.Mutex
	items    map[string]domain.Item
	offers   map[string]domain.Offer
	escrows  map[string]domain.Escrow
	accounts map[string]domain.Account
	holds    map[holdKey]domain.Hold
	events   []domain.Event
	counters map[string]uint64
}

// New creates an empty Store reading the system clock.
func New() *Store {
	return NewWithClock(domain.SystemClock{})
}

// NewWithClock creates an empty Store whose audit timestamps come from
// clock, so tests driving a fake clock see deterministic records.
func NewWithClock(clock domain.Clock) *Store {
	return &Store{
		clock:    clock,
		items:    make(map[string]domain.Item),
		offers:   make(map[string]domain.Offer),
		escrows:  make(map[string]domain.Escrow),
		accounts: make(map[string]domain.Account),
		holds:    make(map[holdKey]domain.Hold),
		counters: make(map[string]uint64),
	}
}

type txKey struct{}

// inTx reports whether ctx already runs under WithinTx, in which case the
// store mutex is held by the caller.
func inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

// lock acquires the store mutex unless the surrounding transaction already
// holds it. It returns the matching unlock function.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTx runs fn under the store mutex. On error every mutation fn made
// is rolled back by restoring a snapshot taken at entry, so a failed
// operation leaves the state exactly as it was.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, struct{}{})); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	items    map[string]domain.Item
	offers   map[string]domain.Offer
	escrows  map[string]domain.Escrow
	accounts map[string]domain.Account
	holds    map[holdKey]domain.Hold
	events   []domain.Event
	counters map[string]uint64
}

// snapshot copies the maps. Entity values are copied by assignment; the
// services never mutate entity slices in place, they replace whole
// records, so sharing the slice backing arrays is safe.
func (s *Store) snapshot() snapshot {
	return snapshot{
		items:    copyMap(s.items),
		offers:   copyMap(s.offers),
		escrows:  copyMap(s.escrows),
		accounts: copyMap(s.accounts),
		holds:    copyMap(s.holds),
		events:   s.events[:len(s.events):len(s.events)],
		counters: copyMap(s.counters),
	}
}

func (s *Store) restore(snap snapshot) {
	s.items = snap.items
	s.offers = snap.offers
	s.escrows = snap.escrows
	s.accounts = snap.accounts
	s.holds = snap.holds
	s.events = snap.events
	s.counters = snap.counters
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// paginate applies ListOpts limit/offset to an already filtered, sorted
// slice.
func paginate[T any](list []T, opts domain.ListOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(list) {
			return nil
		}
		list = list[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(list) {
		list = list[:opts.Limit]
	}
	return list
}
