package memory

import (
	"context"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// EventStore implements domain.EventStore over the shared Store state.
type EventStore struct {
	root *Store
}

// Events returns the event log view.
func (s *Store) Events() *EventStore {
	return &EventStore{root: s}
}

// Append adds an event to the log. The log is append-only; nothing ever
// removes entries.
func (s *EventStore) Append(ctx context.Context, event domain.Event) error {
	defer s.root.lock(ctx)()
	s.root.events = append(s.root.events, event)
	return nil
}

// List returns events newest first with pagination and time filtering.
func (s *EventStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Event, error) {
	defer s.root.lock(ctx)()

	var out []domain.Event
	for i := len(s.root.events) - 1; i >= 0; i-- {
		e := s.root.events[i]
		if opts.Since != nil && e.CreatedAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.CreatedAt.After(*opts.Until) {
			continue
		}
		out = append(out, e)
	}
	return paginate(out, opts), nil
}

// CounterStore implements domain.CounterStore over the shared Store state.
type CounterStore struct {
	root *Store
}

// Counters returns the diagnostic counter view.
func (s *Store) Counters() *CounterStore {
	return &CounterStore{root: s}
}

// Incr bumps a named counter.
func (s *CounterStore) Incr(ctx context.Context, name string) error {
	defer s.root.lock(ctx)()
	s.root.counters[name]++
	return nil
}

// Get returns the current value of a named counter.
func (s *CounterStore) Get(ctx context.Context, name string) (uint64, error) {
	defer s.root.lock(ctx)()
	return s.root.counters[name], nil
}

// All returns a copy of every counter.
func (s *CounterStore) All(ctx context.Context) (map[string]uint64, error) {
	defer s.root.lock(ctx)()
	return copyMap(s.root.counters), nil
}
