package item

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/loykin/itemd/internal/history"
	"github.com/loykin/itemd/internal/metrics"
)

const sinkTimeout = 2 * time.Second

// Store is the in-memory, insertion-ordered item collection.
// The sequence and the id counter are guarded together by mu; the items gauge
// is updated under mu so it always matches the sequence length.
type Store struct {
	mu     sync.Mutex
	items  []Item
	nextID int
	sinks  []history.Sink
}

// NewStore returns an empty store whose first item will get id 1.
func NewStore() *Store {
	return &Store{items: []Item{}, nextID: 1}
}

// SetHistorySinks configures lifecycle event destinations (SQLite, ClickHouse, ...).
// Passing no sinks disables history.
func (s *Store) SetHistorySinks(sinks ...history.Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append([]history.Sink(nil), sinks...)
}

// List returns a copy of all items in insertion order.
func (s *Store) List() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Create appends a new item built from p. Unsupplied fields take their zero value.
func (s *Store) Create(p Patch) Item {
	s.mu.Lock()
	it := Item{ID: s.nextID}
	p.applyTo(&it)
	s.nextID++
	s.items = append(s.items, it)
	metrics.SetItems(len(s.items))
	sinks := s.sinks
	s.mu.Unlock()

	metrics.IncStoreOp("create", metrics.ResultOK)
	s.record(sinks, history.EventCreated, it)
	return it
}

// Get returns the item with the given id.
func (s *Store) Get(id int) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		metrics.IncStoreOp("get", metrics.ResultNotFound)
		return Item{}, ErrNotFound
	}
	metrics.IncStoreOp("get", metrics.ResultOK)
	return s.items[idx], nil
}

// Update overwrites only the fields supplied in p and returns the result.
func (s *Store) Update(id int, p Patch) (Item, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		metrics.IncStoreOp("update", metrics.ResultNotFound)
		return Item{}, ErrNotFound
	}
	p.applyTo(&s.items[idx])
	it := s.items[idx]
	sinks := s.sinks
	s.mu.Unlock()

	metrics.IncStoreOp("update", metrics.ResultOK)
	s.record(sinks, history.EventUpdated, it)
	return it, nil
}

// Delete removes the item with the given id, keeping the order of the rest.
func (s *Store) Delete(id int) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		metrics.IncStoreOp("delete", metrics.ResultNotFound)
		return ErrNotFound
	}
	it := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	metrics.SetItems(len(s.items))
	sinks := s.sinks
	s.mu.Unlock()

	metrics.IncStoreOp("delete", metrics.ResultOK)
	s.record(sinks, history.EventDeleted, it)
	return nil
}

// Reset drops every item and restarts ids at 1. Intended for test isolation.
func (s *Store) Reset() {
	s.mu.Lock()
	s.items = []Item{}
	s.nextID = 1
	metrics.SetItems(0)
	sinks := s.sinks
	s.mu.Unlock()

	s.record(sinks, history.EventReset, Item{})
}

func (s *Store) indexLocked(id int) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// record delivers an event to every sink. Failures are logged only; store
// operations never fail because of history.
func (s *Store) record(sinks []history.Sink, typ history.EventType, it Item) {
	if len(sinks) == 0 {
		return
	}
	evt := history.Event{
		Type:       typ,
		OccurredAt: time.Now().UTC(),
		Record:     history.Record{ID: it.ID, Name: it.Name, Completed: it.Completed},
	}
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	for _, sk := range sinks {
		if err := sk.Send(ctx, evt); err != nil {
			slog.Warn("history sink send failed", "event", typ, "id", it.ID, "error", err)
		}
	}
}
