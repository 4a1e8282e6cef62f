// Package collection holds the authoritative ordered list of committed
// media items.
//
// The store is the one piece of state mutated by multiple logical actors:
// the upload session commits batches into it while the user removes and
// reorders items at will. Every mutation is applied as an atomic,
// serialized step under one mutex, and observers are notified with the
// full resulting order before the next mutation is accepted, so a reorder
// can never race a concurrent append into a lost update.
package collection

import (
	"fmt"
	"sync"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/mediakit/validate"
	"github.com/samber/lo"
)

// Item is a committed, durable media entry. Its position is implicit:
// the order of the store's list is the order shown to the user.
type Item struct {
	// ID is unique within the store.
	ID string

	// URL is the durable remote locator, non-empty and immutable.
	URL string

	// Kind determines the rendering affordance (videos get a playback
	// overlay).
	Kind validate.Kind

	// Document marks PDF content for distinct presentation.
	Document bool
}

// Observer receives the full ordered list after every mutation.
// It is invoked synchronously while the mutation is being applied, so the
// next mutation is not accepted before all observers have seen this one.
// Observers must not call back into the store.
type Observer func(items []Item)

// Store is the ordered, observable media collection.
type Store struct {
	mu        sync.Mutex
	items     []Item
	observers []Observer
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// Subscribe registers an observer. Observers registered after mutations
// do not receive past states; call Snapshot for the current one.
func (s *Store) Subscribe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Snapshot returns a copy of the current ordered list.
func (s *Store) Snapshot() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len returns the number of committed items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Append adds newly committed items to the end of the current order as one
// atomic step: observers see either none or all of the batch. Items must
// carry a non-empty URL and an ID not yet present in the store.
func (s *Store) Append(items ...Item) error {
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAppendable(items); err != nil {
		return err
	}

	s.items = append(s.items, items...)
	s.emitLocked()
	return nil
}

// Remove deletes the item at the given position; subsequent items shift
// left by one.
func (s *Store) Remove(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return s.indexError("remove", index)
	}

	s.items = append(s.items[:index], s.items[index+1:]...)
	s.emitLocked()
	return nil
}

// Reorder moves the item at from to position to in a single atomic step,
// preserving the relative order of all other items. Reordering an index
// onto itself is a no-op and does not notify observers.
func (s *Store) Reorder(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if from < 0 || from >= len(s.items) {
		return s.indexError("reorder", from)
	}
	if to < 0 || to >= len(s.items) {
		return s.indexError("reorder", to)
	}
	if from == to {
		return nil
	}

	moved := s.items[from]
	rest := append(s.items[:from:from], s.items[from+1:]...)
	s.items = append(rest[:to:to], append([]Item{moved}, rest[to:]...)...)

	s.emitLocked()
	return nil
}

// Hydrate replaces the entire collection with externally supplied items,
// e.g. the pre-existing media of a listing being edited. It is meant for
// initialization and explicit resynchronization only; the session layer
// refuses to call it while a batch is in flight.
func (s *Store) Hydrate(items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if err := checkItem(it); err != nil {
			return err
		}
		if _, dup := seen[it.ID]; dup {
			return duplicateError(it.ID)
		}
		seen[it.ID] = struct{}{}
	}

	s.items = append([]Item(nil), items...)
	s.emitLocked()
	return nil
}

// IDs returns the item IDs in their current order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.items, func(it Item, _ int) string { return it.ID })
}

func (s *Store) checkAppendable(items []Item) error {
	existing := lo.SliceToMap(s.items, func(it Item) (string, struct{}) {
		return it.ID, struct{}{}
	})

	for _, it := range items {
		if err := checkItem(it); err != nil {
			return err
		}
		if _, dup := existing[it.ID]; dup {
			return duplicateError(it.ID)
		}
		existing[it.ID] = struct{}{}
	}
	return nil
}

// emitLocked notifies observers with a fresh snapshot. Called with the
// mutex held so that mutation plus notification form one serialized step.
func (s *Store) emitLocked() {
	if len(s.observers) == 0 {
		return
	}
	snapshot := s.snapshotLocked()
	for _, fn := range s.observers {
		fn(snapshot)
	}
}

func (s *Store) snapshotLocked() []Item {
	return append([]Item(nil), s.items...)
}

func (s *Store) indexError(op string, index int) error {
	return errx.New(
		fmt.Sprintf("%s: index %d out of range [0, %d)", op, index, len(s.items)),
		errx.WithCode(CodeIndexOutOfRange),
		errx.WithType(errx.T_Validation),
	)
}

func checkItem(it Item) error {
	if it.URL == "" {
		return errx.New(
			"media item has no durable url",
			errx.WithCode(CodeEmptyURL),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"id": it.ID}),
		)
	}
	return nil
}

func duplicateError(id string) error {
	return errx.New(
		"media item id already present",
		errx.WithCode(CodeDuplicateItem),
		errx.WithType(errx.T_Conflict),
		errx.WithDetails(errx.D{"id": id}),
	)
}
