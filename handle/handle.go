// Package handle wraps a filtercache.Manager with an opaque
// UUID-surrogate index, the manager-level addendum spec §3 describes
// ("opaque handle index") and §9 flags a quirk in. Grounded on the
// spec's own design note #3 (DatasetManagerUUIDSnapshot composition: a
// snapshot is (core, extension) where the extension is opaque to the
// core persistence layer) expressed here as plain composition rather
// than inheritance.
package handle

import (
	"cmp"
	"sync"

	"github.com/google/uuid"

	"github.com/lindenhollow/filtercache"
	"github.com/lindenhollow/filtercache/fcerr"
)

// Index maps opaque handles to primary identifiers.
type Index[I comparable] struct {
	mu       sync.Mutex
	byHandle map[uuid.UUID]I
	dedup    bool
	byID     map[I]uuid.UUID // only populated when dedup is enabled
}

func newIndex[I comparable](dedup bool) *Index[I] {
	idx := &Index[I]{byHandle: make(map[uuid.UUID]I), dedup: dedup}
	if dedup {
		idx.byID = make(map[I]uuid.UUID)
	}
	return idx
}

// allocate returns the handle for id, minting a new one. With
// deduplication disabled (the default, preserving the source's
// one-handle-per-insertion-event semantics per spec §9 open question
// #1), every call mints a fresh handle even for an id already indexed.
// With WithHandleDedup, a second allocation for the same id returns its
// existing handle instead.
func (idx *Index[I]) allocate(id I) uuid.UUID {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dedup {
		if h, ok := idx.byID[id]; ok {
			return h
		}
	}
	h := uuid.New()
	idx.byHandle[h] = id
	if idx.dedup {
		idx.byID[id] = h
	}
	return h
}

// Lookup resolves a handle to its primary identifier.
func (idx *Index[I]) Lookup(h uuid.UUID) (I, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	id, ok := idx.byHandle[h]
	return id, ok
}

// Snapshot returns the handle table as a passive map, for embedding in
// a Manager snapshot's Addendum.
func (idx *Index[I]) Snapshot() map[uuid.UUID]I {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make(map[uuid.UUID]I, len(idx.byHandle))
	for h, id := range idx.byHandle {
		out[h] = id
	}
	return out
}

// Manager wraps a filtercache.Manager, allocating an opaque handle for
// every entity the underlying manager newly observes.
type Manager[I cmp.Ordered, T any] struct {
	*filtercache.Manager[I, T]
	index *Index[I]
}

// Option configures a handle Manager.
type Option func(*options)

type options struct {
	dedup bool
}

// WithHandleDedup deduplicates handle allocation by id: re-observing an
// already-handled id returns its existing handle rather than minting a
// new one. This is the recommended resolution of spec §9 open question
// #1. Note that NewManager only ever calls allocate from onInsert,
// which the entity store already gates to genuinely new ids -- so under
// the default wiring this option has no observable effect; it exists
// for callers who invoke Index.allocate directly from their own hook
// and want the same guarantee.
func WithHandleDedup() Option {
	return func(o *options) { o.dedup = true }
}

// NewManager builds a handle-indexed Manager. extra are passed through
// to the underlying filtercache.Manager; the onInsert hook is claimed
// by this package to drive handle allocation: its own WithOnInsert is
// applied after extra, so a filtercache.WithOnInsert passed in extra is
// overridden.
func NewManager[I cmp.Ordered, T any](opts []Option, extra ...filtercache.Option[I, T]) *Manager[I, T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	index := newIndex[I](o.dedup)

	allOpts := append([]filtercache.Option[I, T]{}, extra...)
	allOpts = append(allOpts, filtercache.WithOnInsert[I, T](func(id I, _ T) {
		index.allocate(id)
	}))

	return &Manager[I, T]{
		Manager: filtercache.NewManager[I, T](allOpts...),
		index:   index,
	}
}

// FindByHandle resolves each handle to its primary id and looks up the
// resulting entities via the wrapped manager. Unknown handles are
// skipped.
func (m *Manager[I, T]) FindByHandle(handles []uuid.UUID) []T {
	ids := make([]I, 0, len(handles))
	for _, h := range handles {
		if id, ok := m.index.Lookup(h); ok {
			ids = append(ids, id)
		}
	}
	return m.Manager.FindByID(ids)
}

// Snapshot returns the wrapped manager's snapshot with the handle
// index attached as the addendum.
func (m *Manager[I, T]) Snapshot() filtercache.Snapshot[I, T] {
	snap := m.Manager.Snapshot()
	snap.Addendum = m.index.Snapshot()
	return snap
}

// RestoreManager inverts Snapshot, restoring both the core manager
// state and the handle index from snap.Addendum.
func RestoreManager[I cmp.Ordered, T any](snap filtercache.Snapshot[I, T], opts []Option, extra ...filtercache.Option[I, T]) (*Manager[I, T], error) {
	addendum, ok := snap.Addendum.(map[uuid.UUID]I)
	if snap.Addendum != nil && !ok {
		return nil, fcerr.SnapshotNull("handle index")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	index := newIndex[I](o.dedup)
	for h, id := range addendum {
		index.byHandle[h] = id
		if index.dedup {
			index.byID[id] = h
		}
	}

	allOpts := append([]filtercache.Option[I, T]{}, extra...)
	allOpts = append(allOpts, filtercache.WithOnInsert[I, T](func(id I, _ T) {
		index.allocate(id)
	}))

	core := filtercache.RestoreManager[I, T](snap, allOpts...)
	return &Manager[I, T]{Manager: core, index: index}, nil
}
