package filtercache

import "cmp"

// Progress summarizes what an EntityStore knows about the underlying
// dataset: the identifier range it has observed, how many entities it
// holds, and the expected total if known.
type Progress[I any] struct {
	MinID         *I
	MaxID         *I
	KnownCount    int
	ExpectedTotal int // -1 means unknown
}

// EntityStore is the global, identifier-keyed cache of entities plus
// progress metadata (component B, spec §3/§4.B). It is not internally
// synchronised: callers sharing a store across goroutines must provide
// external exclusion (spec §5), which Manager does.
type EntityStore[I cmp.Ordered, T any] struct {
	dataset       map[I]T
	emptyIDs      map[I]struct{}
	minID         *I
	maxID         *I
	knownCount    int
	expectedTotal int

	logger Logger
}

// NewEntityStore creates an empty EntityStore. If logger is nil, a no-op
// logger is used.
func NewEntityStore[I cmp.Ordered, T any](logger Logger) *EntityStore[I, T] {
	if logger == nil {
		logger = noopLogger{}
	}
	return &EntityStore[I, T]{
		dataset:       make(map[I]T),
		emptyIDs:      make(map[I]struct{}),
		expectedTotal: -1,
		logger:        logger,
	}
}

// Put inserts or replaces the entity under id, removing id from the
// known-empty set if present.
func (s *EntityStore[I, T]) Put(id I, entity T) {
	if _, existed := s.dataset[id]; !existed {
		s.knownCount++
		s.touchRange(id)
	}
	s.dataset[id] = entity
	delete(s.emptyIDs, id)
}

// Remove deletes id from the dataset and records it as known-empty.
func (s *EntityStore[I, T]) Remove(id I) {
	if _, existed := s.dataset[id]; existed {
		delete(s.dataset, id)
		s.knownCount--
		if (s.minID != nil && id == *s.minID) || (s.maxID != nil && id == *s.maxID) {
			s.recomputeRange()
		}
	}
	s.emptyIDs[id] = struct{}{}
}

// recomputeRange rescans the dataset to restore the min/max invariant
// after a removal touches either boundary.
func (s *EntityStore[I, T]) recomputeRange() {
	s.minID = nil
	s.maxID = nil
	for id := range s.dataset {
		s.touchRange(id)
	}
}

// Contains reports whether id maps to a known entity.
func (s *EntityStore[I, T]) Contains(id I) bool {
	_, ok := s.dataset[id]
	return ok
}

// Get returns the entities for the given ids, skipping any id that is
// absent from the store.
func (s *EntityStore[I, T]) Get(ids []I) []T {
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if v, ok := s.dataset[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

// AllValues returns every entity currently in the store. Order is
// unspecified.
func (s *EntityStore[I, T]) AllValues() []T {
	out := make([]T, 0, len(s.dataset))
	for _, v := range s.dataset {
		out = append(out, v)
	}
	return out
}

// Size returns the number of entities currently held.
func (s *EntityStore[I, T]) Size() int {
	return len(s.dataset)
}

// Clear empties the store and resets progress tracking.
func (s *EntityStore[I, T]) Clear() {
	s.dataset = make(map[I]T)
	s.emptyIDs = make(map[I]struct{})
	s.minID = nil
	s.maxID = nil
	s.knownCount = 0
	s.expectedTotal = -1
}

// UpdateFromPage folds a page of items into the store: each item whose
// id is new is inserted, knownCount incremented, min/max updated, and
// onInsert invoked. expectedTotal is set on first call; a later call
// reporting a different total logs a warning and overwrites it (spec
// §4.B, §7 "progress-drift" -- this is the dataset-wide counterpart;
// see FilterPageMap for the per-filter totalElements drift policy,
// which keeps the original value instead). A nil or empty items slice is
// a no-op.
func (s *EntityStore[I, T]) UpdateFromPage(items []T, ids []I, total int, onInsert func(id I, entity T)) {
	if len(items) == 0 {
		return
	}

	if s.expectedTotal == -1 {
		s.expectedTotal = total
	} else if s.expectedTotal != total {
		s.logger.Warn("entitystore: expectedTotal drift", "previous", s.expectedTotal, "reported", total)
		s.expectedTotal = total
	}

	for i, item := range items {
		id := ids[i]
		isNew := !s.Contains(id)
		s.Put(id, item)
		if isNew && onInsert != nil {
			onInsert(id, item)
		}
	}
}

// IsComplete reports whether the store has observed at least as many
// entities as expected. It is always false while expectedTotal is
// unknown (-1).
func (s *EntityStore[I, T]) IsComplete() bool {
	return s.expectedTotal != -1 && s.knownCount >= s.expectedTotal
}

// Progress returns a snapshot of the store's progress metadata.
func (s *EntityStore[I, T]) Progress() Progress[I] {
	return Progress[I]{
		MinID:         s.minID,
		MaxID:         s.maxID,
		KnownCount:    s.knownCount,
		ExpectedTotal: s.expectedTotal,
	}
}

func (s *EntityStore[I, T]) touchRange(id I) {
	if s.minID == nil || id < *s.minID {
		v := id
		s.minID = &v
	}
	if s.maxID == nil || id > *s.maxID {
		v := id
		s.maxID = &v
	}
}
