package filtercache

import "cmp"

// EntityStoreSnapshot is the passive, serialisable form of an
// EntityStore (spec §4.G part 1).
type EntityStoreSnapshot[I comparable, T any] struct {
	Dataset       map[I]T
	EmptyIDs      []I
	MinID         *I
	MaxID         *I
	KnownCount    int
	ExpectedTotal int
}

// FilterPageSnapshot is the passive, serialisable form of a
// FilterPageMap (spec §4.G part 2). PopulatedPositions and
// PopulatedPages are the raw bitmap words, preserved exactly so that
// popcount survives a round trip (spec §6 "Snapshot shape").
type FilterPageSnapshot[I any] struct {
	TotalElements      int
	PageSize           int
	KnownCount         int
	IDStorage          []*I
	PopulatedPositions []uint64
	PopulatedPages     []uint64
}

// Snapshot is the complete, immutable state of a Manager: an entity
// store snapshot, one filter-page snapshot per live fingerprint, and an
// opaque manager-specific addendum (spec §4.G part 3; §9 "polymorphic
// snapshot hierarchy" -- here a plain field rather than a subclass,
// since Go has no inheritance to mirror).
type Snapshot[I comparable, T any] struct {
	EntityStore EntityStoreSnapshot[I, T]
	FilterPages map[string]FilterPageSnapshot[I]

	// Addendum carries manager-specific extensions (e.g. a handle
	// index) opaque to the core persistence layer. Nil unless a wrapping
	// manager sets it.
	Addendum any
}

// Snapshot returns the entity store's current state as a passive
// record.
func (s *EntityStore[I, T]) Snapshot() EntityStoreSnapshot[I, T] {
	dataset := make(map[I]T, len(s.dataset))
	for k, v := range s.dataset {
		dataset[k] = v
	}
	emptyIDs := make([]I, 0, len(s.emptyIDs))
	for id := range s.emptyIDs {
		emptyIDs = append(emptyIDs, id)
	}
	var minID, maxID *I
	if s.minID != nil {
		v := *s.minID
		minID = &v
	}
	if s.maxID != nil {
		v := *s.maxID
		maxID = &v
	}
	return EntityStoreSnapshot[I, T]{
		Dataset:       dataset,
		EmptyIDs:      emptyIDs,
		MinID:         minID,
		MaxID:         maxID,
		KnownCount:    s.knownCount,
		ExpectedTotal: s.expectedTotal,
	}
}

// RestoreEntityStore rebuilds an EntityStore from a snapshot produced
// by Snapshot.
func RestoreEntityStore[I cmp.Ordered, T any](snap EntityStoreSnapshot[I, T], logger Logger) *EntityStore[I, T] {
	s := NewEntityStore[I, T](logger)
	for k, v := range snap.Dataset {
		s.dataset[k] = v
	}
	for _, id := range snap.EmptyIDs {
		s.emptyIDs[id] = struct{}{}
	}
	if snap.MinID != nil {
		v := *snap.MinID
		s.minID = &v
	}
	if snap.MaxID != nil {
		v := *snap.MaxID
		s.maxID = &v
	}
	s.knownCount = snap.KnownCount
	s.expectedTotal = snap.ExpectedTotal
	return s
}

// Snapshot returns the filter-page map's current state as a passive
// record.
func (m *FilterPageMap[I]) Snapshot() FilterPageSnapshot[I] {
	idStorage := make([]*I, len(m.idStorage))
	for i, id := range m.idStorage {
		if id == nil {
			continue
		}
		v := *id
		idStorage[i] = &v
	}
	return FilterPageSnapshot[I]{
		TotalElements:      m.totalElements,
		PageSize:           m.pageSize,
		KnownCount:         m.knownCount,
		IDStorage:          idStorage,
		PopulatedPositions: append([]uint64(nil), m.populatedPositions.words...),
		PopulatedPages:     append([]uint64(nil), m.populatedPages.words...),
	}
}

// RestoreFilterPageMap rebuilds a FilterPageMap from a snapshot produced
// by Snapshot, preserving the bitmaps' exact word patterns.
func RestoreFilterPageMap[I comparable](snap FilterPageSnapshot[I], logger Logger) *FilterPageMap[I] {
	if logger == nil {
		logger = noopLogger{}
	}
	idStorage := make([]*I, len(snap.IDStorage))
	copy(idStorage, snap.IDStorage)
	return &FilterPageMap[I]{
		totalElements:      snap.TotalElements,
		pageSize:           snap.PageSize,
		idStorage:          idStorage,
		populatedPositions: &bitset{words: append([]uint64(nil), snap.PopulatedPositions...)},
		populatedPages:     &bitset{words: append([]uint64(nil), snap.PopulatedPages...)},
		knownCount:         snap.KnownCount,
		logger:             logger,
	}
}

// Snapshot returns the manager's complete state as an immutable passive
// record (spec §4.G, §4.F "snapshot() -> S").
func (m *Manager[I, T]) Snapshot() Snapshot[I, T] {
	m.mu.Lock()
	defer m.mu.Unlock()

	filterPages := make(map[string]FilterPageSnapshot[I], len(m.filterPages))
	for fp, fpm := range m.filterPages {
		filterPages[fp] = fpm.Snapshot()
	}
	return Snapshot[I, T]{
		EntityStore: m.entityStore.Snapshot(),
		FilterPages: filterPages,
	}
}

// RestoreManager inverts Snapshot exactly: a manager built from
// RestoreManager(m.Snapshot(), ...) compares equal to m under
// structural equality of all three snapshot parts (spec §4.G).
func RestoreManager[I cmp.Ordered, T any](snap Snapshot[I, T], opts ...Option[I, T]) *Manager[I, T] {
	m := NewManager[I, T](opts...)
	m.entityStore = RestoreEntityStore[I, T](snap.EntityStore, m.logger)
	for fp, fpSnap := range snap.FilterPages {
		m.filterPages[fp] = RestoreFilterPageMap[I](fpSnap, m.logger)
	}
	return m
}
