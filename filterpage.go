package filtercache

import (
	"github.com/lindenhollow/filtercache/fcerr"
)

// FilterPageMap is the positional cache of identifiers for one filter
// fingerprint (component C, spec §3/§4.C): a fixed-length slot array
// sized by the filtered result's total element count, plus two bitmaps
// separating the cheap page-level question from the precise per-slot
// one.
type FilterPageMap[I comparable] struct {
	totalElements      int
	pageSize           int
	idStorage          []*I
	populatedPositions *bitset
	populatedPages     *bitset
	knownCount         int

	logger Logger
}

// NewFilterPageMap creates a FilterPageMap sized for totalElements
// entries at the given pageSize. totalElements must be >= 0; pageSize
// must be >= 1.
func NewFilterPageMap[I comparable](totalElements, pageSize int, logger Logger) (*FilterPageMap[I], error) {
	if totalElements < 0 {
		return nil, fcerr.Invalid("filterpage: totalElements must be >= 0, got %d", totalElements)
	}
	if pageSize < 1 {
		return nil, fcerr.Invalid("filterpage: pageSize must be >= 1, got %d", pageSize)
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &FilterPageMap[I]{
		totalElements:      totalElements,
		pageSize:           pageSize,
		idStorage:          make([]*I, totalElements),
		populatedPositions: newBitset(totalElements),
		populatedPages:     newBitset(totalPagesFor(totalElements, pageSize)),
		logger:             logger,
	}, nil
}

func totalPagesFor(totalElements, pageSize int) int {
	if totalElements == 0 {
		return 1
	}
	return (totalElements + pageSize - 1) / pageSize
}

// TotalElements returns the immutable size of the filtered result set.
func (m *FilterPageMap[I]) TotalElements() int { return m.totalElements }

// CheckTotalDrift logs a warning if reported differs from the
// totalElements this map was created with (spec §7 "progress-drift").
// The map's slot layout is fixed at construction, so the original
// totalElements is always kept; this only surfaces the mismatch.
func (m *FilterPageMap[I]) CheckTotalDrift(fingerprint string, reported int) {
	if reported == m.totalElements {
		return
	}
	m.logger.Warn("filterpage: totalFiltered drift for cached fingerprint",
		"fingerprint", fingerprint, "original", m.totalElements, "reported", reported)
}

// KnownCount returns popcount(populatedPositions).
func (m *FilterPageMap[I]) KnownCount() int { return m.knownCount }

func (m *FilterPageMap[I]) pageBounds(page int) (lo, hi int) {
	lo = (page - 1) * m.pageSize
	hi = page * m.pageSize
	if hi > m.totalElements {
		hi = m.totalElements
	}
	return lo, hi
}

// GetIDList returns an immutable copy of idStorage[(page-1)*pageSize :
// min(page*pageSize, totalElements)]. An out-of-range page returns an
// empty list. Unfilled slots appear as nil.
func (m *FilterPageMap[I]) GetIDList(page int) []*I {
	if page < 1 {
		return nil
	}
	lo, hi := m.pageBounds(page)
	if lo >= m.totalElements || lo >= hi {
		return nil
	}
	out := make([]*I, hi-lo)
	copy(out, m.idStorage[lo:hi])
	return out
}

// UpdateData writes newIds into the slots for page, starting at
// (page-1)*pageSize, bounded by the page length and totalElements. Each
// non-nil id written to a previously unpopulated slot increments
// knownCount; already-populated slots are overwritten without
// double-counting. If every slot in the page's window ends up populated,
// populatedPages is set for that page. A nil or empty newIds is a
// no-op; page < 1 is an error.
func (m *FilterPageMap[I]) UpdateData(newIds []*I, page int) error {
	if len(newIds) == 0 {
		return nil
	}
	if page < 1 {
		return fcerr.Invalid("filterpage: page must be >= 1, got %d", page)
	}

	lo, hi := m.pageBounds(page)
	if lo >= m.totalElements {
		return nil
	}

	n := hi - lo
	if n > len(newIds) {
		n = len(newIds)
	}

	for i := 0; i < n; i++ {
		slot := lo + i
		id := newIds[i]
		if id == nil {
			continue
		}
		if m.idStorage[slot] == nil {
			m.knownCount++
		}
		m.idStorage[slot] = id
		m.populatedPositions.set(slot)
	}

	if m.populatedPositions.testRange(lo, hi) {
		m.populatedPages.set(page - 1)
	}
	return nil
}

// IsPageFullyCached reports whether every slot in page's range is
// populated. This consults populatedPositions directly, not
// populatedPages, because the per-page bitmap can be stale when the
// final page is shorter than pageSize (spec §9 note #3).
func (m *FilterPageMap[I]) IsPageFullyCached(page int) bool {
	if page < 1 {
		return false
	}
	lo, hi := m.pageBounds(page)
	if lo >= m.totalElements {
		return lo == m.totalElements // an empty result set: page 1 of 0 elements is trivially cached
	}
	return m.populatedPositions.testRange(lo, hi)
}

// PagesAlreadyCached returns the 1-based indices of pages whose bit is
// set in populatedPages.
func (m *FilterPageMap[I]) PagesAlreadyCached() map[int]bool {
	out := make(map[int]bool)
	for _, bit := range m.populatedPages.setBits() {
		out[bit+1] = true
	}
	return out
}

// TotalPages returns max(1, ceil(totalElements / pageSize)).
func (m *FilterPageMap[I]) TotalPages() int {
	return totalPagesFor(m.totalElements, m.pageSize)
}
