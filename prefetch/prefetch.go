// Package prefetch implements the strategy pattern that chooses which
// pages to load around a requested page, per spec §4.D. Implementations
// are interchangeable behind the Strategy interface, the same way the
// teacher keeps offset, cursor, and quota-fill pagination behind a
// single Paginator[T] interface.
package prefetch

import (
	"sort"

	"github.com/lindenhollow/filtercache/fcerr"
)

// Strategy chooses which pages to prefetch around a requested page.
type Strategy interface {
	// PagesToFetch returns the pages that should be loaded, given the
	// requested page, the set of pages already fully cached, and the
	// total number of pages. The returned pages are a subset of
	// [1, totalPages] disjoint from alreadyCached, in ascending order.
	PagesToFetch(requestedPage int, alreadyCached map[int]bool, totalPages int) ([]int, error)
}

func validate(requestedPage int, alreadyCached map[int]bool, totalPages int) error {
	if totalPages < 1 {
		return fcerr.Invalid("prefetch: totalPages must be >= 1, got %d", totalPages)
	}
	if requestedPage < 1 || requestedPage > totalPages {
		return fcerr.Invalid("prefetch: requestedPage %d out of range [1, %d]", requestedPage, totalPages)
	}
	for p, cached := range alreadyCached {
		if cached && (p < 1 || p > totalPages) {
			return fcerr.Invalid("prefetch: cached page %d out of range [1, %d]", p, totalPages)
		}
	}
	return nil
}

// AroundRequested prefetches a window of pages before and after the
// requested page: [max(1, requested-Before), min(totalPages,
// requested+After)], minus whatever is already cached.
type AroundRequested struct {
	Before int
	After  int
}

// ImmediateAround is the canonical AroundRequested(1, 1) strategy.
var ImmediateAround Strategy = AroundRequested{Before: 1, After: 1}

// PagesToFetch implements Strategy.
func (s AroundRequested) PagesToFetch(requestedPage int, alreadyCached map[int]bool, totalPages int) ([]int, error) {
	if err := validate(requestedPage, alreadyCached, totalPages); err != nil {
		return nil, err
	}
	if s.Before < 0 || s.After < 0 {
		return nil, fcerr.Invalid("prefetch: AroundRequested window must be non-negative, got before=%d after=%d", s.Before, s.After)
	}

	low := requestedPage - s.Before
	if low < 1 {
		low = 1
	}
	high := requestedPage + s.After
	if high > totalPages {
		high = totalPages
	}

	var pages []int
	for p := low; p <= high; p++ {
		if !alreadyCached[p] {
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)
	return pages, nil
}

// HeadOnly always prefetches page 1 alone (when it isn't already
// cached). It's useful for sources where later pages are rarely
// revisited and the cost of prefetching should be minimized.
type HeadOnly struct{}

// PagesToFetch implements Strategy.
func (HeadOnly) PagesToFetch(requestedPage int, alreadyCached map[int]bool, totalPages int) ([]int, error) {
	if err := validate(requestedPage, alreadyCached, totalPages); err != nil {
		return nil, err
	}
	if alreadyCached[1] {
		return nil, nil
	}
	return []int{1}, nil
}
