// Package memsource provides an in-memory source.Source, useful for
// tests and the demo command. It applies a filter.Composite in process
// and slices the result positionally, the same contract a database
// adapter must honour, grounded on the teacher's plain-struct model
// style rather than any live query builder.
package memsource

import (
	"context"
	"sort"

	"github.com/lindenhollow/filtercache/fcerr"
	"github.com/lindenhollow/filtercache/source"
)

// IDFunc extracts the stable identifier from an entity.
type IDFunc[I comparable, T any] func(entity T) I

// Source is a fixed, ordered, in-memory dataset. It is not safe for
// concurrent writes against reads.
type Source[I comparable, T any] struct {
	items []T
	idOf  IDFunc[I, T]
}

// New builds a Source over items, in the order given. idOf extracts
// each item's identifier.
func New[I comparable, T any](items []T, idOf IDFunc[I, T]) *Source[I, T] {
	out := make([]T, len(items))
	copy(out, items)
	return &Source[I, T]{items: out, idOf: idOf}
}

// RequestData implements source.Source. Pages are 1-based; an
// out-of-range page returns an empty item list with correct totals.
func (s *Source[I, T]) RequestData(_ context.Context, req source.Request[T], page int) (source.Response[I, T], error) {
	if req.Filter == nil {
		return source.Response[I, T]{}, fcerr.Invalid("memsource: filter must not be nil")
	}
	if page < 1 {
		return source.Response[I, T]{}, fcerr.Invalid("memsource: page must be >= 1, got %d", page)
	}
	if req.PageSize < 1 {
		return source.Response[I, T]{}, fcerr.Invalid("memsource: page size must be >= 1, got %d", req.PageSize)
	}

	matched := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if req.Filter.Test(item) {
			matched = append(matched, item)
		}
	}

	lo := (page - 1) * req.PageSize
	hi := lo + req.PageSize
	if hi > len(matched) {
		hi = len(matched)
	}

	pageItems := []T{}
	if lo < len(matched) && lo < hi {
		pageItems = matched[lo:hi]
	}

	ids := make([]I, len(pageItems))
	for i, item := range pageItems {
		ids[i] = s.idOf(item)
	}

	return source.Response[I, T]{
		Items:         pageItems,
		IDs:           ids,
		Page:          page,
		PageSize:      req.PageSize,
		TotalFiltered: len(matched),
		TotalDataset:  len(s.items),
	}, nil
}

// SortByID returns a copy of items stable-sorted ascending by less,
// typically a comparison of the items' identifiers. Sources in this package preserve
// whatever order their items are constructed with, so callers that want
// a stable id order should sort before calling New.
func SortByID[I comparable, T any](items []T, less func(a, b T) bool) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

var _ source.Source[int, any] = (*Source[int, any])(nil)
