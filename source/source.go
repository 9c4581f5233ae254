// Package source defines the data source contract consumed by the
// filtercache core (spec §6 "Data source contract"). Concrete sources
// (an in-memory fixture, a SQL-backed adapter, a remote API client) are
// external collaborators implementing Source; the core never imports
// one directly.
package source

import (
	"context"

	"github.com/lindenhollow/filtercache/filter"
)

// Request describes a multi-page fetch against a source for one filter.
type Request[T any] struct {
	// Filter is the composite predicate defining the result set. A nil
	// Filter is invalid.
	Filter *filter.Composite[T]

	// Pages is the set of 1-based page indices being requested in this
	// batch. Manager sets it to the single page being fetched; the page
	// argument of RequestData names the page to return, and fetch-mode
	// strategies take their page order from their own pages argument,
	// not from this field.
	Pages []int

	// PageSize is the number of items per page. Must be >= 1.
	PageSize int
}

// Response is what a source returns for a single requested page.
type Response[I comparable, T any] struct {
	// Items are this page's entities, in source order. Never nil (an
	// empty page is represented by a zero-length slice).
	Items []T

	// IDs are the stable identifiers of Items, same order, same length.
	IDs []I

	// Page and PageSize echo the request.
	Page     int
	PageSize int

	// TotalFiltered is the number of entities matching Filter, as
	// reported by the source.
	TotalFiltered int

	// TotalDataset is the number of entities in the underlying source,
	// irrespective of Filter.
	TotalDataset int
}

// Source abstracts a paging data source: a database, a remote API, or an
// in-memory fixture. Pages are 1-based; an out-of-range page returns an
// empty Response with correct totals rather than an error.
type Source[I comparable, T any] interface {
	// RequestData fetches a single page described by req and page. It
	// returns an error for invalid input (nil filter, page <= 0) or when
	// the underlying retrieval fails.
	RequestData(ctx context.Context, req Request[T], page int) (Response[I, T], error)
}
