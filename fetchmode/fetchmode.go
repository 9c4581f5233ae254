// Package fetchmode implements the strategy pattern that governs how a
// batch of pages is actually retrieved from a source, per spec §4.E:
// sequentially, one request after another, or concurrently with bounded
// width. The separation mirrors the teacher's quotafill.Wrapper, which
// keeps its paginationState bookkeeping independent of how a single
// page gets fetched.
package fetchmode

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/lindenhollow/filtercache/fcerr"
	"github.com/lindenhollow/filtercache/source"
)

// FetchFunc retrieves a single page. Manager supplies a closure over its
// own source, filter, and page size; fetchmode strategies never import
// source.Source directly so they stay decoupled from its generic
// parameters at the call site.
type FetchFunc[I comparable, T any] func(ctx context.Context, page int) (source.Response[I, T], error)

// Strategy fetches one page, or many pages as a batch. Manager routes
// every page fetch -- the mandatory requested page as well as prefetch
// pages -- through a Strategy rather than calling a source directly, so
// a custom strategy (retry, circuit breaker, instrumentation) sees every
// fetch the manager makes (spec §4.E, §9).
type Strategy interface {
	// FetchOne retrieves a single page.
	FetchOne(ctx context.Context, page int, fetch AnyFetchFunc) (AnyResponse, error)

	// FetchMany retrieves every page in pages, returning responses in the
	// same order. If any page's fetch fails, FetchMany returns the first
	// error encountered (order among concurrent failures is unspecified)
	// and no partial results.
	FetchMany(ctx context.Context, pages []int, fetch AnyFetchFunc) ([]AnyResponse, error)
}

// AnyFetchFunc and AnyResponse let Strategy stay a plain (non-generic)
// interface -- Go methods cannot carry their own type parameters, so the
// generic FetchFunc/Response types are erased to `any`-carrying shims at
// the Strategy boundary and restored by the generic helpers below.
type AnyFetchFunc func(ctx context.Context, page int) (any, error)
type AnyResponse struct {
	Page   int
	Result any
}

// FetchOne is the generic entry point Manager calls for a single page:
// it adapts a typed FetchFunc to the Strategy interface and restores the
// typed response on the way out.
func FetchOne[I comparable, T any](ctx context.Context, s Strategy, page int, fetch FetchFunc[I, T]) (source.Response[I, T], error) {
	shim := func(ctx context.Context, page int) (any, error) {
		return fetch(ctx, page)
	}
	raw, err := s.FetchOne(ctx, page, shim)
	if err != nil {
		return source.Response[I, T]{}, err
	}
	return raw.Result.(source.Response[I, T]), nil
}

// FetchMany is the generic entry point Manager calls: it adapts a typed
// FetchFunc to the Strategy interface and restores typed responses on
// the way out.
func FetchMany[I comparable, T any](ctx context.Context, s Strategy, pages []int, fetch FetchFunc[I, T]) ([]source.Response[I, T], error) {
	shim := func(ctx context.Context, page int) (any, error) {
		return fetch(ctx, page)
	}
	raw, err := s.FetchMany(ctx, pages, shim)
	if err != nil {
		return nil, err
	}
	out := make([]source.Response[I, T], len(raw))
	for i, r := range raw {
		out[i] = r.Result.(source.Response[I, T])
	}
	return out, nil
}

// Simple fetches pages one at a time, in order. It is the default and
// the right choice for sources that are cheap per call or that don't
// tolerate concurrent access.
type Simple struct{}

// FetchOne implements Strategy.
func (Simple) FetchOne(ctx context.Context, page int, fetch AnyFetchFunc) (AnyResponse, error) {
	res, err := fetch(ctx, page)
	if err != nil {
		return AnyResponse{}, fcerr.SourceFailure(err)
	}
	return AnyResponse{Page: page, Result: res}, nil
}

// FetchMany implements Strategy.
func (Simple) FetchMany(ctx context.Context, pages []int, fetch AnyFetchFunc) ([]AnyResponse, error) {
	out := make([]AnyResponse, 0, len(pages))
	for _, page := range pages {
		res, err := fetch(ctx, page)
		if err != nil {
			return nil, fcerr.SourceFailure(err)
		}
		out = append(out, AnyResponse{Page: page, Result: res})
	}
	return out, nil
}

// Parallel fetches pages concurrently with a bounded number of
// in-flight requests, via golang.org/x/sync/errgroup and
// golang.org/x/sync/semaphore. Both are created afresh by each FetchMany
// call; nothing outlives the call, so Parallel needs no shutdown.
type Parallel struct {
	// Width is the maximum number of concurrent fetches. Defaults to 4
	// when <= 0.
	Width int
}

// FetchOne implements Strategy. A single page has nothing to bound
// concurrency against, so it's fetched directly.
func (Parallel) FetchOne(ctx context.Context, page int, fetch AnyFetchFunc) (AnyResponse, error) {
	res, err := fetch(ctx, page)
	if err != nil {
		return AnyResponse{}, fcerr.SourceFailure(err)
	}
	return AnyResponse{Page: page, Result: res}, nil
}

// FetchMany implements Strategy.
func (p Parallel) FetchMany(ctx context.Context, pages []int, fetch AnyFetchFunc) ([]AnyResponse, error) {
	width := p.Width
	if width <= 0 {
		width = 4
	}

	sem := semaphore.NewWeighted(int64(width))
	g, ctx := errgroup.WithContext(ctx)

	out := make([]AnyResponse, len(pages))
	for i, page := range pages {
		i, page := i, page
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, fcerr.SourceFailure(err)
		}
		g.Go(func() error {
			defer sem.Release(1)
			res, err := fetch(ctx, page)
			if err != nil {
				return fcerr.SourceFailure(err)
			}
			out[i] = AnyResponse{Page: page, Result: res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
