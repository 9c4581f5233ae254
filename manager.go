package filtercache

import (
	"cmp"
	"context"
	"sync"

	"github.com/lindenhollow/filtercache/fcerr"
	"github.com/lindenhollow/filtercache/fetchmode"
	"github.com/lindenhollow/filtercache/filter"
	"github.com/lindenhollow/filtercache/prefetch"
	"github.com/lindenhollow/filtercache/source"
)

// OnInsert is invoked exactly once per genuinely new id observed by the
// entity store.
type OnInsert[I comparable, T any] func(id I, entity T)

// Manager orchestrates the filter algebra, entity store, filter-page
// maps, prefetch strategy and fetch-mode strategy behind a single
// public API (component F, spec §4.F). A Manager is safe for
// concurrent use: every mutation of the entity store or the filter-page
// registry happens under a single mutex, the design the spec
// recommends as the simplest correct option (§5).
type Manager[I cmp.Ordered, T any] struct {
	mu sync.Mutex

	entityStore  *EntityStore[I, T]
	filterPages  map[string]*FilterPageMap[I]
	prefetch     prefetch.Strategy
	fetchMode    fetchmode.Strategy
	onInsert     OnInsert[I, T]
	logger       Logger
}

// Option configures a Manager at construction time.
type Option[I cmp.Ordered, T any] func(*Manager[I, T])

// WithPrefetchStrategy overrides the default ImmediateAround(1,1)
// prefetch strategy.
func WithPrefetchStrategy[I cmp.Ordered, T any](s prefetch.Strategy) Option[I, T] {
	return func(m *Manager[I, T]) { m.prefetch = s }
}

// WithFetchMode overrides the default Simple fetch mode.
func WithFetchMode[I cmp.Ordered, T any](s fetchmode.Strategy) Option[I, T] {
	return func(m *Manager[I, T]) { m.fetchMode = s }
}

// WithOnInsert registers a callback invoked once per newly observed id.
func WithOnInsert[I cmp.Ordered, T any](fn OnInsert[I, T]) Option[I, T] {
	return func(m *Manager[I, T]) { m.onInsert = fn }
}

// WithLogger overrides the default no-op logger.
func WithLogger[I cmp.Ordered, T any](l Logger) Option[I, T] {
	return func(m *Manager[I, T]) { m.logger = l }
}

// NewManager builds a Manager with an empty entity store, an empty
// filter-map registry, ImmediateAround(1,1) prefetch and Simple fetch
// mode -- the spec's default construction (§4.F) -- then applies opts.
func NewManager[I cmp.Ordered, T any](opts ...Option[I, T]) *Manager[I, T] {
	m := &Manager[I, T]{
		filterPages: make(map[string]*FilterPageMap[I]),
		prefetch:    prefetch.ImmediateAround,
		fetchMode:   fetchmode.Simple{},
		logger:      noopLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.entityStore = NewEntityStore[I, T](m.logger)
	return m
}

// GetData implements the spec §4.F getData algorithm: look up the
// filter-page map by fingerprint, serve from cache when the requested
// page is fully populated both positionally and in the entity store,
// otherwise fetch it, then consult the prefetch strategy for
// additional pages before returning the requested page's entities.
func (m *Manager[I, T]) GetData(ctx context.Context, f *filter.Composite[T], page, pageSize int, src source.Source[I, T]) ([]T, error) {
	if f == nil {
		return nil, fcerr.Invalid("manager: filter must not be nil")
	}
	if page < 1 {
		return nil, fcerr.Invalid("manager: page must be >= 1, got %d", page)
	}
	if pageSize < 1 {
		return nil, fcerr.Invalid("manager: pageSize must be >= 1, got %d", pageSize)
	}

	fp := f.Fingerprint()

	if !m.isPageCached(fp, page) {
		fetchOne := func(ctx context.Context, p int) (source.Response[I, T], error) {
			return src.RequestData(ctx, source.Request[T]{Filter: f, Pages: []int{p}, PageSize: pageSize}, p)
		}
		resp, err := fetchmode.FetchOne[I, T](ctx, m.fetchMode, page, fetchOne)
		if err != nil {
			return nil, err
		}
		m.apply(fp, page, pageSize, resp)
	}

	m.mu.Lock()
	M := m.filterPages[fp]
	alreadyCached := M.PagesAlreadyCached()
	totalPages := M.TotalPages()
	m.mu.Unlock()

	prefetchPages, err := m.prefetch.PagesToFetch(page, alreadyCached, totalPages)
	if err != nil {
		return nil, err
	}

	if len(prefetchPages) > 0 {
		fetchOne := func(ctx context.Context, p int) (source.Response[I, T], error) {
			return src.RequestData(ctx, source.Request[T]{Filter: f, Pages: []int{p}, PageSize: pageSize}, p)
		}
		responses, err := fetchmode.FetchMany[I, T](ctx, m.fetchMode, prefetchPages, fetchOne)
		if err != nil {
			return nil, err
		}
		for i, resp := range responses {
			m.apply(fp, prefetchPages[i], pageSize, resp)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	M = m.filterPages[fp]
	return m.entityStore.Get(idValues(M.GetIDList(page))), nil
}

// isPageCached reports whether page is both fully populated in the
// named filter-page map and every id it records is present in the
// entity store (spec §4.F step 2).
func (m *Manager[I, T]) isPageCached(fp string, page int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	M, ok := m.filterPages[fp]
	if !ok || !M.IsPageFullyCached(page) {
		return false
	}
	for _, id := range M.GetIDList(page) {
		if id == nil || !m.entityStore.Contains(*id) {
			return false
		}
	}
	return true
}

// apply is the single cache-update action: it creates the filter-page
// map on first observation of a fingerprint, writes the response's ids
// into it, and folds the response's entities into the entity store.
// This is the only place concurrent mutation occurs (parallel fetch
// mode), hence the mutex (spec §5).
func (m *Manager[I, T]) apply(fp string, page, pageSize int, resp source.Response[I, T]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	M, ok := m.filterPages[fp]
	if !ok {
		var err error
		M, err = NewFilterPageMap[I](resp.TotalFiltered, pageSize, m.logger)
		if err != nil {
			// TotalFiltered came from the source; treat a negative value
			// defensively as an empty result rather than panicking.
			M, _ = NewFilterPageMap[I](0, pageSize, m.logger)
		}
		m.filterPages[fp] = M
	} else {
		M.CheckTotalDrift(fp, resp.TotalFiltered)
	}

	ptrIDs := make([]*I, len(resp.IDs))
	for i := range resp.IDs {
		id := resp.IDs[i]
		ptrIDs[i] = &id
	}
	_ = M.UpdateData(ptrIDs, page)

	m.entityStore.UpdateFromPage(resp.Items, resp.IDs, resp.TotalDataset, m.onInsert)
}

// FindByID looks up entities directly in the entity store, skipping
// any id with no known entity.
func (m *Manager[I, T]) FindByID(ids []I) []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entityStore.Get(ids)
}

// CachedData returns every entity currently held by the entity store.
func (m *Manager[I, T]) CachedData() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entityStore.AllValues()
}

func idValues[I any](ids []*I) []I {
	out := make([]I, 0, len(ids))
	for _, id := range ids {
		if id != nil {
			out = append(out, *id)
		}
	}
	return out
}
