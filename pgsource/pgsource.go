// Package pgsource adapts a PostgreSQL table, queried through
// SQLBoiler, into a source.Source. It is grounded on the teacher's own
// sqlboiler.Fetcher (sqlboiler/fetcher.go): a generic query/count pair
// supplied by the caller, here additionally driven by a
// filter.Composite translated into SQLBoiler query mods rather than a
// fixed offset/limit request.
package pgsource

import (
	"context"
	"fmt"
	"strings"

	"github.com/aarondl/sqlboiler/v4/queries/qm"
	"github.com/aarondl/strmangle"

	"github.com/lindenhollow/filtercache/fcerr"
	"github.com/lindenhollow/filtercache/filter"
	"github.com/lindenhollow/filtercache/source"
)

// QueryFunc runs a SQLBoiler query built from mods and scans the
// matching rows into T. Generated model query builders such as
// models.Users(mods...).All(ctx, db) satisfy this signature directly.
type QueryFunc[T any] func(ctx context.Context, mods ...qm.QueryMod) ([]T, error)

// CountFunc runs the matching COUNT(*) for the given mods. Source
// passes it only the WHERE mods built from the filter (no Offset or
// Limit), and no mods at all when counting the whole dataset.
type CountFunc func(ctx context.Context, mods ...qm.QueryMod) (int64, error)

// IDFunc extracts the stable identifier from a fetched row.
type IDFunc[I comparable, T any] func(row T) I

// fieldColumn maps a filter's field name to a column to quote into SQL.
// By default the field name is used verbatim.
type fieldColumn func(field string) string

// Source implements source.Source by translating a filter.Composite
// into SQLBoiler WHERE mods plus Offset/Limit, the same division of
// labour as the teacher's OffsetToQueryMods.
type Source[I comparable, T any] struct {
	query  QueryFunc[T]
	count  CountFunc
	idOf   IDFunc[I, T]
	column fieldColumn
}

// Option configures a Source.
type Option[I comparable, T any] func(*Source[I, T])

// WithColumnMapping overrides the default field-name-is-column-name
// mapping, for entities whose filter field names differ from their
// database columns.
func WithColumnMapping[I comparable, T any](mapping map[string]string) Option[I, T] {
	return func(s *Source[I, T]) {
		s.column = func(field string) string {
			if col, ok := mapping[field]; ok {
				return col
			}
			return field
		}
	}
}

// New builds a Source over a SQLBoiler-generated table's query/count
// functions.
func New[I comparable, T any](query QueryFunc[T], count CountFunc, idOf IDFunc[I, T], opts ...Option[I, T]) *Source[I, T] {
	s := &Source[I, T]{
		query:  query,
		count:  count,
		idOf:   idOf,
		column: func(field string) string { return field },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestData implements source.Source.
func (s *Source[I, T]) RequestData(ctx context.Context, req source.Request[T], page int) (source.Response[I, T], error) {
	if req.Filter == nil {
		return source.Response[I, T]{}, fcerr.Invalid("pgsource: filter must not be nil")
	}
	if page < 1 {
		return source.Response[I, T]{}, fcerr.Invalid("pgsource: page must be >= 1, got %d", page)
	}
	if req.PageSize < 1 {
		return source.Response[I, T]{}, fcerr.Invalid("pgsource: page size must be >= 1, got %d", req.PageSize)
	}

	whereMods, err := s.whereMods(req.Filter)
	if err != nil {
		return source.Response[I, T]{}, err
	}

	totalFiltered, err := s.count(ctx, whereMods...)
	if err != nil {
		return source.Response[I, T]{}, fcerr.SourceFailure(err)
	}
	totalDataset, err := s.count(ctx)
	if err != nil {
		return source.Response[I, T]{}, fcerr.SourceFailure(err)
	}

	pageMods := append(append([]qm.QueryMod{}, whereMods...),
		qm.Offset((page-1)*req.PageSize),
		qm.Limit(req.PageSize),
	)
	rows, err := s.query(ctx, pageMods...)
	if err != nil {
		return source.Response[I, T]{}, fcerr.SourceFailure(err)
	}

	ids := make([]I, len(rows))
	for i, row := range rows {
		ids[i] = s.idOf(row)
	}

	return source.Response[I, T]{
		Items:         rows,
		IDs:           ids,
		Page:          page,
		PageSize:      req.PageSize,
		TotalFiltered: int(totalFiltered),
		TotalDataset:  int(totalDataset),
	}, nil
}

// whereMods translates every binding of f into a qm.Where mod. Binding
// order is preserved; SQLBoiler ANDs successive qm.Where calls.
func (s *Source[I, T]) whereMods(f *filter.Composite[T]) ([]qm.QueryMod, error) {
	mods := make([]qm.QueryMod, 0, len(f.Bindings()))
	for _, b := range f.Bindings() {
		col := strmangle.IdentQuote('"', '"', s.column(b.Field))
		clause, arg, err := clauseFor(col, b.Filter)
		if err != nil {
			return nil, err
		}
		mods = append(mods, qm.Where(clause, arg))
	}
	return mods, nil
}

// clauseFor maps a field filter's key to the SQL operator the teacher's
// binary comparisons use, per its Value() representation.
func clauseFor(column string, ff filter.FieldFilter) (string, string, error) {
	switch ff.Key() {
	case "equals":
		return fmt.Sprintf("%s = ?", column), ff.Value(), nil
	case "contains":
		return fmt.Sprintf("%s LIKE ?", column), "%" + strings.ReplaceAll(ff.Value(), "%", `\%`) + "%", nil
	case "min":
		return fmt.Sprintf("%s >= ?", column), ff.Value(), nil
	case "max":
		return fmt.Sprintf("%s <= ?", column), ff.Value(), nil
	default:
		return "", "", fcerr.Invalid("pgsource: unsupported filter key %q", ff.Key())
	}
}
