package filter

import (
	"fmt"
	"strings"
)

// Ordered is satisfied by any value a Min/Max filter can compare.
type Ordered interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64 | ~string
}

// equalsFilter implements object-equality comparison. A nil stored value
// only matches a nil observed value.
type equalsFilter[V comparable] struct {
	stored V
}

// Equals builds a FieldFilter that matches when the observed value
// equals the stored value.
func Equals[V comparable](value V) FieldFilter {
	return &equalsFilter[V]{stored: value}
}

func (f *equalsFilter[V]) Key() string   { return "equals" }
func (f *equalsFilter[V]) Value() string { return fmt.Sprintf("%v", f.stored) }

func (f *equalsFilter[V]) Test(observed any) bool {
	if observed == nil {
		// equals(null, null) = true; equals(x, null) = false for any
		// concrete stored value -- only a stored nil interface/pointer
		// can satisfy this branch.
		return any(f.stored) == nil
	}
	v, ok := observed.(V)
	if !ok {
		return false
	}
	return v == f.stored
}

func (f *equalsFilter[V]) Accepts(observed any) bool {
	if observed == nil {
		return true
	}
	_, ok := observed.(V)
	return ok
}

// containsFilter implements substring matching. An observed value that
// isn't a string, or is the empty interface's nil, never matches.
type containsFilter struct {
	stored string
}

// Contains builds a FieldFilter that matches when the observed string
// contains the stored substring.
func Contains(substr string) FieldFilter {
	return &containsFilter{stored: substr}
}

func (f *containsFilter) Key() string   { return "contains" }
func (f *containsFilter) Value() string { return f.stored }

func (f *containsFilter) Test(observed any) bool {
	if observed == nil {
		return false
	}
	s, ok := observed.(string)
	if !ok {
		return false
	}
	return strings.Contains(s, f.stored)
}

func (f *containsFilter) Accepts(observed any) bool {
	if observed == nil {
		return true
	}
	_, ok := observed.(string)
	return ok
}

// minFilter implements "stored <= observed".
type minFilter[V Ordered] struct {
	stored V
}

// Min builds a FieldFilter that matches when stored <= observed.
func Min[V Ordered](value V) FieldFilter {
	return &minFilter[V]{stored: value}
}

func (f *minFilter[V]) Key() string   { return "min" }
func (f *minFilter[V]) Value() string { return fmt.Sprintf("%v", f.stored) }

func (f *minFilter[V]) Test(observed any) bool {
	if observed == nil {
		return false
	}
	v, ok := observed.(V)
	if !ok {
		return false
	}
	return f.stored <= v
}

func (f *minFilter[V]) Accepts(observed any) bool {
	if observed == nil {
		return true
	}
	_, ok := observed.(V)
	return ok
}

// maxFilter implements "stored >= observed".
type maxFilter[V Ordered] struct {
	stored V
}

// Max builds a FieldFilter that matches when stored >= observed.
func Max[V Ordered](value V) FieldFilter {
	return &maxFilter[V]{stored: value}
}

func (f *maxFilter[V]) Key() string   { return "max" }
func (f *maxFilter[V]) Value() string { return fmt.Sprintf("%v", f.stored) }

func (f *maxFilter[V]) Test(observed any) bool {
	if observed == nil {
		return false
	}
	v, ok := observed.(V)
	if !ok {
		return false
	}
	return f.stored >= v
}

func (f *maxFilter[V]) Accepts(observed any) bool {
	if observed == nil {
		return true
	}
	_, ok := observed.(V)
	return ok
}
