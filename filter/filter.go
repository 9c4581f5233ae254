// Package filter implements the composite predicate algebra used to key
// the dataset cache: field bindings over a process-wide resolver
// registry, combined into a conjunction whose fingerprint is stable
// across permutation and across process runs.
//
// The shape mirrors the teacher's cursor.Schema[T]: named, typed field
// specs collected into a builder, validated against a registry at build
// time rather than at every Test call.
package filter

import (
	"sort"
	"strings"

	"github.com/lindenhollow/filtercache/fcerr"
)

// FieldFilter is a single-value predicate over a resolved field value.
// Implementations report a stable Key used in fingerprinting.
type FieldFilter interface {
	// Key identifies the filter kind ("equals", "contains", "min", "max",
	// or a pluggable custom key).
	Key() string

	// Value returns the stored comparison value, formatted for the
	// fingerprint token. It must be stable and deterministic.
	Value() string

	// Test reports whether the observed field value satisfies this
	// filter.
	Test(observed any) bool
}

// Resolver extracts a field's value from an entity of type T.
type Resolver[T any] func(entity T) any

// Binding ties a field name to a field filter and the resolver used to
// extract the observed value from an entity.
type Binding[T any] struct {
	Field    string
	Filter   FieldFilter
	Resolver Resolver[T]
}

// Composite is the conjunction of zero or more bindings: it evaluates to
// true iff every binding is true, and its Fingerprint is a pure,
// order-independent function of the binding set.
type Composite[T any] struct {
	bindings []Binding[T]
}

// NewComposite builds a Composite from the given bindings. It is the
// caller's responsibility to supply resolvers consistent with the
// registry (see NewBuilder and Builder.Build for the validated path).
func NewComposite[T any](bindings ...Binding[T]) *Composite[T] {
	c := &Composite[T]{bindings: make([]Binding[T], len(bindings))}
	copy(c.bindings, bindings)
	return c
}

// Test evaluates the composite predicate against an entity. Evaluation
// short-circuits on the first failing binding.
func (c *Composite[T]) Test(entity T) bool {
	for _, b := range c.bindings {
		observed := b.Resolver(entity)
		if !b.Filter.Test(observed) {
			return false
		}
	}
	return true
}

// Fingerprint returns the canonical cache key for this composite: the
// concatenation of "fieldName:filterKey:filterValue" tokens for each
// binding, sorted lexicographically and joined by "|". An empty
// composite returns the empty string. Fingerprint is a pure function of
// the binding set: permuting the binding list or evaluating repeatedly
// never changes the result.
func (c *Composite[T]) Fingerprint() string {
	if len(c.bindings) == 0 {
		return ""
	}
	tokens := make([]string, len(c.bindings))
	for i, b := range c.bindings {
		tokens[i] = b.Field + ":" + b.Filter.Key() + ":" + b.Filter.Value()
	}
	sort.Strings(tokens)
	return strings.Join(tokens, "|")
}

// Bindings returns a copy of the composite's binding list.
func (c *Composite[T]) Bindings() []Binding[T] {
	out := make([]Binding[T], len(c.bindings))
	copy(out, c.bindings)
	return out
}

// typeChecker is a hook field filters may optionally implement to
// report that a resolved value's dynamic type isn't one they accept.
// The zero value (not implementing it) means "never mismatches" -- Test
// simply returns false for values it can't compare.
type typeChecker interface {
	Accepts(observed any) bool
}

// Validate walks the composite's bindings and returns a
// fcerr.ErrResolverTypeMismatch-wrapped error for the first binding whose
// filter declines the type of a probe value. Callers that want
// build-time type checking (spec §7's resolver-type-mismatch kind)
// should call Validate with a representative sample entity immediately
// after building a Composite from user input.
func (c *Composite[T]) Validate(probe T) error {
	for _, b := range c.bindings {
		tc, ok := b.Filter.(typeChecker)
		if !ok {
			continue
		}
		observed := b.Resolver(probe)
		if !tc.Accepts(observed) {
			return fcerr.ResolverTypeMismatch(b.Field, b.Filter.Key())
		}
	}
	return nil
}
