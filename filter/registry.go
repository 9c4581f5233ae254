package filter

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/lindenhollow/filtercache/fcerr"
)

// registryKey identifies a resolver by the entity type it resolves
// fields for and the field name.
type registryKey struct {
	entityType string
	field      string
}

// Registry is the process-wide (entityType, fieldName) -> resolver
// table described in spec §4.A/§9. Re-registration under a key that
// already has a resolver logs a warning and replaces the prior entry,
// whether or not the new resolver differs; lookup failure
// is surfaced as fcerr.ErrUnknownField at build time.
//
// The zero value is not usable; use NewRegistry. A Registry is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[registryKey]any
	logger    *slog.Logger
}

// NewRegistry creates an empty Registry. If logger is nil, slog.Default
// is used for the warn-on-replace log line.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		resolvers: make(map[registryKey]any),
		logger:    logger,
	}
}

// Register installs a resolver for (entityType, field). Re-registration
// under the same key logs a warning and replaces the prior resolver;
// this weak contract is preserved for parity with the source system and
// is worth flagging to operators (spec §9).
func Register[T any](r *Registry, entityType, field string, resolver Resolver[T]) {
	key := registryKey{entityType: entityType, field: field}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resolvers[key]; exists {
		r.logger.Warn("filter: replacing resolver for duplicate registration",
			"entityType", entityType, "field", field)
	}
	r.resolvers[key] = resolver
}

// Lookup returns the resolver registered for (entityType, field). It
// returns fcerr.ErrUnknownField if no resolver was registered, or
// fcerr.ErrResolverTypeMismatch if one was registered under a different
// entity type parameter.
func Lookup[T any](r *Registry, entityType, field string) (Resolver[T], error) {
	key := registryKey{entityType: entityType, field: field}

	r.mu.RLock()
	raw, ok := r.resolvers[key]
	r.mu.RUnlock()

	if !ok {
		return nil, fcerr.UnknownField(entityType, field)
	}
	resolver, ok := raw.(Resolver[T])
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s registered for a different entity type", fcerr.ErrResolverTypeMismatch, entityType, field)
	}
	return resolver, nil
}

// Builder accumulates bindings for a single entity type against a
// Registry, resolving each field name to its registered resolver at
// build time rather than deferring the error to query time.
type Builder[T any] struct {
	registry   *Registry
	entityType string
	bindings   []Binding[T]
	err        error
}

// NewBuilder starts a Composite builder for entityType against registry.
func NewBuilder[T any](registry *Registry, entityType string) *Builder[T] {
	return &Builder[T]{registry: registry, entityType: entityType}
}

// Where adds a binding for field, looking up its resolver in the
// registry. If the field is unknown, the error is latched and surfaced
// by Build.
func (b *Builder[T]) Where(field string, ff FieldFilter) *Builder[T] {
	if b.err != nil {
		return b
	}
	resolver, err := Lookup[T](b.registry, b.entityType, field)
	if err != nil {
		b.err = err
		return b
	}
	b.bindings = append(b.bindings, Binding[T]{Field: field, Filter: ff, Resolver: resolver})
	return b
}

// Build returns the composed Composite, or the first error latched by a
// Where call referencing an unknown field.
func (b *Builder[T]) Build() (*Composite[T], error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewComposite(b.bindings...), nil
}
