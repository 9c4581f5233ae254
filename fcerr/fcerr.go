// Package fcerr defines the error kinds raised by the filtercache core.
//
// Every kind is a sentinel that survives wrapping: callers can test for
// a specific kind with errors.Is. Construction helpers attach a stack
// trace from the raise site via github.com/friendsofgo/errors, the same
// dependency the teacher module carries for this purpose.
package fcerr

import (
	"fmt"

	"github.com/friendsofgo/errors"
)

// Sentinel kinds. See spec §7 for the raise conditions of each.
var (
	// ErrInvalidArgument covers a nil filter, page < 1, a negative
	// totalElements, an invalid prefetch range, or a cached-page entry
	// outside [1, totalPages].
	ErrInvalidArgument = errors.New("filtercache: invalid argument")

	// ErrUnknownField is raised when a filter binding names a field with
	// no registered resolver.
	ErrUnknownField = errors.New("filtercache: unknown field")

	// ErrResolverTypeMismatch is raised when a registered resolver
	// returns a value the field filter does not accept.
	ErrResolverTypeMismatch = errors.New("filtercache: resolver type mismatch")

	// ErrSourceFailure wraps an error raised by the data source during
	// RequestData.
	ErrSourceFailure = errors.New("filtercache: source failure")

	// ErrSnapshotNull is raised when restoring from a nil or missing
	// snapshot part.
	ErrSnapshotNull = errors.New("filtercache: snapshot part is nil")
)

// kindError pairs a sentinel kind with a cause, so that errors.Is
// matches the kind and errors.As/Unwrap still reaches the cause.
type kindError struct {
	kind  error
	msg   string
	cause error
}

func (e *kindError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *kindError) Is(target error) bool { return target == e.kind }
func (e *kindError) Unwrap() error        { return e.cause }

// wrap attaches a stack trace at the call site via friendsofgo/errors,
// then tags it with the sentinel kind.
func wrap(kind error, msg string, cause error) error {
	traced := errors.WithStack(&kindError{kind: kind, msg: msg, cause: cause})
	return traced
}

// Invalid wraps ErrInvalidArgument with a message describing what was
// invalid.
func Invalid(format string, args ...any) error {
	return wrap(ErrInvalidArgument, fmt.Sprintf(format, args...), nil)
}

// UnknownField wraps ErrUnknownField naming the offending field.
func UnknownField(entityType, field string) error {
	return wrap(ErrUnknownField, fmt.Sprintf("%s.%s", entityType, field), nil)
}

// ResolverTypeMismatch wraps ErrResolverTypeMismatch naming the field and
// the filter key that rejected the resolved value.
func ResolverTypeMismatch(field, filterKey string) error {
	return wrap(ErrResolverTypeMismatch, fmt.Sprintf("%s does not accept values for %q", field, filterKey), nil)
}

// SourceFailure wraps ErrSourceFailure around the underlying source
// error, preserving it for errors.Is/errors.As.
func SourceFailure(err error) error {
	if err == nil {
		return nil
	}
	return wrap(ErrSourceFailure, "request to data source failed", err)
}

// SnapshotNull wraps ErrSnapshotNull naming the missing part.
func SnapshotNull(part string) error {
	return wrap(ErrSnapshotNull, part, nil)
}
