// Package rowerr defines the error taxonomy shared by every subsystem of
// the row store. Errors carry a Kind so callers can branch on category
// with rowerr.Is, while still wrapping a cause chain with stack
// information via github.com/pkg/errors.
package rowerr

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies the taxonomy described in spec.md §7. It is never used
// for formatting directly; Error.Error() produces the human message.
type Kind int

const (
	// KindMalformedEncoding reports a codec invariant violated while decoding.
	KindMalformedEncoding Kind = iota
	// KindAmbiguousComparison reports a mixed-type comparison under a non-exact operator.
	KindAmbiguousComparison
	// KindUnsupportedConversion reports that no lossless conversion exists between two column types.
	KindUnsupportedConversion
	// KindUniqueConstraint reports an alternate-key or auto-key collision.
	KindUniqueConstraint
	// KindLockFailure reports a lock that was not granted before its deadline.
	KindLockFailure
	// KindClosedIndex reports that an index handle refers to a closed index.
	KindClosedIndex
	// KindDeletedIndex reports that an index was concurrently dropped.
	KindDeletedIndex
	// KindUnknownSchemaVersion reports a stored value whose version prefix is not registered.
	KindUnknownSchemaVersion
	// KindUnmodifiableView reports a write attempted through a read-only projection.
	KindUnmodifiableView
	// KindConversionException reports a runtime type mismatch in a row-property accessor.
	KindConversionException
)

func (k Kind) String() string {
	switch k {
	case KindMalformedEncoding:
		return "MalformedEncoding"
	case KindAmbiguousComparison:
		return "AmbiguousComparison"
	case KindUnsupportedConversion:
		return "UnsupportedConversion"
	case KindUniqueConstraint:
		return "UniqueConstraint"
	case KindLockFailure:
		return "LockFailure"
	case KindClosedIndex:
		return "ClosedIndex"
	case KindDeletedIndex:
		return "DeletedIndex"
	case KindUnknownSchemaVersion:
		return "UnknownSchemaVersion"
	case KindUnmodifiableView:
		return "UnmodifiableView"
	case KindConversionException:
		return "ConversionException"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned throughout the row store.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Unwrap exposes the wrapped cause so errors.Is/errors.As can traverse it.
func (e *Error) Unwrap() error { return e.cause }

// Kind reports the taxonomy entry this error belongs to.
func (e *Error) Kind() Kind { return e.kind }

// New builds an Error of the given kind with a formatted message and a
// captured stack (via pkg/errors.WithStack on the returned value's
// fmt.Stringer-free cause chain).
func New(kind Kind, format string, args ...any) error {
	return errors.WithStack(&Error{kind: kind, msg: fmt.Sprintf(format, args...)})
}

// Wrap attaches kind and message context to an existing cause, preserving
// the cause's chain so errors.Is/As still see through to it.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	if cause == nil {
		return New(kind, format, args...)
	}
	return errors.WithStack(&Error{kind: kind, msg: fmt.Sprintf(format, args...), cause: cause})
}

// Is reports whether err (or any error in its chain) is a *Error of kind.
func Is(err error, kind Kind) bool {
	var rerr *Error
	for stderrors.As(err, &rerr) {
		if rerr.kind == kind {
			return true
		}
		err = rerr.cause
		rerr = nil
	}
	return false
}

// As extracts the first *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var rerr *Error
	ok := stderrors.As(err, &rerr)
	return rerr, ok
}
