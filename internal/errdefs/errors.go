// Package errdefs defines the error taxonomy shared by every drydock
// component. Each failure carries a Kind so the top-level driver can decide
// how loudly to report it and which exit code to use, without string matching.
package errdefs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindUnknown is the zero value for errors that escaped classification.
	KindUnknown Kind = iota

	// KindValidation covers missing VMs or source directories, malformed
	// metadata documents, and missing required definition fields. Always
	// reported before any mutation.
	KindValidation

	// KindResource covers volume-manager failures: a volume that already
	// exists, insufficient volume-group space, a missing storage path.
	KindResource

	// KindConflict covers fleet identity collisions left unresolved.
	KindConflict

	// KindTransfer covers non-zero exits from any stage of a copy pipeline.
	KindTransfer

	// KindGeneration covers MAC generation exhausting its attempt budget.
	KindGeneration

	// KindTransform covers expected fields missing from a definition document.
	KindTransform
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindResource:
		return "resource"
	case KindConflict:
		return "conflict"
	case KindTransfer:
		return "transfer"
	case KindGeneration:
		return "generation"
	case KindTransform:
		return "transform"
	default:
		return "unknown"
	}
}

// ErrCanceled marks the deliberate user-cancel path in conflict resolution.
// It is a clean exit, not a failure; the driver maps it to exit code 0.
var ErrCanceled = errors.New("operation canceled by user")

// Error is the concrete error type used throughout drydock.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "volume.create".
	Op      string
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error with a formatted message.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and operation context to an underlying error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrapf attaches kind, operation and a formatted message to an underlying error.
func Wrapf(kind Kind, op string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf reports the Kind of err, walking the wrap chain. Errors that are
// not *Error report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err (or anything it wraps) has the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
