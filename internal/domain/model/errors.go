package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Callers match with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrInvalidPhase       = errors.New("invalid phase")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Error carries the failing operation, its kind and an optional cause.
type Error struct {
	Op     string // e.g. "competition.advance_to_final"
	Kind   error  // one of the sentinel kinds above
	Reason string // human readable explanation
	Err    error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind builds an error of the given kind with a reason.
func NewKind(op string, kind error, reason string) error {
	return &Error{Op: op, Kind: kind, Reason: reason}
}

// NewKindf is NewKind with a formatted reason.
func NewKindf(op string, kind error, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// WrapKind attaches a kind to an underlying error.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the sentinel kind of err, or nil when err carries none.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrInvalidPhase, ErrStorageUnavailable} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
