package fvrpt

import "github.com/pkg/errors"

var (
	// ErrInvalidInput is returned for malformed networks, snapshots or configs.
	// Nothing is checked once it occurs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoContinuation aborts the route trace of a single commodity. It can mean
	// the candidate is broken, or that the caller iterates the wrong ranges.
	ErrNoContinuation = errors.New("no continuation found")

	// ErrLayoutMismatch is returned when a dense solver vector does not fit the column layout.
	ErrLayoutMismatch = errors.New("solution vector does not match layout")
)

func invalidf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}
