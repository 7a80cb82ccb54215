package tabulon

import (
	"errors"
	"fmt"
)

// ErrUserInput indicates an invalid parameter supplied by the user
// (bad number, unknown column, empty expression).
var ErrUserInput = errors.New("invalid input")

// ErrDataMismatch indicates the operation requires structure the data
// does not have (e.g. resample without a datetime index).
var ErrDataMismatch = errors.New("data mismatch")

// ErrComputation indicates an underlying computation failed; the frame
// store rolls back and the live frame is unchanged.
var ErrComputation = errors.New("computation failed")

// ErrIO indicates a read or write failure (missing file, bad encoding,
// parser error, URL fetch failure).
var ErrIO = errors.New("i/o failure")

// ErrFormat indicates a project file with the wrong extension or an
// unreadable payload.
var ErrFormat = errors.New("unrecognized project format")

// OpError wraps a failure with the operation name and its error kind.
type OpError struct {
	Op   string // operation name, e.g. "clean", "pivot", "open-project"
	Kind error  // one of the sentinel errors above
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the wrapped kind, so callers can
// test with errors.Is(err, tabulon.ErrUserInput) and the like.
func (e *OpError) Is(target error) bool {
	return target == e.Kind
}

// Errorf builds an OpError with a formatted message.
func Errorf(op string, kind error, format string, args ...interface{}) *OpError {
	return &OpError{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WrapErr attaches op and kind to an existing error.
func WrapErr(op string, kind error, err error) *OpError {
	return &OpError{Op: op, Kind: kind, Err: err}
}
