package clik

import (
	"errors"
	"fmt"
)

// Sentinel errors for the runtime's fixed error taxonomy (ordered by
// surface precedence: an InvalidInput check always wins over a later
// ResourceExhausted one for the same call).
var (
	// ErrInvalidInput covers a null handle, a null required pointer, a
	// zero size where one is not permitted, an offset+size exceeding a
	// Buffer's size, or an unrecognized Argument tag. An N-D range with
	// any local[i] == 0 is not caught here: it is reported as
	// ErrDeviceFailure when the HAL attempts the dispatch.
	ErrInvalidInput = errors.New("clik: invalid input")

	// ErrResourceExhausted is returned when the HAL reports an
	// allocation failure (a null device address from MemAlloc).
	ErrResourceExhausted = errors.New("clik: resource exhausted")

	// ErrNotFound is returned when ProgramFindKernel resolves no entry
	// point for a given name.
	ErrNotFound = errors.New("clik: not found")

	// ErrLoadFailed is returned when the HAL rejects a program's bytes.
	ErrLoadFailed = errors.New("clik: program load failed")

	// ErrShuttingDown names the case of a queue that has already been
	// asked to shut down. Enqueue* report that case only as a false
	// return; no function in this package returns this value.
	ErrShuttingDown = errors.New("clik: queue is shutting down")

	// ErrDeviceFailure is returned when a HAL operation fails mid
	// execution, after enqueue-time validation already passed.
	ErrDeviceFailure = errors.New("clik: device operation failed")

	// ErrReleased is returned by any call on an object that has already
	// been released.
	ErrReleased = errors.New("clik: object already released")
)

// CommandError wraps ErrDeviceFailure with the variant tag of the
// command that failed, for callers that want more than the sentinel.
// A queue keeps the most recent one as its sticky LastError.
type CommandError struct {
	Variant string // "ReadBuffer", "WriteBuffer", "CopyBuffer", or "RunKernel"
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("clik: %s: %v", e.Variant, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func deviceFailure(variant string, cause error) *CommandError {
	return &CommandError{Variant: variant, Err: fmt.Errorf("%w: %v", ErrDeviceFailure, cause)}
}
