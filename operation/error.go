package operation

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidPolicy is wrapped by errors reporting a non-positive
	// interval or timeout.
	ErrInvalidPolicy = errors.New("must be greater than zero")
	// ErrTimeout is the sentinel wrapped by [TimeoutError].
	ErrTimeout = errors.New("operation timed out")
	// ErrFailed is the sentinel wrapped by [FailedError].
	ErrFailed = errors.New("operation failed")
	// ErrCancelled is the sentinel wrapped by [CancelledError].
	ErrCancelled = errors.New("operation cancelled")
)

// TimeoutError reports a deadline that expired while the operation was
// still non-terminal. Last holds the most recent snapshot, if any poll
// completed, so callers can inspect partial progress.
type TimeoutError struct {
	Handle  any
	Last    any
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v after %v: handle %v", ErrTimeout, e.Timeout, e.Handle)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// FailedError reports a terminal snapshot whose outcome is a failure.
// Reason carries the remote failure payload; Snapshot the full terminal
// state.
type FailedError struct {
	Handle   any
	Reason   string
	Snapshot any
}

func (e *FailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%v: handle %v", ErrFailed, e.Handle)
	}
	return fmt.Sprintf("%v: handle %v: %s", ErrFailed, e.Handle, e.Reason)
}

func (e *FailedError) Unwrap() error {
	return ErrFailed
}

// CancelledError reports a wait abandoned through its context. It is
// deliberately distinct from [TimeoutError]: the caller gave up, the
// policy did not.
type CancelledError struct {
	Handle any
	Last   any
	Cause  error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%v: handle %v: %v", ErrCancelled, e.Handle, e.Cause)
}

// Unwrap exposes both the sentinel and the context cause, so
// errors.Is matches ErrCancelled as well as context.Canceled or
// context.DeadlineExceeded.
func (e *CancelledError) Unwrap() []error {
	return []error{ErrCancelled, e.Cause}
}

func newTimeout(handle, last any, observed bool, timeout time.Duration) *TimeoutError {
	e := &TimeoutError{Handle: handle, Timeout: timeout}
	if observed {
		e.Last = last
	}
	return e
}

func newCancelled(handle, last any, observed bool, cause error) *CancelledError {
	e := &CancelledError{Handle: handle, Cause: cause}
	if observed {
		e.Last = last
	}
	return e
}
