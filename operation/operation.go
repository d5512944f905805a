// Package operation turns the platform's submit-then-poll endpoints
// into a single awaited result.
//
// Every long-running Siteforge resource follows the same wire shape: a
// create call returns a handle, and a get call reports the current
// snapshot until a terminal status is reached. [Wait] implements that
// loop once, parameterized over the handle and snapshot types; each
// service package supplies only its submit/fetch pair and status
// predicates through a [Descriptor].
package operation

import (
	"context"
	"fmt"
	"time"
)

// Descriptor binds one resource kind to the generic poll loop.
// IsTerminal and IsSuccess partition the resource's status vocabulary;
// the loop itself knows nothing about concrete statuses.
type Descriptor[H comparable, S any] struct {
	// Submit creates the operation and returns its handle. It is
	// invoked exactly once; a failed submission never enters the
	// poll loop.
	Submit func(ctx context.Context) (H, error)

	// Fetch returns the current snapshot for a handle.
	Fetch func(ctx context.Context, handle H) (S, error)

	// IsTerminal reports whether no further change is expected.
	IsTerminal func(snapshot S) bool

	// IsSuccess reports whether a terminal snapshot carries a result
	// rather than a failure. Only consulted when IsTerminal is true.
	IsSuccess func(snapshot S) bool

	// FailureReason extracts the remote failure payload from a
	// terminal, unsuccessful snapshot. Optional.
	FailureReason func(snapshot S) string
}

// Policy governs how a poll loop repeats fetches and when it gives up.
// There is no default safe for all operations; each service supplies
// its own.
type Policy struct {
	// Interval is the suspension between an observed non-terminal
	// snapshot and the next fetch.
	Interval time.Duration

	// Timeout is the overall deadline, measured from submission.
	Timeout time.Duration

	// FetchTimeout, when positive, bounds each individual fetch so a
	// hung request cannot stall the deadline check indefinitely.
	FetchTimeout time.Duration
}

func (p Policy) validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("poll interval %v %w", p.Interval, ErrInvalidPolicy)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("poll timeout %v %w", p.Timeout, ErrInvalidPolicy)
	}
	return nil
}

// Wait submits the operation described by d and polls it until a
// terminal snapshot is observed or the policy deadline expires.
//
// The deadline is checked at the top of every iteration, before the
// fetch, so a slow fetch straddling the deadline completes rather than
// being aborted mid-flight. Terminality is checked before sleeping, so
// an operation that is already terminal on the first fetch returns
// without a single suspension. Fetch errors propagate immediately and
// are never retried within the loop. Cancelling ctx surfaces a
// *CancelledError distinct from *TimeoutError.
func Wait[H comparable, S any](ctx context.Context, d Descriptor[H, S], p Policy) (S, error) {
	var zero S
	if err := p.validate(); err != nil {
		return zero, err
	}

	deadline := time.Now().Add(p.Timeout)

	handle, err := d.Submit(ctx)
	if err != nil {
		return zero, fmt.Errorf("submitting operation: %w", err)
	}

	return waitHandle(ctx, handle, d, p, deadline)
}

// WaitHandle polls an operation that was already submitted, for
// callers that obtained a handle out of band (a stored handle, or a
// submit call made on a previous run). The deadline is measured from
// the call.
func WaitHandle[H comparable, S any](ctx context.Context, handle H, d Descriptor[H, S], p Policy) (S, error) {
	var zero S
	if err := p.validate(); err != nil {
		return zero, err
	}
	return waitHandle(ctx, handle, d, p, time.Now().Add(p.Timeout))
}

func waitHandle[H comparable, S any](ctx context.Context, handle H, d Descriptor[H, S], p Policy, deadline time.Time) (S, error) {
	var (
		zero     S
		last     S
		observed bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return zero, newCancelled(handle, last, observed, err)
		}
		if !time.Now().Before(deadline) {
			return zero, newTimeout(handle, last, observed, p.Timeout)
		}

		snapshot, err := fetchOnce(ctx, d, handle, p.FetchTimeout)
		if err != nil {
			return zero, fmt.Errorf("fetching operation %v: %w", handle, err)
		}
		last, observed = snapshot, true

		if d.IsTerminal(snapshot) {
			if d.IsSuccess(snapshot) {
				return snapshot, nil
			}
			var reason string
			if d.FailureReason != nil {
				reason = d.FailureReason(snapshot)
			}
			return zero, &FailedError{Handle: handle, Reason: reason, Snapshot: snapshot}
		}

		// Sleep no longer than the time remaining; with an interval
		// larger than the timeout this caps the wait so the deadline
		// fires on schedule after at most one fetch.
		pause := p.Interval
		if remaining := time.Until(deadline); remaining < pause {
			pause = remaining
		}

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, newCancelled(handle, last, observed, ctx.Err())
		case <-timer.C:
		}
	}
}

// fetchOnce bounds a single fetch with its own deadline when the
// policy asks for one.
func fetchOnce[H comparable, S any](ctx context.Context, d Descriptor[H, S], handle H, timeout time.Duration) (S, error) {
	if timeout <= 0 {
		return d.Fetch(ctx, handle)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return d.Fetch(fetchCtx, handle)
}
