package download

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// WorkFunc is the signature for an async download.
type WorkFunc func(ctx context.Context) error

// Queue manages a batch of concurrent artifact downloads under one
// concurrency limit.
type Queue struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	sem      chan struct{}
	shutdown atomic.Bool
	errs     []error
}

// NewQueue creates a Queue with the given concurrency limit.
// If maxConcurrent <= 0, concurrency is unlimited.
func NewQueue(maxConcurrent int) *Queue {
	q := &Queue{}
	if maxConcurrent > 0 {
		q.sem = make(chan struct{}, maxConcurrent)
	}
	return q
}

// Wait blocks until all downloads in the queue complete.
// Returns all errors joined via errors.Join.
func (q *Queue) Wait() error {
	q.wg.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()

	return errors.Join(q.errs...)
}

// Shutdown prevents queued work that has not started from executing.
func (q *Queue) Shutdown() {
	q.shutdown.Store(true)
}

// Start launches fn in a new goroutine managed by the queue and
// returns a Result for tracking the individual download.
func (q *Queue) Start(ctx context.Context, fn WorkFunc) *Result {
	ctx, cancel := context.WithCancel(ctx)
	r := &Result{
		done:   make(chan struct{}),
		cancel: cancel,
		queue:  q,
	}

	q.wg.Add(1)
	go func() {
		defer func() {
			cancel()
			close(r.done)
			q.wg.Done()
		}()

		if q.sem != nil {
			select {
			case q.sem <- struct{}{}:
				defer func() {
					<-q.sem
				}()
			case <-ctx.Done():
				r.err = ctx.Err()
				q.recordErr(r.err)
				return
			}
		}

		if q.shutdown.Load() {
			r.err = ErrQueueShutdown
			q.recordErr(r.err)
			return
		}

		r.err = fn(ctx)
		if r.err != nil {
			q.recordErr(r.err)
		}
	}()

	return r
}

// recordErr appends err to the queue's error slice under the mutex.
func (q *Queue) recordErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.errs = append(q.errs, err)
}

// Result represents an in-flight or completed async download.
type Result struct {
	done   chan struct{}
	err    error
	cancel context.CancelFunc
	queue  *Queue
}

// Done returns a channel that is closed when this download completes.
func (r *Result) Done() <-chan struct{} { return r.done }

// Err blocks until this download completes and returns its error.
func (r *Result) Err() error {
	<-r.done
	return r.err
}

// Wait blocks until all downloads in the owning queue complete.
func (r *Result) Wait() error {
	return r.queue.Wait()
}

// Cancel cancels this download's context.
func (r *Result) Cancel() {
	r.cancel()
}
