// Package future provides the caller-facing handle for a submitted task's
// eventual outcome.
package future

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gopoolkit/poolkit/pkg/types"
)

// Handle represents a task's eventual outcome. It is created Pending at
// submission and resolved exactly once to Completed, Failed or Cancelled.
// All later resolution attempts are no-ops.
//
// The write side (Complete, Fail, MarkCancelled, TryClaim) is driven by the
// executing pool; callers normally use only Await, Cancel and Map.
type Handle[T any] struct {
	id    string
	clock types.Clock

	state   atomic.Int32
	claimed atomic.Bool
	detach  atomic.Pointer[func() bool]

	// value and err are written before done is closed and read only after
	// done is observed closed.
	value T
	err   error
	done  chan struct{}
}

var _ types.Awaitable = (*Handle[any])(nil)

// New creates a pending handle. A nil clock defaults to the real clock.
func New[T any](id string, clock types.Clock) *Handle[T] {
	if clock == nil {
		clock = types.NewRealClock()
	}
	return &Handle[T]{
		id:    id,
		clock: clock,
		done:  make(chan struct{}),
	}
}

// ID returns the identifier of the task this handle tracks.
func (h *Handle[T]) ID() string {
	return h.id
}

// State returns the current resolution state.
func (h *Handle[T]) State() types.HandleState {
	return types.HandleState(h.state.Load())
}

// Resolved reports whether the handle has left the pending state.
func (h *Handle[T]) Resolved() bool {
	return h.State() != types.HandlePending
}

// Done returns a channel closed once the handle is resolved.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Await blocks until the handle resolves, the timeout elapses, or ctx is
// cancelled. A timeout of zero or less waits indefinitely. On resolution it
// returns the value, the task failure, or types.ErrTaskCancelled; on a
// missed deadline it returns types.ErrAwaitTimeout.
func (h *Handle[T]) Await(ctx context.Context, timeout time.Duration) (T, error) {
	var zero T

	var timeoutC <-chan time.Time
	if timeout > 0 {
		timer := h.clock.NewTimer(timeout)
		defer timer.Stop()
		timeoutC = timer.C()
	}

	select {
	case <-h.done:
		return h.result()
	case <-timeoutC:
		return zero, types.ErrAwaitTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Cancel attempts to prevent execution. It succeeds only if no worker has
// claimed the task yet; in-flight tasks are never preempted. On success the
// task is detached from its queue and the handle resolves Cancelled.
func (h *Handle[T]) Cancel() bool {
	if !h.claimed.CompareAndSwap(false, true) {
		return false
	}
	if d := h.detach.Load(); d != nil {
		// best effort slot release; the claim already prevents execution
		(*d)()
	}
	var zero T
	return h.resolve(types.HandleCancelled, zero, types.ErrTaskCancelled)
}

// TryClaim marks the task as taken by a worker. It returns false if the task
// was already claimed (cancelled while queued) or resolved, in which case
// the worker must skip execution. At-most-once execution hinges on this.
func (h *Handle[T]) TryClaim() bool {
	return h.claimed.CompareAndSwap(false, true) && !h.Resolved()
}

// SetDetach registers the hook Cancel uses to pull the task out of its
// queue.
func (h *Handle[T]) SetDetach(fn func() bool) {
	h.detach.Store(&fn)
}

// Complete resolves the handle with a value. It returns false if the handle
// was already resolved.
func (h *Handle[T]) Complete(value T) bool {
	return h.resolve(types.HandleCompleted, value, nil)
}

// Fail resolves the handle with a task failure. It returns false if the
// handle was already resolved.
func (h *Handle[T]) Fail(err error) bool {
	var zero T
	return h.resolve(types.HandleFailed, zero, err)
}

// MarkCancelled resolves the handle as cancelled regardless of claim state.
// The pool uses it for tasks interrupted during a hard shutdown.
func (h *Handle[T]) MarkCancelled() bool {
	var zero T
	return h.resolve(types.HandleCancelled, zero, types.ErrTaskCancelled)
}

// resolve performs the single Pending -> terminal transition. The state CAS
// makes the writer unique; value and err are published by closing done.
func (h *Handle[T]) resolve(state types.HandleState, value T, err error) bool {
	if !h.state.CompareAndSwap(int32(types.HandlePending), int32(state)) {
		return false
	}
	h.value = value
	h.err = err
	close(h.done)
	return true
}

// result reads the outcome. Callers must have observed done closed.
func (h *Handle[T]) result() (T, error) {
	var zero T
	switch h.State() {
	case types.HandleCompleted:
		return h.value, nil
	case types.HandleFailed:
		return zero, h.err
	case types.HandleCancelled:
		return zero, h.err
	default:
		return zero, nil
	}
}

// Map derives a handle that resolves once src resolves, applying fn to the
// value. Failures and cancellations propagate unchanged. fn runs on its own
// goroutine; Map never blocks the caller.
func Map[T, R any](src *Handle[T], fn func(T) (R, error)) *Handle[R] {
	out := New[R](src.id, src.clock)
	// derived handles have no queue to detach from
	out.claimed.Store(true)

	go func() {
		<-src.done
		switch src.State() {
		case types.HandleCompleted:
			value, err := fn(src.value)
			if err != nil {
				out.Fail(err)
				return
			}
			out.Complete(value)
		case types.HandleFailed:
			out.Fail(src.err)
		case types.HandleCancelled:
			out.MarkCancelled()
		}
	}()

	return out
}

// MapErr derives a handle that rewrites a failure through fn. Completed and
// cancelled outcomes propagate unchanged.
func MapErr[T any](src *Handle[T], fn func(error) error) *Handle[T] {
	out := New[T](src.id, src.clock)
	out.claimed.Store(true)

	go func() {
		<-src.done
		switch src.State() {
		case types.HandleCompleted:
			out.Complete(src.value)
		case types.HandleFailed:
			out.Fail(fn(src.err))
		case types.HandleCancelled:
			out.MarkCancelled()
		}
	}()

	return out
}
