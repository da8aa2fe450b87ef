// Package queue provides a bounded blocking FIFO queue with support for
// removing queued items, which plain channels cannot do.
package queue

import (
	"context"
	"sync"

	"github.com/gopoolkit/poolkit/pkg/types"
)

// Bounded is a fixed-capacity FIFO queue. Enqueue blocks producers while the
// queue is full (backpressure) and Dequeue blocks consumers while it is
// empty. Closing the queue wakes everyone: producers fail with
// types.ErrQueueClosed, consumers drain the remainder and then receive the
// exit signal.
type Bounded[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	items  []T
	head   int
	count  int
	closed bool
}

// New creates a bounded queue with the given capacity. Capacity must be
// positive; New panics otherwise, mirroring make(chan T, n) semantics.
func New[T any](capacity int) *Bounded[T] {
	if capacity <= 0 {
		panic("queue: capacity must be positive")
	}
	q := &Bounded[T]{
		items: make([]T, capacity),
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends an item, blocking while the queue is full. It returns
// types.ErrQueueClosed if the queue is (or becomes) closed, or the context
// error if ctx is cancelled while waiting.
func (q *Bounded[T]) Enqueue(ctx context.Context, item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == len(q.items) && !q.closed {
		if err := q.waitNotFull(ctx); err != nil {
			// pass the baton: the wakeup we consumed may have been meant
			// for another blocked producer
			q.notFull.Signal()
			return err
		}
	}
	if q.closed {
		return types.ErrQueueClosed
	}

	q.items[(q.head+q.count)%len(q.items)] = item
	q.count++
	q.notEmpty.Signal()
	return nil
}

// TryEnqueue appends an item without blocking. It returns
// types.ErrQueueFull when no slot is free and types.ErrQueueClosed when the
// queue is closed.
func (q *Bounded[T]) TryEnqueue(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return types.ErrQueueClosed
	}
	if q.count == len(q.items) {
		return types.ErrQueueFull
	}

	q.items[(q.head+q.count)%len(q.items)] = item
	q.count++
	q.notEmpty.Signal()
	return nil
}

// Dequeue removes and returns the oldest item, blocking while the queue is
// empty. Once the queue is closed and drained it returns the zero value and
// false; consumers treat that as the shutdown signal.
func (q *Bounded[T]) Dequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.count == 0 {
		var zero T
		return zero, false
	}

	item := q.takeAt(0)
	q.notFull.Signal()
	return item, true
}

// Remove deletes the first queued item matching the predicate, preserving
// FIFO order of the rest. It returns false if no item matches.
func (q *Bounded[T]) Remove(match func(T) bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := 0; i < q.count; i++ {
		if match(q.items[(q.head+i)%len(q.items)]) {
			q.takeAt(i)
			q.notFull.Signal()
			return true
		}
	}
	return false
}

// DrainAll atomically empties the queue and returns the removed items in
// FIFO order.
func (q *Bounded[T]) DrainAll() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := make([]T, 0, q.count)
	for q.count > 0 {
		drained = append(drained, q.takeAt(0))
	}
	q.notFull.Broadcast()
	return drained
}

// Close marks the queue closed and wakes all blocked producers and
// consumers. Close is idempotent. Queued items remain dequeueable.
func (q *Bounded[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// Closed reports whether the queue has been closed.
func (q *Bounded[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the current number of queued items.
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the fixed capacity.
func (q *Bounded[T]) Cap() int {
	return len(q.items)
}

// takeAt removes the item at logical offset i from the head, preserving FIFO
// order of the rest. Caller must hold q.mu.
func (q *Bounded[T]) takeAt(i int) T {
	n := len(q.items)
	var zero T

	item := q.items[(q.head+i)%n]
	if i == 0 {
		// common path: head advance
		q.items[q.head] = zero
		q.head = (q.head + 1) % n
		q.count--
		return item
	}

	// mid-queue removal: shift the tail segment left by one slot
	for j := i; j < q.count-1; j++ {
		q.items[(q.head+j)%n] = q.items[(q.head+j+1)%n]
	}
	q.items[(q.head+q.count-1)%n] = zero
	q.count--
	return item
}

// waitNotFull waits on the notFull condition, waking early if ctx is
// cancelled. Caller must hold q.mu.
func (q *Bounded[T]) waitNotFull(ctx context.Context) error {
	if ctx == nil || ctx.Done() == nil {
		q.notFull.Wait()
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			// Taking the lock guarantees the waiter is parked in Wait
			// before the broadcast fires.
			q.mu.Lock()
			q.notFull.Broadcast()
			q.mu.Unlock()
		case <-stop:
		}
	}()

	q.notFull.Wait()
	close(stop)
	return ctx.Err()
}
