// Package types defines the core contracts shared by the queue, future and
// pool packages.
package types

import (
	"context"
)

// Task is a unit of schedulable work. A task is immutable once submitted and
// is executed by exactly one worker.
type Task interface {
	// Execute runs the task body. The context is cancelled when the pool is
	// hard-stopped; tasks that want to be interruptible must observe it.
	Execute(ctx context.Context) (any, error)

	// ID returns a stable identifier for tracking and logging.
	ID() string
}

// PoolState defines the lifecycle state of a pool.
type PoolState int32

const (
	// PoolCreated means the pool has been constructed but not started.
	PoolCreated PoolState = iota
	// PoolRunning means workers are active and submissions are accepted.
	PoolRunning
	// PoolDraining means no new submissions are accepted; queued tasks finish.
	PoolDraining
	// PoolTerminated means all workers have exited.
	PoolTerminated
)

// String returns the string representation of PoolState.
func (s PoolState) String() string {
	switch s {
	case PoolCreated:
		return "created"
	case PoolRunning:
		return "running"
	case PoolDraining:
		return "draining"
	case PoolTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// HandleState defines the resolution state of a result handle.
type HandleState int32

const (
	// HandlePending means the task has not produced an outcome yet.
	HandlePending HandleState = iota
	// HandleCompleted means the task finished and a value is available.
	HandleCompleted
	// HandleFailed means the task body returned an error or panicked.
	HandleFailed
	// HandleCancelled means the task was removed before execution or
	// interrupted during it.
	HandleCancelled
)

// String returns the string representation of HandleState.
func (s HandleState) String() string {
	switch s {
	case HandlePending:
		return "pending"
	case HandleCompleted:
		return "completed"
	case HandleFailed:
		return "failed"
	case HandleCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// PoolStats is a point-in-time snapshot of pool activity.
type PoolStats struct {
	// PoolSize is the fixed number of workers.
	PoolSize int

	// ActiveWorkers is the number of workers currently executing a task.
	ActiveWorkers int

	// QueueDepth is the current number of queued tasks.
	QueueDepth int

	// QueueCapacity is the fixed capacity of the work queue.
	QueueCapacity int

	// Submitted is the total number of accepted submissions.
	Submitted int64

	// Completed is the total number of tasks that finished successfully.
	Completed int64

	// Failed is the total number of tasks that returned an error or panicked.
	Failed int64

	// Cancelled is the total number of tasks resolved as cancelled.
	Cancelled int64
}

// Awaitable is the read side of a result handle, independent of the result
// type.
type Awaitable interface {
	// State returns the current resolution state.
	State() HandleState

	// Done returns a channel closed once the handle is resolved.
	Done() <-chan struct{}

	// Cancel attempts to prevent execution. It succeeds only while the task
	// is still queued.
	Cancel() bool
}
