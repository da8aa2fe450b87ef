// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrPoolClosed indicates a submission after the pool began draining or
	// terminated.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrPoolNotStarted indicates a submission before Start.
	ErrPoolNotStarted = errors.New("pool is not started")

	// ErrPoolRunning indicates a lifecycle call that requires a stopped pool.
	ErrPoolRunning = errors.New("pool is already running")

	// ErrQueueFull indicates a non-blocking submission found the queue full.
	ErrQueueFull = errors.New("work queue is full")

	// ErrQueueClosed indicates an enqueue on a closed queue.
	ErrQueueClosed = errors.New("work queue is closed")

	// ErrSubmitTimeout indicates a blocking submission gave up waiting for a
	// queue slot.
	ErrSubmitTimeout = errors.New("task submission timed out")

	// ErrAwaitTimeout indicates an await exceeded its deadline before the
	// handle resolved.
	ErrAwaitTimeout = errors.New("await timed out")

	// ErrTaskCancelled indicates the task was cancelled before or during
	// execution.
	ErrTaskCancelled = errors.New("task cancelled")
)

// TaskError wraps a task failure with the task identity and optional context
// such as the recovery stack trace.
type TaskError struct {
	// TaskID identifies the failed task.
	TaskID string

	// Cause is the underlying error.
	Cause error

	// Context contains failure context information.
	Context map[string]any
}

// NewTaskError creates a new TaskError.
func NewTaskError(taskID string, cause error) *TaskError {
	return &TaskError{
		TaskID:  taskID,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.TaskID, e.Cause)
}

// Unwrap returns the underlying error.
func (e *TaskError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error.
func (e *TaskError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// WithContext adds failure context.
func (e *TaskError) WithContext(key string, value any) *TaskError {
	e.Context[key] = value
	return e
}
