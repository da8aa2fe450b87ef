// Package pool provides a fixed-size worker pool with a bounded work queue.
package pool

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gopoolkit/poolkit/pkg/future"
	"github.com/gopoolkit/poolkit/pkg/types"
)

// FuncTask is the basic Task implementation wrapping a closure.
type FuncTask struct {
	id string
	fn func(ctx context.Context) (any, error)
}

// NewTask creates a task from a closure with a generated UUID.
func NewTask(fn func(ctx context.Context) (any, error)) *FuncTask {
	return &FuncTask{
		id: uuid.NewString(),
		fn: fn,
	}
}

// NewTaskWithID creates a task with a caller-chosen ID.
func NewTaskWithID(id string, fn func(ctx context.Context) (any, error)) *FuncTask {
	return &FuncTask{
		id: id,
		fn: fn,
	}
}

// Execute executes the task.
func (t *FuncTask) Execute(ctx context.Context) (any, error) {
	if t.fn == nil {
		return nil, fmt.Errorf("task %s has no execution function", t.id)
	}
	return t.fn(ctx)
}

// ID returns the task ID.
func (t *FuncTask) ID() string {
	return t.id
}

// envelope pairs a queued task with its result handle. The handle owns the
// claim that guarantees at-most-once execution.
type envelope struct {
	task   types.Task
	handle *future.Handle[any]
}
