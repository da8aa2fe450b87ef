package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/gopoolkit/poolkit/pkg/queue"
	"github.com/gopoolkit/poolkit/pkg/types"
)

// WorkerState defines the state of a Worker
type WorkerState int32

const (
	// WorkerStateIdle represents idle worker state
	WorkerStateIdle WorkerState = iota
	// WorkerStateWorking represents working worker state
	WorkerStateWorking
	// WorkerStateStopped represents stopped worker state
	WorkerStateStopped
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateWorking:
		return "working"
	case WorkerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker is a single worker goroutine. It loops pulling envelopes from the
// shared queue, executing them and resolving their handles; a failing or
// panicking task never takes the worker down.
type Worker struct {
	id    int
	state int32 // atomic WorkerState
	queue *queue.Bounded[*envelope]
	done  chan struct{}

	// statistics
	totalProcessed int64
	totalFailed    int64
	totalCancelled int64
	lastTaskTime   int64 // Unix nanosecond timestamp

	// pool callback for syncing statistics
	completionCallback func(time.Duration, error)

	clock types.Clock
	log   zerolog.Logger

	mu sync.RWMutex
}

// newWorker creates a worker attached to the shared queue.
func newWorker(id int, q *queue.Bounded[*envelope], clock types.Clock, log zerolog.Logger) *Worker {
	if clock == nil {
		clock = types.NewRealClock()
	}
	return &Worker{
		id:    id,
		state: int32(WorkerStateIdle),
		queue: q,
		done:  make(chan struct{}),
		clock: clock,
		log:   log.With().Int("worker_id", id).Logger(),
	}
}

// ID returns the Worker ID
func (w *Worker) ID() int {
	return w.id
}

// State returns the current Worker state
func (w *Worker) State() WorkerState {
	return WorkerState(atomic.LoadInt32(&w.state))
}

// setCompletionCallback sets the task completion callback
func (w *Worker) setCompletionCallback(callback func(time.Duration, error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.completionCallback = callback
}

// Run runs the worker loop until the queue is closed and drained. The
// context is the pool task context: tasks receive it and a hard shutdown
// cancels it.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	defer atomic.StoreInt32(&w.state, int32(WorkerStateStopped))

	for {
		env, ok := w.queue.Dequeue()
		if !ok {
			return
		}
		w.process(ctx, env)
	}
}

// DoneChannel returns a channel closed once the worker loop has exited.
func (w *Worker) DoneChannel() <-chan struct{} {
	return w.done
}

// process executes a single envelope and resolves its handle exactly once.
func (w *Worker) process(ctx context.Context, env *envelope) {
	if !env.handle.TryClaim() {
		// cancelled while queued
		return
	}

	atomic.StoreInt32(&w.state, int32(WorkerStateWorking))
	defer atomic.StoreInt32(&w.state, int32(WorkerStateIdle))

	startTime := w.clock.Now()
	atomic.StoreInt64(&w.lastTaskTime, startTime.UnixNano())

	value, err := w.execute(ctx, env.task)
	executionTime := w.clock.Since(startTime)

	var outcome error
	switch {
	case err == nil:
		atomic.AddInt64(&w.totalProcessed, 1)
		env.handle.Complete(value)
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		// interrupted by a hard shutdown; a task returning
		// context.Canceled on its own is an ordinary failure
		atomic.AddInt64(&w.totalCancelled, 1)
		env.handle.MarkCancelled()
		outcome = types.ErrTaskCancelled
	default:
		atomic.AddInt64(&w.totalFailed, 1)
		taskErr := asTaskError(env.task.ID(), err)
		env.handle.Fail(taskErr)
		outcome = taskErr
		w.log.Debug().Str("task_id", env.task.ID()).Err(err).Msg("task failed")
	}

	w.mu.RLock()
	callback := w.completionCallback
	w.mu.RUnlock()
	if callback != nil {
		callback(executionTime, outcome)
	}
}

// execute runs a task body with panic recovery.
func (w *Worker) execute(ctx context.Context, task types.Task) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			var cause error
			switch v := r.(type) {
			case error:
				cause = v
			default:
				cause = fmt.Errorf("panic: %v", v)
			}

			taskErr := types.NewTaskError(task.ID(), cause)
			taskErr.WithContext("stack_trace", string(buf[:n]))
			taskErr.WithContext("worker_id", w.id)
			err = taskErr
		}
	}()

	return task.Execute(ctx)
}

// asTaskError wraps err into a TaskError unless it already is one.
func asTaskError(taskID string, err error) *types.TaskError {
	var taskErr *types.TaskError
	if errors.As(err, &taskErr) {
		return taskErr
	}
	return types.NewTaskError(taskID, err)
}

// Stats gets Worker statistics
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		ID:             w.id,
		State:          w.State(),
		TotalProcessed: atomic.LoadInt64(&w.totalProcessed),
		TotalFailed:    atomic.LoadInt64(&w.totalFailed),
		TotalCancelled: atomic.LoadInt64(&w.totalCancelled),
		LastTaskTime:   time.Unix(0, atomic.LoadInt64(&w.lastTaskTime)),
	}
}

// WorkerStats defines Worker statistics
type WorkerStats struct {
	ID             int
	State          WorkerState
	TotalProcessed int64
	TotalFailed    int64
	TotalCancelled int64
	LastTaskTime   time.Time
}

// IsActive checks if Worker is active
func (ws WorkerStats) IsActive() bool {
	return ws.State == WorkerStateWorking
}

// GetSuccessRate gets the success rate
func (ws WorkerStats) GetSuccessRate() float64 {
	total := ws.TotalProcessed + ws.TotalFailed
	if total == 0 {
		return 0
	}
	return float64(ws.TotalProcessed) / float64(total)
}
