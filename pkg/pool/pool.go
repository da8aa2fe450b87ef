package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/gopoolkit/poolkit/pkg/future"
	"github.com/gopoolkit/poolkit/pkg/queue"
	"github.com/gopoolkit/poolkit/pkg/types"
)

// Config defines configuration for the pool
type Config struct {
	// Workers is the number of worker goroutines, fixed at construction
	Workers int

	// QueueCapacity is the bounded work queue capacity
	QueueCapacity int

	// SubmitTimeout is how long Submit blocks on a full queue before giving
	// up; zero or negative makes Submit non-blocking
	SubmitTimeout time.Duration

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// Logger receives lifecycle and task failure events (optional)
	Logger zerolog.Logger

	// Registerer receives pool metrics (optional)
	Registerer prometheus.Registerer
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Workers:       10,
		QueueCapacity: 100,
		SubmitTimeout: 5 * time.Second,
		Clock:         types.NewRealClock(),
		Logger:        zerolog.Nop(),
	}
}

// Pool is a fixed-size worker pool over a bounded FIFO queue. Submissions
// block while the queue is full (backpressure) and every accepted task gets
// a result handle resolved exactly once.
//
// Lifecycle: Created -> Running (Start) -> Draining (Shutdown or
// ShutdownNow) -> Terminated (all workers exited).
type Pool struct {
	config  *Config
	queue   *queue.Bounded[*envelope]
	workers []*Worker

	state      atomic.Int32 // types.PoolState
	taskCtx    context.Context
	taskCancel context.CancelFunc
	wg         sync.WaitGroup
	terminated chan struct{}

	// counters
	submitted int64
	completed int64
	failed    int64
	cancelled int64

	metrics *poolMetrics
	log     zerolog.Logger
}

// New creates a pool in the Created state.
func New(config *Config) (*Pool, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if config.Workers <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", config.Workers)
	}
	if config.QueueCapacity <= 0 {
		return nil, fmt.Errorf("queue capacity must be positive, got %d", config.QueueCapacity)
	}
	if config.Clock == nil {
		config.Clock = types.NewRealClock()
	}

	p := &Pool{
		config:     config,
		queue:      queue.New[*envelope](config.QueueCapacity),
		workers:    make([]*Worker, config.Workers),
		terminated: make(chan struct{}),
		log:        config.Logger,
	}
	// created here so a hard stop racing Start never observes a nil cancel
	p.taskCtx, p.taskCancel = context.WithCancel(context.Background())
	for i := 0; i < config.Workers; i++ {
		w := newWorker(i, p.queue, config.Clock, config.Logger)
		w.setCompletionCallback(p.onTaskDone)
		p.workers[i] = w
	}

	p.metrics = newPoolMetrics(config.Registerer,
		func() float64 { return float64(p.queue.Len()) },
		func() float64 { return float64(p.activeWorkers()) },
	)

	return p, nil
}

// Start starts the workers. Cancelling ctx after Start triggers a hard
// shutdown.
func (p *Pool) Start(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(types.PoolCreated), int32(types.PoolRunning)) {
		if p.State() == types.PoolRunning {
			return types.ErrPoolRunning
		}
		return types.ErrPoolClosed
	}

	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(p.taskCtx)
		}(w)
	}

	// terminal transition happens once the last worker exits
	go func() {
		p.wg.Wait()
		p.state.Store(int32(types.PoolTerminated))
		p.taskCancel()
		close(p.terminated)
		p.log.Info().Msg("pool terminated")
	}()

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				_ = p.ShutdownNow(context.Background())
			case <-p.terminated:
			}
		}()
	}

	p.log.Info().
		Int("workers", p.config.Workers).
		Int("queue_capacity", p.config.QueueCapacity).
		Msg("pool started")
	return nil
}

// Submit submits a task, blocking up to the configured SubmitTimeout while
// the queue is full. It returns the task's result handle.
func (p *Pool) Submit(task types.Task) (*future.Handle[any], error) {
	return p.SubmitWithTimeout(task, p.config.SubmitTimeout)
}

// SubmitFunc wraps fn into a task and submits it.
func (p *Pool) SubmitFunc(fn func(ctx context.Context) (any, error)) (*future.Handle[any], error) {
	return p.Submit(NewTask(fn))
}

// TrySubmit submits without blocking, failing with types.ErrQueueFull when
// no queue slot is free.
func (p *Pool) TrySubmit(task types.Task) (*future.Handle[any], error) {
	return p.SubmitWithTimeout(task, 0)
}

// SubmitWithTimeout submits a task, blocking up to timeout while the queue
// is full. A timeout of zero or less means no blocking. Submissions fail
// with types.ErrPoolNotStarted before Start and types.ErrPoolClosed once
// draining has begun.
func (p *Pool) SubmitWithTimeout(task types.Task, timeout time.Duration) (*future.Handle[any], error) {
	switch p.State() {
	case types.PoolRunning:
	case types.PoolCreated:
		return nil, types.ErrPoolNotStarted
	default:
		return nil, types.ErrPoolClosed
	}

	if task == nil {
		return nil, fmt.Errorf("task cannot be nil")
	}

	handle := future.New[any](task.ID(), p.config.Clock)
	env := &envelope{task: task, handle: handle}
	// the claim CAS runs this at most once per handle, so every successful
	// cancellation is counted even when the envelope already left the queue
	handle.SetDetach(func() bool {
		removed := p.queue.Remove(func(e *envelope) bool { return e == env })
		p.onCancelled()
		return removed
	})

	if timeout <= 0 {
		if err := p.queue.TryEnqueue(env); err != nil {
			return nil, p.submitError(err)
		}
		p.onSubmitted(task)
		return handle, nil
	}

	// the context exists only to carry the clock-driven deadline into the
	// queue's blocking wait
	waitCtx, cancelWait := context.WithCancel(context.Background())
	defer cancelWait()

	timer := p.config.Clock.NewTimer(timeout)
	defer timer.Stop()
	go func() {
		select {
		case <-timer.C():
			cancelWait()
		case <-waitCtx.Done():
		}
	}()

	if err := p.queue.Enqueue(waitCtx, env); err != nil {
		return nil, p.submitError(err)
	}
	p.onSubmitted(task)
	return handle, nil
}

// submitError maps queue errors onto the pool error taxonomy.
func (p *Pool) submitError(err error) error {
	switch {
	case errors.Is(err, types.ErrQueueClosed):
		return types.ErrPoolClosed
	case errors.Is(err, context.Canceled):
		return types.ErrSubmitTimeout
	default:
		return err
	}
}

// Shutdown drains the pool gracefully: no new submissions are accepted,
// queued tasks run to completion, then workers exit. It blocks until the
// pool terminates or ctx is cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.beginDrain(); err != nil {
		return err
	}
	p.log.Info().Msg("pool draining")

	select {
	case <-p.terminated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ShutdownNow stops the pool hard: queued tasks resolve Cancelled without
// running and the task context is cancelled so in-flight tasks that observe
// it resolve Cancelled too. It blocks until the pool terminates or ctx is
// cancelled.
func (p *Pool) ShutdownNow(ctx context.Context) error {
	if err := p.beginDrain(); err != nil && !errors.Is(err, types.ErrPoolClosed) {
		return err
	}

	for _, env := range p.queue.DrainAll() {
		env.handle.Cancel()
	}
	p.taskCancel()
	p.log.Info().Msg("pool stopping hard")

	select {
	case <-p.terminated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// beginDrain performs the Running -> Draining transition and closes the
// queue exactly once.
func (p *Pool) beginDrain() error {
	if !p.state.CompareAndSwap(int32(types.PoolRunning), int32(types.PoolDraining)) {
		switch p.State() {
		case types.PoolCreated:
			return types.ErrPoolNotStarted
		default:
			return types.ErrPoolClosed
		}
	}
	p.queue.Close()
	return nil
}

// Wait blocks until the pool has terminated or ctx is cancelled.
func (p *Pool) Wait(ctx context.Context) error {
	select {
	case <-p.terminated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the pool lifecycle state.
func (p *Pool) State() types.PoolState {
	return types.PoolState(p.state.Load())
}

// IsRunning checks if the pool is accepting submissions.
func (p *Pool) IsRunning() bool {
	return p.State() == types.PoolRunning
}

// Size returns the fixed worker count.
func (p *Pool) Size() int {
	return p.config.Workers
}

// QueueCapacity returns the fixed queue capacity.
func (p *Pool) QueueCapacity() int {
	return p.queue.Cap()
}

// Stats gets a snapshot of pool statistics.
func (p *Pool) Stats() types.PoolStats {
	return types.PoolStats{
		PoolSize:      p.config.Workers,
		ActiveWorkers: p.activeWorkers(),
		QueueDepth:    p.queue.Len(),
		QueueCapacity: p.queue.Cap(),
		Submitted:     atomic.LoadInt64(&p.submitted),
		Completed:     atomic.LoadInt64(&p.completed),
		Failed:        atomic.LoadInt64(&p.failed),
		Cancelled:     atomic.LoadInt64(&p.cancelled),
	}
}

// GetWorkerStats gets statistics of all workers.
func (p *Pool) GetWorkerStats() []WorkerStats {
	stats := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		stats[i] = w.Stats()
	}
	return stats
}

func (p *Pool) activeWorkers() int {
	var active int
	for _, w := range p.workers {
		if w.State() == WorkerStateWorking {
			active++
		}
	}
	return active
}

func (p *Pool) onSubmitted(task types.Task) {
	atomic.AddInt64(&p.submitted, 1)
	p.metrics.tasksSubmitted.Inc()
	p.log.Debug().Str("task_id", task.ID()).Msg("task submitted")
}

func (p *Pool) onCancelled() {
	atomic.AddInt64(&p.cancelled, 1)
	p.metrics.tasksCancelled.Inc()
}

// onTaskDone is the worker completion callback. The worker has already
// classified the outcome: nil, types.ErrTaskCancelled, or a TaskError.
func (p *Pool) onTaskDone(d time.Duration, err error) {
	p.metrics.taskDuration.Observe(d.Seconds())
	switch {
	case err == nil:
		atomic.AddInt64(&p.completed, 1)
		p.metrics.tasksCompleted.Inc()
	case errors.Is(err, types.ErrTaskCancelled):
		p.onCancelled()
	default:
		atomic.AddInt64(&p.failed, 1)
		p.metrics.tasksFailed.Inc()
	}
}
