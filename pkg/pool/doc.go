/*
Package pool implements a bounded concurrent task pool with backpressure.

# Overview

A Pool owns a fixed set of worker goroutines pulling from a bounded FIFO
queue. Producers block while the queue is full, which bounds memory instead
of growing an unbounded backlog. Every accepted submission returns a
future.Handle resolved exactly once with the task's outcome.

# Lifecycle

A pool moves through four states:

	Created -> Running -> Draining -> Terminated

Start begins Running. Shutdown begins Draining: no new submissions are
accepted and queued tasks run to completion. ShutdownNow also drains but
cancels queued tasks and interrupts in-flight ones through their context;
tasks that observe the cancellation resolve Cancelled. Terminated is reached
once every worker has exited.

# Guarantees

  - Tasks start in FIFO submission order; completion order across workers is
    not guaranteed.
  - Each task is executed by at most one worker and its handle resolves
    exactly once.
  - A task failure or panic is captured into a types.TaskError delivered via
    the handle; it never takes down a worker or the pool.
  - Submitting to a draining or terminated pool fails synchronously with
    types.ErrPoolClosed.

# Usage

	p, err := pool.New(&pool.Config{Workers: 4, QueueCapacity: 64})
	if err != nil {
		log.Fatal(err)
	}
	if err := p.Start(context.Background()); err != nil {
		log.Fatal(err)
	}

	h, err := p.SubmitFunc(func(ctx context.Context) (any, error) {
		return compute(ctx)
	})
	if err != nil {
		log.Fatal(err)
	}

	v, err := h.Await(context.Background(), 5*time.Second)

	_ = p.Shutdown(context.Background())

Pass a prometheus.Registerer in Config to expose submission, completion,
queue depth and duration metrics; pass a zerolog.Logger to log lifecycle
transitions and task failures.
*/
package pool
