package clip

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

// Executor runs jobs one at a time on a single goroutine. Every endpoint of
// one backend kind shares an Executor.
type Executor struct {
	name      string
	jobs      chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// NewExecutor starts an executor. Call Close to stop its goroutine.
func NewExecutor(name string) *Executor {
	e := &Executor{
		name: name,
		jobs: make(chan func()),
		done: make(chan struct{}),
	}
	go e.loop()
	return e
}

func (e *Executor) loop() {
	for {
		select {
		case job := <-e.jobs:
			job()
		case <-e.done:
			return
		}
	}
}

// Close stops accepting jobs. A job already running finishes.
func (e *Executor) Close() {
	e.closeOnce.Do(func() { close(e.done) })
}

// Do runs job on the executor and waits for it.
func (e *Executor) Do(ctx context.Context, job func() error) error {
	_, err := Call(ctx, e, func() (struct{}, error) {
		return struct{}{}, job()
	})
	return err
}

// Call runs job on e and waits for its result. If ctx ends first Call
// returns ctx.Err(); the job still runs to completion and its result is
// dropped.
func Call[T any](ctx context.Context, e *Executor, job func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	run := func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				ch <- result{zero, fmt.Errorf("%s executor: job panicked: %v\n%s", e.name, r, debug.Stack())}
			}
		}()
		v, err := job()
		ch <- result{v, err}
	}

	var zero T
	select {
	case e.jobs <- run:
	case <-e.done:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
