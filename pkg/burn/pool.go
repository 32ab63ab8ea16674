package burn

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Status records how a single worker came up. A non-nil Err means the
// worker could not be pinned to its CPU and runs unpinned instead.
type Status struct {
	Worker int
	Err    error
}

// Pool drives a group of busy-loop workers, one per logical CPU index in
// [0, workers). Each worker locks its goroutine to an OS thread, attempts
// to pin that thread to its CPU and then burns cycles until cancelled.
type Pool struct {
	workers int

	batchFunc func(float64) float64
	lockFunc  func()
	pinFunc   func(cpu int) error

	pinErrorHandler func(worker int, err error)

	statuses []Status

	runGroup sync.WaitGroup
}

var errInvalidWorkerCount = errors.New("burn: worker count must be positive")

// NewPool constructs a pool with the provided worker count.
func NewPool(workers int) (*Pool, error) {
	if workers <= 0 {
		return nil, errInvalidWorkerCount
	}

	poolInstance := new(Pool)
	poolInstance.workers = workers
	poolInstance.batchFunc = batch
	poolInstance.lockFunc = runtime.LockOSThread
	poolInstance.pinFunc = pinToCPU
	poolInstance.statuses = make([]Status, workers)
	poolInstance.SetPinErrorHandler(nil)

	return poolInstance, nil
}

// Start launches the worker goroutines and blocks until every worker has
// completed its pin attempt, so Statuses is stable once Start returns.
// The workers themselves keep burning until the context is cancelled.
func (p *Pool) Start(ctx context.Context) {
	var pinned sync.WaitGroup

	pinned.Add(p.workers)
	p.runGroup.Add(p.workers)

	for index := range p.workers {
		go p.worker(ctx, index, &pinned)
	}

	pinned.Wait()
}

// Wait blocks until every worker goroutine has returned. There is no
// timeout: a worker that never observes cancellation holds the caller.
func (p *Pool) Wait() {
	p.runGroup.Wait()
}

// Workers returns the number of worker goroutines managed by the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// Statuses reports the pin outcome of each worker, indexed by CPU.
// Valid once Start has returned.
func (p *Pool) Statuses() []Status {
	out := make([]Status, len(p.statuses))
	copy(out, p.statuses)

	return out
}

// PinFailures counts workers whose affinity pin failed.
func (p *Pool) PinFailures() int {
	failures := 0

	for _, status := range p.statuses {
		if status.Err != nil {
			failures++
		}
	}

	return failures
}

// SetPinErrorHandler installs a hook invoked from the worker goroutine
// when its pin attempt fails.
//
// A nil handler resets the hook to a no-op.
func (p *Pool) SetPinErrorHandler(handler func(worker int, err error)) {
	if handler == nil {
		handler = func(int, error) {}
	}

	p.pinErrorHandler = handler
}

func (p *Pool) worker(ctx context.Context, index int, pinned *sync.WaitGroup) {
	defer p.runGroup.Done()

	batchFn := p.batchFunc
	lockFn := p.lockFunc
	pinFn := p.pinFunc
	pinErrorHandler := p.pinErrorHandler

	lockFn()

	err := pinFn(index)
	p.statuses[index] = Status{Worker: index, Err: err}

	if err != nil {
		pinErrorHandler(index, err)
	}

	pinned.Done()

	x := seed

	for {
		select {
		case <-ctx.Done():
			return
		default:
			x = batchFn(x)
			publish(x)
		}
	}
}
