// Package parallel implements a bounded-concurrency worker pool with
// per-call timeouts and input-ordered results, used to fan out
// engine-adapter sweeps at a single (Ka, Kb) point without unbounded
// goroutine growth.
//
// Go forbids type parameters on methods beyond a type's own, so Map is a
// package-level generic function taking an *Executor rather than a
// generic method — the idiomatic workaround for a generic "map" operation
// bound to a concurrency-limited resource.
package parallel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Func is one unit of work: given a context (carrying the executor's
// per-call timeout, if any) and an input, produce a result or an error.
type Func[T, R any] func(ctx context.Context, in T) (R, error)

// Executor bounds how many Func calls run concurrently and how long each
// individual call may take.
type Executor struct {
	workers int
	timeout time.Duration
}

// New returns an Executor running at most workers calls concurrently,
// each individual call bounded by timeout (0 means no per-call timeout).
// workers below 1 is clamped to 1.
func New(workers int, timeout time.Duration) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{workers: workers, timeout: timeout}
}

// Map runs fn over every element of inputs, at most ex.workers at a time,
// and returns results in the same order as inputs regardless of
// completion order.
//
// Cancellation: if ctx is cancelled while Map is waiting for a free
// worker slot, Map stops scheduling new calls and returns once goroutines
// already started have finished — in-flight calls are allowed to
// complete, but their results are discarded.
func Map[T, R any](ctx context.Context, ex *Executor, fn Func[T, R], inputs []T) ([]R, error) {
	results := make([]R, len(inputs))
	errs := make([]error, len(inputs))

	sem := semaphore.NewWeighted(int64(ex.workers))
	var wg sync.WaitGroup

	var cancelErr error
	for i, in := range inputs {
		if err := sem.Acquire(ctx, 1); err != nil {
			cancelErr = fmt.Errorf("parallel: cancelled before scheduling input %d: %w", i, err)
			break
		}
		wg.Add(1)
		go func(i int, in T) {
			defer wg.Done()
			defer sem.Release(1)

			callCtx := ctx
			if ex.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, ex.timeout)
				defer cancel()
			}
			results[i], errs[i] = fn(callCtx, in)
		}(i, in)
	}

	wg.Wait()

	if cancelErr != nil {
		return nil, cancelErr
	}
	for i, err := range errs {
		if err != nil {
			return results, fmt.Errorf("parallel: input %d: %w", i, err)
		}
	}

	return results, nil
}
