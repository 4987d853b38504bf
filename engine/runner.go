package engine

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"

	"github.com/go-bisbm/dkbisbm/bigraph"
	"github.com/go-bisbm/dkbisbm/parallel"
)

// DefaultMaxSweeps is the sweep count a Runner uses when WithMaxSweeps is
// not supplied.
const DefaultMaxSweeps = 10

// Option configures a Runner.
type Option func(*Runner)

// WithMaxSweeps bounds how many times the adapter is invoked per Run call.
func WithMaxSweeps(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxSweeps = n
		}
	}
}

// WithParallel fans sweeps out across workers concurrent goroutines via
// parallel.Executor, instead of running them one at a time. Parallel mode
// always runs every sweep (no short-circuit).
func WithParallel(workers int) Option {
	return func(r *Runner) {
		r.parallel = true
		r.workers = workers
	}
}

// WithRateLimit paces adapter invocations (and therefore subprocess
// spawns, for SubprocessEngine) to at most limit per second with the
// given burst, avoiding a fork-bomb under a large parallel sweep fan-out.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(r *Runner) { r.limiter = rate.NewLimiter(limit, burst) }
}

// Runner drives an Adapter across one or more sweeps at a fixed (Ka, Kb)
// and returns the result with the lowest description length, as computed
// by the Evaluator passed to Run.
type Runner struct {
	adapter   Adapter
	maxSweeps int
	parallel  bool
	workers   int
	limiter   *rate.Limiter
	exec      *parallel.Executor
}

// NewRunner returns a Runner driving adapter, configured by opts.
func NewRunner(adapter Adapter, opts ...Option) *Runner {
	r := &Runner{adapter: adapter, maxSweeps: DefaultMaxSweeps}
	for _, opt := range opts {
		opt(r)
	}
	if r.parallel {
		workers := r.workers
		if workers < 1 {
			workers = r.maxSweeps
		}
		r.exec = parallel.New(workers, 0)
	}
	return r
}

func (r *Runner) wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}

// Run drives the configured sweep strategy at (ka, kb), scoring every
// sweep's membership with eval and returning the one with the lowest
// description length. oldDescLen is the description length to beat for
// the sequential short-circuit; pass +Inf to disable it. In parallel
// mode oldDescLen is ignored.
func (r *Runner) Run(ctx context.Context, bg *bigraph.BipartiteGraph, ka, kb int, oldDescLen float64, eval Evaluator) (bigraph.Membership, float64, error) {
	if eval == nil {
		return nil, 0, fmt.Errorf("engine: runner requires an evaluator")
	}
	if r.parallel {
		return r.runParallel(ctx, bg, ka, kb, eval)
	}
	return r.runSequential(ctx, bg, ka, kb, oldDescLen, eval)
}

// runSequential invokes the adapter one sweep at a time, recomputing the
// description length of each sweep's membership and stopping as soon as
// the best-so-far beats oldDescLen.
func (r *Runner) runSequential(ctx context.Context, bg *bigraph.BipartiteGraph, ka, kb int, oldDescLen float64, eval Evaluator) (bigraph.Membership, float64, error) {
	bestDL := math.Inf(1)
	var bestMb bigraph.Membership
	found := false

	for i := 0; i < r.maxSweeps; i++ {
		if err := r.wait(ctx); err != nil {
			return nil, 0, err
		}
		mb, _, err := r.adapter.Run(ctx, bg, ka, kb)
		if err != nil {
			return nil, 0, err
		}
		descLen, err := eval(mb)
		if err != nil {
			return nil, 0, err
		}
		if !found || descLen < bestDL {
			bestMb, bestDL, found = mb, descLen, true
		}
		if !math.IsInf(oldDescLen, 1) && bestDL < oldDescLen {
			break
		}
	}

	if !found {
		return nil, 0, fmt.Errorf("engine: runner produced no sweeps")
	}
	return bestMb, bestDL, nil
}

// runParallel fans every sweep out via parallel.Executor, always running
// all r.maxSweeps of them (no short-circuit), then reduces the collected
// memberships sequentially under eval.
func (r *Runner) runParallel(ctx context.Context, bg *bigraph.BipartiteGraph, ka, kb int, eval Evaluator) (bigraph.Membership, float64, error) {
	indices := make([]int, r.maxSweeps)
	results, err := parallel.Map(ctx, r.exec, func(callCtx context.Context, _ int) (bigraph.Membership, error) {
		if werr := r.wait(callCtx); werr != nil {
			return nil, werr
		}
		mb, _, rerr := r.adapter.Run(callCtx, bg, ka, kb)
		return mb, rerr
	}, indices)
	if err != nil {
		return nil, 0, err
	}

	bestDL := math.Inf(1)
	var bestMb bigraph.Membership
	for _, mb := range results {
		descLen, everr := eval(mb)
		if everr != nil {
			return nil, 0, everr
		}
		if descLen < bestDL {
			bestMb, bestDL = mb, descLen
		}
	}
	return bestMb, bestDL, nil
}
