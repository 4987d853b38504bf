package dkbisbm

import (
	"context"

	"github.com/go-bisbm/dkbisbm/bigraph"
	"github.com/go-bisbm/dkbisbm/engine"
	"github.com/go-bisbm/dkbisbm/search"
	"github.com/go-bisbm/dkbisbm/store"
)

// Point is a (Ka, Kb) lattice coordinate, re-exporting store.Point.
type Point = store.Point

// Option configures a Driver at construction, re-exporting search.Option
// so callers never need to import the search package directly.
type Option = search.Option

// Re-export the search.With* constructors under the root package so
// callers configuring a Driver never need to import search directly.
var (
	WithRand             = search.WithRand
	WithLogger           = search.WithLogger
	WithMetrics          = search.WithMetrics
	WithInitK            = search.WithInitK
	WithInitialThreshold = search.WithInitialThreshold
	WithAdaptiveRatio    = search.WithAdaptiveRatio
	WithKthNeighbor      = search.WithKthNeighbor
	WithSizeRowsToRun    = search.WithSizeRowsToRun
	WithPartitionTable   = search.WithPartitionTable
	WithPriors           = search.WithPriors
)

// The search sentinels are re-exported so callers can errors.Is against
// them without importing search directly.
var (
	ErrNoInitialPoint  = search.ErrNoInitialPoint
	ErrInvalidArgument = search.ErrInvalidArgument
	ErrConvergence     = search.ErrConvergence
)

// Summary is the descent's final result: the best (Ka, Kb) found, its
// description length, and the membership that produced it.
type Summary = search.Summary

// Driver infers (Ka, Kb) for a single bipartite graph. It wraps
// search.Driver; see that package for the descent algorithm itself.
type Driver struct {
	inner *search.Driver
}

// New constructs a Driver over bg, evaluating candidate points by
// driving runner (typically wrapping an engine.SubprocessEngine or a
// caller-supplied in-process engine.Adapter).
func New(bg *bigraph.BipartiteGraph, runner *engine.Runner, opts ...Option) *Driver {
	return &Driver{inner: search.New(bg, runner, opts...)}
}

// Iterate runs the merge-and-refine descent to a local minimum of the
// (Ka, Kb) lattice. See search.Driver.Iterate for the convergence and
// ErrConvergence semantics.
func (d *Driver) Iterate(ctx context.Context) (map[Point]float64, error) {
	return d.inner.Iterate(ctx)
}

// ComputeAndUpdate evaluates (ka, kb) directly, bypassing the descent
// loop. With recompute == true, any memoized value at that point is
// discarded first, forcing a fresh engine run.
func (d *Driver) ComputeAndUpdate(ctx context.Context, ka, kb int, recompute bool) error {
	return d.inner.Compute(ctx, ka, kb, recompute)
}

// Summary returns the best confident point found so far.
func (d *Driver) Summary() (Summary, error) {
	return d.inner.Summary()
}

// Clean discards every memoized point, confident and transient alike.
func (d *Driver) Clean() {
	d.inner.Clean()
}

// SetKthNeighborToSearch changes how many lattice steps in each
// direction the local-minimum test examines.
func (d *Driver) SetKthNeighborToSearch(k int) {
	d.inner.SetKthNeighborToSearch(k)
}

// SetAdaptiveRatio changes the factor the merge-acceptance threshold is
// multiplied by on an overshoot rollback.
func (d *Driver) SetAdaptiveRatio(r float64) {
	d.inner.SetAdaptiveRatio(r)
}
