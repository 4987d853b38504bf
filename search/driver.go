// Package search implements the merge-and-refine descent over the
// (Ka, Kb) lattice: starting from an initial block count on each side,
// it repeatedly proposes a pool of candidate merges, commits the
// least-harmful one when it materially changes the profile likelihood,
// probes the surrounding lattice neighborhood to rule out a false local
// minimum, and otherwise keeps descending.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/go-bisbm/dkbisbm/affinity"
	"github.com/go-bisbm/dkbisbm/bigraph"
	"github.com/go-bisbm/dkbisbm/dl"
	"github.com/go-bisbm/dkbisbm/engine"
	"github.com/go-bisbm/dkbisbm/partition"
	"github.com/go-bisbm/dkbisbm/store"
)

// Driver owns one descent over a single bipartite graph: it evaluates
// points by delegating to an engine.Runner, memoizes confident results
// in a store.Store, and proposes merges via affinity.Merge.
//
// A Driver is safe for concurrent use; its exported methods acquire mu
// for the duration of a call.
type Driver struct {
	mu sync.RWMutex

	bg      *bigraph.BipartiteGraph
	runner  *engine.Runner
	table   *partition.Table
	store   *store.Store
	rng     *rand.Rand
	logger  *slog.Logger
	metrics *Metrics
	priors  dl.PriorKinds

	initKa, initKb int
	iTh            float64
	adaptiveRatio  float64
	kthNeighbor    int
	sizeRowsToRun  int
}

// New returns a Driver over bg, driven by runner, configured by opts.
// Defaults: an empty store, a time-seeded *rand.Rand, slog.Default(),
// initKa = initKb = 10, iTh = DefaultInitialThreshold, adaptiveRatio =
// DefaultAdaptiveRatio, kthNeighbor = DefaultKthNeighbor, sizeRowsToRun =
// DefaultSizeRowsToRun.
func New(bg *bigraph.BipartiteGraph, runner *engine.Runner, opts ...Option) *Driver {
	d := &Driver{
		bg:            bg,
		runner:        runner,
		store:         store.New(),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:        slog.Default(),
		initKa:        10,
		initKb:        10,
		iTh:           DefaultInitialThreshold,
		adaptiveRatio: DefaultAdaptiveRatio,
		kthNeighbor:   DefaultKthNeighbor,
		sizeRowsToRun: DefaultSizeRowsToRun,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// evalFor returns the Evaluator the runner scores sweep memberships
// with at (ka, kb): a from-scratch dl.Absolute over the driver's graph,
// partition table, and prior kinds.
func (d *Driver) evalFor(ka, kb int) engine.Evaluator {
	return func(mb bigraph.Membership) (float64, error) {
		m, err := affinity.Build(d.bg, mb, ka, kb)
		if err != nil {
			return 0, err
		}
		return dl.Absolute(d.bg, m, mb, d.table, d.priors)
	}
}

// evaluatePoint returns the confident result at (ka, kb), computing and
// committing it if the store doesn't already hold one. The committed
// DescLen is always the absolute-mode description length, never the
// diff-mode value Diff produces for ranking merge candidates: the
// runner's evaluator recomputes dl.Absolute per sweep, so the membership
// it picks is the best under the exact quantity the descent minimizes.
func (d *Driver) evaluatePoint(ctx context.Context, ka, kb int) (store.ConfidentPoint, error) {
	p := store.Point{Ka: ka, Kb: kb}
	if cp, ok := d.store.Fetch(p); ok {
		return cp, nil
	}

	oldDescLen := math.Inf(1)
	if _, cp, ok := d.store.ArgMin(); ok {
		oldDescLen = cp.DescLen
	}

	mb, descLen, err := d.runner.Run(ctx, d.bg, ka, kb, oldDescLen, d.evalFor(ka, kb))
	if err != nil {
		return store.ConfidentPoint{}, fmt.Errorf("search: evaluating (%d,%d): %w", ka, kb, err)
	}
	if err = d.bg.Validate(bigraph.Membership(mb)); err != nil {
		return store.ConfidentPoint{}, fmt.Errorf("search: evaluating (%d,%d): %w", ka, kb, err)
	}

	m, err := affinity.Build(d.bg, mb, ka, kb)
	if err != nil {
		return store.ConfidentPoint{}, fmt.Errorf("search: evaluating (%d,%d): %w", ka, kb, err)
	}
	italicI, err := affinity.ItalicI(m, d.bg.NumEdges())
	if err != nil {
		return store.ConfidentPoint{}, fmt.Errorf("search: evaluating (%d,%d): %w", ka, kb, err)
	}

	cp := store.ConfidentPoint{DescLen: descLen, MeRs: m, ItalicI: italicI, Mb: mb}
	d.store.Commit(p, cp)

	if d.metrics != nil {
		d.metrics.PointsVisited.Inc()
		d.metrics.DescLen.Set(descLen)
	}
	d.logger.Debug("search: evaluated point", "ka", ka, "kb", kb, "desc_len", descLen)

	return cp, nil
}

// proposal is one candidate merge considered by a single Propose step:
// the resulting matrix and block counts, the pre-merge block pair that
// was folded together, and Δ = I_new - init_italic_i.
type proposal struct {
	matrix  *affinity.Matrix
	ka, kb  int
	pair    affinity.MergedPair
	italicI float64
	delta   float64
}

// propose generates up to (ka+kb)*sizeRowsToRun candidate merges of
// matrix and returns the one with the largest Δ (the least-harmful
// merge; ties keep the first generated). ok is false only when matrix
// has no block left to merge on either side (Ka == Kb == 1).
func (d *Driver) propose(matrix *affinity.Matrix, ka, kb int, initItalicI float64) (proposal, bool, error) {
	count := (ka + kb) * d.sizeRowsToRun
	if count < 1 {
		count = 1
	}

	var best proposal
	found := false
	for c := 0; c < count; c++ {
		merged, newKa, newKb, pair, merr := affinity.Merge(matrix, d.rng)
		if merr != nil {
			if errors.Is(merr, affinity.ErrCannotMerge) {
				break
			}
			return proposal{}, false, merr
		}

		candI, ierr := affinity.ItalicI(merged, d.bg.NumEdges())
		if ierr != nil {
			return proposal{}, false, ierr
		}
		delta := candI - initItalicI

		if !found || delta > best.delta {
			best = proposal{matrix: merged, ka: newKa, kb: newKb, pair: pair, italicI: candI, delta: delta}
			found = true
		}
	}
	return best, found, nil
}

// adopted is the descent's full working state at a lattice point: the
// coordinate, its matrix, its membership, and the reference italic_I a
// fresh batch of proposals is measured against.
type adopted struct {
	ka, kb      int
	matrix      *affinity.Matrix
	mb          bigraph.Membership
	initItalicI float64
}

func adoptPoint(p store.Point, cp store.ConfidentPoint) adopted {
	mb := make(bigraph.Membership, len(cp.Mb))
	copy(mb, cp.Mb)
	return adopted{ka: p.Ka, kb: p.Kb, matrix: cp.MeRs, mb: mb, initItalicI: cp.ItalicI}
}

// Iterate runs the merge-and-refine descent from the configured initial
// point until it reaches a local minimum of the (Ka, Kb) lattice, or
// until a safety bound on merge attempts is hit.
//
// It returns the description length recorded at every confident point
// visited, keyed by lattice coordinate. If the descent converges at
// (1, 1) and the graph looks statistically indistinguishable from an
// Erdos-Renyi random bipartite graph, the result is returned alongside
// ErrConvergence — a soft warning, not a failure.
func (d *Driver) Iterate(ctx context.Context) (map[store.Point]float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initKa <= 0 || d.initKb <= 0 {
		return nil, ErrNoInitialPoint
	}
	if d.initKa > d.bg.NA || d.initKb > d.bg.NB {
		return nil, fmt.Errorf("search: initial (%d,%d) exceeds side sizes (%d,%d): %w",
			d.initKa, d.initKb, d.bg.NA, d.bg.NB, ErrInvalidArgument)
	}
	if d.iTh < 0 || d.iTh >= 1 {
		return nil, fmt.Errorf("search: threshold %v outside [0,1): %w", d.iTh, ErrInvalidArgument)
	}

	initCP, err := d.evaluatePoint(ctx, d.initKa, d.initKb)
	if err != nil {
		return nil, err
	}
	state := adoptPoint(store.Point{Ka: d.initKa, Kb: d.initKb}, initCP)
	i0 := d.iTh

	maxAttempts := 8 * (d.bg.NA + d.bg.NB + 1)
	finalized := false

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		if state.ka == 1 && state.kb == 1 {
			break
		}

		cand, ok, perr := d.propose(state.matrix, state.ka, state.kb, state.initItalicI)
		if perr != nil {
			return nil, perr
		}
		if !ok {
			break
		}

		material := math.Abs(cand.delta) > i0*state.initItalicI
		if !material {
			// Transient: advance the trace membership by relabeling, but
			// never invoke the engine for an unaccepted merge. The diff-mode
			// DL is recorded in the trace so a later diagnostic pass can see
			// how far the chain got before its next commit, without paying
			// for a full Absolute recompute at every transient step.
			cand.pair.Relabel(state.mb)
			state.ka, state.kb, state.matrix = cand.ka, cand.kb, cand.matrix
			traceDL := dl.Diff(d.bg.NA, d.bg.NB, state.ka, state.kb, d.bg.NumEdges(), cand.italicI)
			d.store.CommitTransient(store.Point{Ka: state.ka, Kb: state.kb}, traceDL)
			d.logger.Debug("search: transient merge", "ka", state.ka, "kb", state.kb, "delta", cand.delta)
			continue
		}

		committedCP, cerr := d.evaluatePoint(ctx, cand.ka, cand.kb)
		if cerr != nil {
			return nil, cerr
		}
		state = adoptPoint(store.Point{Ka: cand.ka, Kb: cand.kb}, committedCP)

		argminPoint, argminCP, _ := d.store.ArgMin()
		if argminPoint != (store.Point{Ka: state.ka, Kb: state.kb}) {
			// The just-committed point didn't improve on the best seen
			// so far: suspect overshoot, tighten i0, and roll back.
			i0 *= d.adaptiveRatio
			state = adoptPoint(argminPoint, argminCP)
			if d.metrics != nil {
				d.metrics.MergesRolledBack.Inc()
			}
		} else if d.metrics != nil {
			d.metrics.MergesAccepted.Inc()
		}
		d.logger.Info("search: accepted merge", "ka", state.ka, "kb", state.kb, "desc_len", committedCP.DescLen, "i0", i0)

		atMin, lerr := d.isLocalMinimum(ctx, store.Point{Ka: state.ka, Kb: state.kb}, d.kthNeighbor)
		if lerr != nil {
			return nil, lerr
		}
		if atMin {
			finalized = true
			break
		}

		// A neighbor beat the current point: the neighborhood probe
		// already committed it, so roll the working state to whatever
		// is now the global argmin before continuing the descent.
		argminPoint, argminCP, _ = d.store.ArgMin()
		state = adoptPoint(argminPoint, argminCP)
	}

	if !finalized && state.ka == 1 && state.kb == 1 {
		if rerr := d.evaluateCorners(ctx); rerr != nil {
			return nil, rerr
		}
	}

	best, _, ok := d.store.ArgMin()
	result := make(map[store.Point]float64)
	for _, p := range d.store.Points() {
		cp, _ := d.store.Fetch(p)
		result[p] = cp.DescLen
	}

	if ok && best == (store.Point{Ka: 1, Kb: 1}) && d.checkIfRandomBipartite() {
		d.logger.Warn("search: converged at (1,1) on a graph with no detectable block structure")
		return result, ErrConvergence
	}
	return result, nil
}

// evaluateCorners forces a fresh evaluation of (1,1), (1,2), (2,1), and
// (2,2) — the descent's fallback when it reaches the trivial partition
// without the neighborhood test ever confirming a local minimum. Corners
// outside the graph's own side sizes are skipped.
func (d *Driver) evaluateCorners(ctx context.Context) error {
	for _, p := range []store.Point{{Ka: 1, Kb: 1}, {Ka: 1, Kb: 2}, {Ka: 2, Kb: 1}, {Ka: 2, Kb: 2}} {
		if p.Ka > d.bg.NA || p.Kb > d.bg.NB {
			continue
		}
		d.store.Delete(p)
		if _, err := d.evaluatePoint(ctx, p.Ka, p.Kb); err != nil {
			return err
		}
	}
	return nil
}

// Compute re-evaluates (ka, kb), optionally forcing a fresh computation
// even if a confident value is already memoized. With recompute == false
// this is equivalent to evaluatePoint.
func (d *Driver) Compute(ctx context.Context, ka, kb int, recompute bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if recompute {
		d.store.Delete(store.Point{Ka: ka, Kb: kb})
	}
	_, err := d.evaluatePoint(ctx, ka, kb)
	return err
}

// Summary is the final result of a descent: the best lattice point
// found, its description length, and the membership vector that
// produced it.
type Summary struct {
	Ka, Kb             int
	DescLen            float64
	Membership         bigraph.Membership
	ConvergenceWarning bool
}

// Summary returns the best confident point recorded so far.
func (d *Driver) Summary() (Summary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, cp, ok := d.store.ArgMin()
	if !ok {
		return Summary{}, fmt.Errorf("search: no confident point has been computed yet")
	}

	warn := p == (store.Point{Ka: 1, Kb: 1}) && d.checkIfRandomBipartite()
	return Summary{Ka: p.Ka, Kb: p.Kb, DescLen: cp.DescLen, Membership: cp.Mb, ConvergenceWarning: warn}, nil
}

// Clean discards every memoized point, confident and transient alike.
func (d *Driver) Clean() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.store.Clear()
}

// SetKthNeighborToSearch changes how many lattice steps in each
// direction the local-minimum test examines.
func (d *Driver) SetKthNeighborToSearch(k int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if k > 0 {
		d.kthNeighbor = k
	}
}

// SetAdaptiveRatio changes the factor the acceptance threshold is
// multiplied by on an overshoot rollback. Values outside (0, 1] are
// ignored: a ratio above 1 would let the threshold grow back, breaking
// its monotone tightening.
func (d *Driver) SetAdaptiveRatio(r float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r > 0 && r <= 1 {
		d.adaptiveRatio = r
	}
}
