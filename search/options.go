package search

import (
	"log/slog"
	"math/rand"

	"github.com/go-bisbm/dkbisbm/dl"
	"github.com/go-bisbm/dkbisbm/partition"
)

// Default tuning constants for a fresh Driver.
const (
	DefaultInitialThreshold = 0.1
	DefaultAdaptiveRatio    = 0.9
	DefaultKthNeighbor      = 1
	DefaultSizeRowsToRun    = 1
)

// Option configures a Driver, mirroring dfs.Option's functional-options
// shape.
type Option func(*Driver)

// WithRand threads an explicit *rand.Rand through the merge sampler
// instead of a process-global source, for reproducible runs.
func WithRand(r *rand.Rand) Option {
	return func(d *Driver) {
		if r != nil {
			d.rng = r
		}
	}
}

// WithLogger installs a structured logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics installs Prometheus instrumentation (NewMetrics).
func WithMetrics(m *Metrics) Option {
	return func(d *Driver) { d.metrics = m }
}

// WithInitK sets the starting (Ka, Kb) lattice point for Iterate.
func WithInitK(ka, kb int) Option {
	return func(d *Driver) { d.initKa, d.initKb = ka, kb }
}

// WithInitialThreshold sets i_0, the initial merge-acceptance threshold.
func WithInitialThreshold(iTh float64) Option {
	return func(d *Driver) { d.iTh = iTh }
}

// WithAdaptiveRatio sets the factor the threshold is multiplied by on an
// overshoot rollback.
func WithAdaptiveRatio(r float64) Option {
	return func(d *Driver) { d.adaptiveRatio = r }
}

// WithKthNeighbor sets how many lattice steps in each direction the
// local-minimum test examines.
func WithKthNeighbor(k int) Option {
	return func(d *Driver) {
		if k > 0 {
			d.kthNeighbor = k
		}
	}
}

// WithSizeRowsToRun sets how many merge candidates, per unit of (Ka+Kb),
// the Propose step generates at each descent step before picking the
// least-harmful one.
func WithSizeRowsToRun(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.sizeRowsToRun = n
		}
	}
}

// WithPartitionTable supplies the restricted-partition table Absolute
// needs for the distributed partition and degree priors, used for every
// evaluated point.
func WithPartitionTable(t *partition.Table) Option {
	return func(d *Driver) { d.table = t }
}

// WithPriors selects the prior kinds dl.Absolute uses for every
// evaluated point. The zero value needs no partition table; selecting
// dl.DegreeDLKindDistributed or dl.PartitionDLKindDistributed requires
// one (WithPartitionTable).
func WithPriors(p dl.PriorKinds) Option {
	return func(d *Driver) { d.priors = p }
}
