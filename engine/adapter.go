// Package engine implements the pluggable partition-engine contract:
// given a bipartite graph and a target (Ka, Kb), produce a
// membership assignment and its score, by driving an external (or
// in-process) community-detection engine across one or more sweeps.
package engine

import (
	"context"
	"errors"

	"github.com/go-bisbm/dkbisbm/bigraph"
)

// ErrEngineCrashed indicates the external engine process terminated
// abnormally (exit code -11, the subprocess convention for a SIGSEGV).
var ErrEngineCrashed = errors.New("engine: process crashed")

// Adapter runs one sweep of an external or in-process partition engine at
// a fixed (Ka, Kb) and returns the resulting membership and the engine's
// own score for it. The score is an engine-internal objective kept for
// diagnostics; Runner never selects between sweeps on it — selection and
// the old-DL short-circuit both use the caller-supplied Evaluator, so the
// quantity minimized across sweeps is the same description length the
// search descent itself minimizes.
type Adapter interface {
	Run(ctx context.Context, bg *bigraph.BipartiteGraph, ka, kb int) (bigraph.Membership, float64, error)
}

// Evaluator computes the absolute-mode description length of a candidate
// membership at the Runner's current (Ka, Kb). The search driver supplies
// one closing over its graph, partition table, and prior kinds; keeping
// it a plain function leaves this package free of any dependency on the
// description-length machinery.
type Evaluator func(mb bigraph.Membership) (float64, error)

// AdapterFunc adapts a plain function to the Adapter interface, the same
// convenience shape as http.HandlerFunc — useful for tests and for
// wrapping an in-process engine that needs no subprocess plumbing.
type AdapterFunc func(ctx context.Context, bg *bigraph.BipartiteGraph, ka, kb int) (bigraph.Membership, float64, error)

// Run calls f.
func (f AdapterFunc) Run(ctx context.Context, bg *bigraph.BipartiteGraph, ka, kb int) (bigraph.Membership, float64, error) {
	return f(ctx, bg, ka, kb)
}
