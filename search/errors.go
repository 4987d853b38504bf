package search

import "errors"

// Sentinel errors for the search driver.
var (
	// ErrNoInitialPoint indicates Iterate found a non-positive initial
	// (Ka, Kb) configured.
	ErrNoInitialPoint = errors.New("search: driver has no valid starting (Ka,Kb) point configured")

	// ErrInvalidArgument indicates a configured value violates a
	// precondition: the initial block counts exceed a side's node count,
	// or the merge-acceptance threshold falls outside [0, 1).
	ErrInvalidArgument = errors.New("search: invalid driver argument")

	// ErrConvergence is a soft warning, not a hard failure: the descent
	// reached the trivial (1,1) partition on a graph that also looks
	// statistically indistinguishable from an Erdos-Renyi random
	// bipartite graph (as opposed to reaching (1,1) because the graph is,
	// say, complete bipartite). Iterate still returns a valid result
	// alongside this error; callers should treat it as advisory.
	ErrConvergence = errors.New("search: converged at (1,1) on a graph with no detectable block structure")
)
