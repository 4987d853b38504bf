// Package dkbisbm infers the number of blocks (Ka, Kb) on each side of a
// bipartite network under the degree-corrected biSBM, by minimum
// description length model selection over a merge-and-refine search.
//
// The package is a thin facade over its subpackages:
//
//	bigraph/   — the validated bipartite input graph and membership type
//	affinity/  — the block affinity matrix (m_e_rs), merge, profile likelihood
//	partition/ — the mmap-backed restricted partition table q(n,k)
//	dl/        — description-length calculators (diff and absolute)
//	engine/    — the pluggable partition-engine contract and subprocess adapter
//	parallel/  — a bounded-concurrency sweep executor
//	store/     — insertion-ordered memoization of points visited
//	search/    — the descent driver itself
//
// Typical use constructs a bigraph.BipartiteGraph, wraps an
// engine.Adapter in an engine.Runner, and drives the search with New:
//
//	bg, _ := bigraph.New(na, nb, edges)
//	runner := engine.NewRunner(engine.AdapterFunc(myEngine))
//	driver := dkbisbm.New(bg, runner, dkbisbm.WithInitK(10, 10))
//	result, err := driver.Iterate(ctx)
//
//	go get github.com/go-bisbm/dkbisbm
package dkbisbm
