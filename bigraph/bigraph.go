// Package bigraph defines the bipartite input graph: two disjoint node
// sides (A, B), an edge list that only ever connects across sides, and the
// node-to-block membership vector the search and engine packages refine.
//
// Node IDs are global and contiguous: ids [0, NA) belong to side A, ids
// [NA, NA+NB) belong to side B. This mirrors the degree-corrected biSBM
// convention of a single flattened membership vector spanning both sides,
// so a Membership produced by an engine run or a search.Driver step can be
// indexed directly without a side-aware remap.
package bigraph

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors for bigraph construction.
var (
	// ErrNonPositiveSize indicates na or nb was not a positive integer.
	ErrNonPositiveSize = errors.New("bigraph: na and nb must be positive")

	// ErrNodeOutOfRange indicates an edge endpoint fell outside [0, NA+NB).
	ErrNodeOutOfRange = errors.New("bigraph: edge endpoint out of range")

	// ErrIntraTypeEdge indicates an edge connected two nodes on the same
	// side.
	ErrIntraTypeEdge = errors.New("bigraph: edge connects two nodes of the same type")

	// ErrEmptyEdgeList indicates a graph was constructed with no edges.
	ErrEmptyEdgeList = errors.New("bigraph: edge list is empty")
)

// NodeType distinguishes the two sides of a bipartite graph.
type NodeType uint8

const (
	// TypeA marks a node belonging to the first bipartite side.
	TypeA NodeType = iota
	// TypeB marks a node belonging to the second bipartite side.
	TypeB
)

// String renders the node type for logging and error messages.
func (t NodeType) String() string {
	if t == TypeA {
		return "A"
	}
	return "B"
}

// Edge is a single bipartite connection, Src and Dst are global node ids.
type Edge struct {
	Src, Dst int
}

// EdgeList is an ordered collection of bipartite edges.
type EdgeList []Edge

// Membership maps a global node id to a block id. Block ids [0, Ka) belong
// to side-A blocks, block ids [Ka, Ka+Kb) belong to side-B blocks.
type Membership []int

// BipartiteGraph is the validated, immutable input graph: two node sides
// sized NA and NB, and an edge list connecting them. It owns its own
// node/edge bookkeeping directly on the flat Edges slice — there is no
// intermediate graph structure, since every downstream consumer
// (affinity.Build, Degrees, SortedEdges) only ever needs the edge list and
// the NA/NB split, never adjacency queries, traversal, or mutation.
type BipartiteGraph struct {
	NA, NB int
	Edges  EdgeList
}

// New validates na, nb, and edges, and builds the bipartite graph.
//
// Steps:
//  1. Reject non-positive na/nb (ErrNonPositiveSize) and an empty edge list
//     (ErrEmptyEdgeList).
//  2. Reject out-of-range endpoints (ErrNodeOutOfRange) and same-side
//     endpoints (ErrIntraTypeEdge); parallel edges between the same pair
//     of nodes are left as-is, since they are common in real bipartite
//     networks and every downstream consumer tolerates them.
func New(na, nb int, edges EdgeList) (*BipartiteGraph, error) {
	if na <= 0 || nb <= 0 {
		return nil, ErrNonPositiveSize
	}
	if len(edges) == 0 {
		return nil, ErrEmptyEdgeList
	}

	n := na + nb
	for i, e := range edges {
		if e.Src < 0 || e.Src >= n || e.Dst < 0 || e.Dst >= n {
			return nil, fmt.Errorf("bigraph: edge %d (%d,%d): %w", i, e.Src, e.Dst, ErrNodeOutOfRange)
		}
		if (e.Src < na) == (e.Dst < na) {
			return nil, fmt.Errorf("bigraph: edge %d (%d,%d): %w", i, e.Src, e.Dst, ErrIntraTypeEdge)
		}
	}

	out := make(EdgeList, len(edges))
	copy(out, edges)

	return &BipartiteGraph{NA: na, NB: nb, Edges: out}, nil
}

// NumNodes returns the total node count, NA+NB.
func (bg *BipartiteGraph) NumNodes() int { return bg.NA + bg.NB }

// NumEdges returns the edge count, e.
func (bg *BipartiteGraph) NumEdges() int { return len(bg.Edges) }

// IsTypeA reports whether the global node id belongs to side A.
func (bg *BipartiteGraph) IsTypeA(id int) bool { return id < bg.NA }

// NodeType reports which side a global node id belongs to.
func (bg *BipartiteGraph) NodeType(id int) NodeType {
	if bg.IsTypeA(id) {
		return TypeA
	}
	return TypeB
}

// Degrees returns the per-node degree vector, indexed by global node id,
// counting each incident edge once (no self-loops are possible in a
// bipartite graph, so there is no double-counting ambiguity).
func (bg *BipartiteGraph) Degrees() []int {
	d := make([]int, bg.NumNodes())
	for _, e := range bg.Edges {
		d[e.Src]++
		d[e.Dst]++
	}
	return d
}

// Validate reports whether mb assigns a block id to every node and every
// block id referenced is non-negative, as a defensive check before handing
// a caller-supplied Membership to affinity.Build.
func (bg *BipartiteGraph) Validate(mb Membership) error {
	if len(mb) != bg.NumNodes() {
		return fmt.Errorf("bigraph: membership length %d does not match node count %d", len(mb), bg.NumNodes())
	}
	for id, b := range mb {
		if b < 0 {
			return fmt.Errorf("bigraph: node %d has negative block id %d", id, b)
		}
	}
	return nil
}

// SortedEdges returns a copy of Edges sorted by (Src, Dst), a deterministic
// order for reproducible tests and golden output.
func (bg *BipartiteGraph) SortedEdges() EdgeList {
	out := make(EdgeList, len(bg.Edges))
	copy(out, bg.Edges)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Src != out[j].Src {
			return out[i].Src < out[j].Src
		}
		return out[i].Dst < out[j].Dst
	})
	return out
}
