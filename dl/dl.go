// Package dl implements the description-length (DL) calculators the
// search driver minimizes over: the "diff" formula used to score a
// candidate merge mid-descent, and an "absolute" formula used for
// every committed point and for a from-scratch recompute of a confident
// point.
//
// The bipartite and unipartite formulas below share the same underlying
// profile-likelihood quantity (affinity.ItalicI).
package dl

import "math"

// PartitionDLKind selects how the assignment of nodes to blocks is priced
// in the model-complexity term of Absolute.
type PartitionDLKind int

const (
	// PartitionDLKindUniform prices the partition as an unconstrained
	// assignment of each node to one of K blocks, independent of the
	// other nodes (log(K^n), the zero-value default — no partition table
	// required).
	PartitionDLKindUniform PartitionDLKind = iota
	// PartitionDLKindDistributed prices the partition using the
	// restricted-partition count q(n,k), the non-uniform prior over how
	// many nodes land in each block.
	PartitionDLKindDistributed
)

// DegreeDLKind selects the prior used for the degree-sequence term.
type DegreeDLKind int

const (
	// DegreeDLKindUniform treats every node's degree as exchangeable
	// within its block, prices the degree sequence as a composition of
	// the block's half-edge count over its node count (the zero-value
	// default — no partition table required).
	DegreeDLKindUniform DegreeDLKind = iota
	// DegreeDLKindDistributed uses the degree-corrected prior: the
	// restricted-partition count q(e_r, n_r), summed per block.
	DegreeDLKindDistributed
	// DegreeDLKindEntropy prices each block's degree sequence by the
	// Shannon entropy of its empirical degree distribution, rather than a
	// combinatorial count.
	DegreeDLKindEntropy
)

// EdgeDLKind selects how many distinct block-pair "slots" the edge-count
// prior distributes e edges across.
type EdgeDLKind int

const (
	// EdgeDLKindBipartite counts edge placements over the Ka*Kb
	// A-block/B-block pair types (the zero-value default, appropriate for
	// a biSBM run).
	EdgeDLKindBipartite EdgeDLKind = iota
	// EdgeDLKindUnipartite counts edge placements over the K*(K+1)/2
	// unordered pair types of a single K-block partition, for a
	// non-bipartite comparison run.
	EdgeDLKindUnipartite
)

// PriorKinds bundles the prior choices Absolute accepts. The zero value
// selects the combinatorially cheapest variant of each term, none of
// which requires a partition table.
type PriorKinds struct {
	Partition PartitionDLKind
	Degree    DegreeDLKind
	Edge      EdgeDLKind
	// AllowEmpty permits empty blocks in the distributed partition prior
	// (PartitionDLKindDistributed); ignored otherwise.
	AllowEmpty bool
}

// H computes (1+x)*ln(1+x) - x*ln(x), with H(0) = 0 by convention.
func H(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return (1+x)*math.Log1p(x) - x*math.Log(x)
}

// logMultisetChoose returns ln C(total+bins-1, total), the log count of
// ways to place total indistinguishable edge-ends into bins
// distinguishable bins (the "stars and bars" identity) — the combinatorial
// backbone of the uniform degree-count prior.
func logMultisetChoose(total, bins float64) float64 {
	if bins <= 0 {
		return 0
	}
	a, _ := math.Lgamma(total + bins)
	b, _ := math.Lgamma(total + 1)
	c, _ := math.Lgamma(bins)
	return a - b - c
}

// pairTypes returns the number of distinct block-pair slots edges can
// land in, under kind.
func pairTypes(ka, kb int, kind EdgeDLKind) float64 {
	if kind == EdgeDLKindUnipartite {
		k := ka + kb
		return float64(k*(k+1)) / 2
	}
	return float64(ka * kb)
}

// Diff computes the bipartite "diff-mode" description length used to rank
// candidate merges during the descent's Propose step:
//
//	dl = [na*ln(Ka) + nb*ln(Kb) - e*(I - ln2)] / e + H(Ka*Kb/e) - H(1/e)
//
// I is the matrix's profile likelihood (affinity.ItalicI); e, na, nb are
// the graph's edge and node counts.
func Diff(na, nb, ka, kb, e int, italicI float64) float64 {
	fe := float64(e)
	term := float64(na)*math.Log(float64(ka)) + float64(nb)*math.Log(float64(kb)) - fe*(italicI-math.Ln2)
	return term/fe + H(float64(ka*kb)/fe) - H(1/fe)
}

// DiffUnipartite is the non-bipartite sibling of Diff, for a unipartite
// graph of n nodes partitioned into k blocks:
//
//	dl = [n*ln(K) - e*I] / e + H(K*(K+1)/(2*e)) - H(1/e)
//
// The k(k+1)/2 term (rather than ka*kb) reflects that a unipartite
// affinity matrix's independent entries are the upper triangle including
// the diagonal, not a Ka x Kb cross product. There is no ln2 offset
// against the null either: a unipartite profile likelihood bottoms out
// at 0 for the trivial one-block partition, not at the ln2 floor a
// bipartite type split guarantees.
func DiffUnipartite(n, k, e int, italicI float64) float64 {
	fe := float64(e)
	term := float64(n)*math.Log(float64(k)) - fe*italicI
	pairs := float64(k*(k+1)) / 2
	return term/fe + H(pairs/fe) - H(1/fe)
}
