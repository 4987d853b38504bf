package affinity

import "github.com/go-bisbm/dkbisbm/bigraph"

// Occupancy returns the per-block node count n_r, indexed by block id in
// [0, numBlocks), derived from mb. A block with no nodes assigned to it
// reports 0.
func Occupancy(mb bigraph.Membership, numBlocks int) []int {
	occ := make([]int, numBlocks)
	for _, b := range mb {
		if b >= 0 && b < numBlocks {
			occ[b]++
		}
	}
	return occ
}

// DegreesByBlock groups bg's per-node degrees by block id, indexed by
// block id in [0, numBlocks): out[r] is the degree sequence of the nodes
// mb assigns to block r. Unlike Occupancy and a Matrix row sum (which
// only need block-level totals), the per-block degree-sequence entropy
// needs the individual node degrees making up each block.
func DegreesByBlock(bg *bigraph.BipartiteGraph, mb bigraph.Membership, numBlocks int) [][]int {
	degrees := bg.Degrees()
	out := make([][]int, numBlocks)
	for id, b := range mb {
		if b >= 0 && b < numBlocks {
			out[b] = append(out[b], degrees[id])
		}
	}
	return out
}
