package dl

import (
	"fmt"
	"math"

	"github.com/go-bisbm/dkbisbm/affinity"
	"github.com/go-bisbm/dkbisbm/bigraph"
	"github.com/go-bisbm/dkbisbm/partition"
)

// FittingEntropy is the data-fitting term of the absolute description
// length: e*(ln2 - I), matching the bracketed term Diff already divides
// by e — kept in the same shape so Absolute and Diff agree on a point
// both are asked to score (an internal consistency check exercised by
// TestAbsolute_AgreesWithDiffShape).
func FittingEntropy(e int, italicI float64) float64 {
	return float64(e) * (math.Ln2 - italicI)
}

// EdgeCountEntropy prices the edge-count matrix itself: e*(H(P/e) -
// H(1/e)), where P is the number of distinct block-pair slots under
// kind (Ka*Kb for a bipartite run, K*(K+1)/2 for a unipartite one).
func EdgeCountEntropy(ka, kb, e int, kind EdgeDLKind) float64 {
	fe := float64(e)
	return fe * (H(pairTypes(ka, kb, kind)/fe) - H(1/fe))
}

// PartitionEntropy prices the assignment of na type-A and nb type-B nodes
// into ka and kb blocks.
//
// PartitionDLKindUniform treats each node's block as an independent
// choice among K options: na*ln(ka) + nb*ln(kb); this already allows
// empty blocks by construction, so AllowEmpty has no further effect here.
//
// PartitionDLKindDistributed instead prices the occupancy vector via the
// restricted-partition table: ln q(na,ka) + ln q(nb,kb) when empty blocks
// are allowed, or ln q(na-ka,ka) + ln q(nb-kb,kb) when they are not —
// subtracting one node per block up front is the standard bijection
// between partitions of n into exactly k (nonempty) parts and partitions
// of n-k into at most k parts.
func PartitionEntropy(na, nb, ka, kb int, table *partition.Table, priors PriorKinds) (float64, error) {
	if priors.Partition != PartitionDLKindDistributed {
		return float64(na)*math.Log(float64(ka)) + float64(nb)*math.Log(float64(kb)), nil
	}
	if table == nil {
		return 0, fmt.Errorf("dl: distributed partition prior requires a partition table")
	}

	an, bn := na, nb
	if !priors.AllowEmpty {
		an, bn = na-ka, nb-kb
	}
	qa, err := table.Q(an, ka)
	if err != nil {
		return 0, fmt.Errorf("dl: partition entropy side A: %w", err)
	}
	qb, err := table.Q(bn, kb)
	if err != nil {
		return 0, fmt.Errorf("dl: partition entropy side B: %w", err)
	}
	return qa + qb, nil
}

// degreeSequenceEntropy returns -sum_i ln p(k_i), the Shannon entropy of
// degrees's empirical distribution scaled by len(degrees) — the "entropy"
// degree_dl_kind variant.
func degreeSequenceEntropy(degrees []int) float64 {
	if len(degrees) == 0 {
		return 0
	}
	counts := make(map[int]int, len(degrees))
	for _, k := range degrees {
		counts[k]++
	}
	n := float64(len(degrees))
	var s float64
	for _, c := range counts {
		p := float64(c) / n
		s -= float64(c) * math.Log(p)
	}
	return s
}

// DegreeEntropy prices the degree sequence within each block of m, one
// block r at a time, using its half-edge count e_r (m's row sum) and its
// node occupancy n_r (from mb):
//
//   - DegreeDLKindUniform: sum_r ln C(e_r+n_r-1, e_r), the log count of
//     compositions of e_r half-edges across n_r nodes (no table needed).
//   - DegreeDLKindDistributed: sum_r ln q(e_r, n_r), the degree-corrected
//     prior, looked up from table.
//   - DegreeDLKindEntropy: sum_r of each block's degree-sequence Shannon
//     entropy, computed directly from bg's per-node degrees.
//
// An empty block (n_r == 0) contributes nothing.
func DegreeEntropy(bg *bigraph.BipartiteGraph, mb bigraph.Membership, m *affinity.Matrix, table *partition.Table, kind DegreeDLKind) (float64, error) {
	n := m.N()
	occupancy := affinity.Occupancy(mb, n)

	if kind == DegreeDLKindEntropy {
		degreesByBlock := affinity.DegreesByBlock(bg, mb, n)
		var total float64
		for _, degrees := range degreesByBlock {
			total += degreeSequenceEntropy(degrees)
		}
		return total, nil
	}

	if kind == DegreeDLKindDistributed && table == nil {
		return 0, fmt.Errorf("dl: distributed degree prior requires a partition table")
	}

	var total float64
	for r := 0; r < n; r++ {
		if occupancy[r] == 0 {
			continue
		}
		er, err := m.RowSum(r)
		if err != nil {
			return 0, err
		}

		if kind == DegreeDLKindDistributed {
			q, qerr := table.Q(int(math.Round(er)), occupancy[r])
			if qerr != nil {
				return 0, fmt.Errorf("dl: degree entropy block %d: %w", r, qerr)
			}
			total += q
			continue
		}

		total += logMultisetChoose(er, float64(occupancy[r]))
	}
	return total, nil
}

// Absolute recomputes a full description length from scratch (rather than
// the incremental Diff used to rank merge candidates), for every
// committed ConfidentPoint and for the forced-recompute path
// (search.Driver.Compute):
//
//  1. Fitting entropy, from m's profile likelihood.
//  2. Edge-count entropy, under priors.Edge.
//  3. Partition entropy, under priors.Partition (and priors.AllowEmpty).
//  4. Degree entropy, under priors.Degree.
func Absolute(bg *bigraph.BipartiteGraph, m *affinity.Matrix, mb bigraph.Membership, table *partition.Table, priors PriorKinds) (float64, error) {
	e := bg.NumEdges()
	i, err := affinity.ItalicI(m, e)
	if err != nil {
		return 0, err
	}

	total := FittingEntropy(e, i)
	total += EdgeCountEntropy(m.Ka(), m.Kb(), e, priors.Edge)

	part, err := PartitionEntropy(bg.NA, bg.NB, m.Ka(), m.Kb(), table, priors)
	if err != nil {
		return 0, err
	}
	total += part

	deg, err := DegreeEntropy(bg, mb, m, table, priors.Degree)
	if err != nil {
		return 0, err
	}
	total += deg

	return total, nil
}
