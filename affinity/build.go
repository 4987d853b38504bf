package affinity

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-bisbm/dkbisbm/bigraph"
)

// ErrMembershipMismatch indicates a node's block id fell outside the side
// it belongs to: an A-side node must map to a block in [0, Ka), a B-side
// node to a block in [Ka, Ka+Kb).
var ErrMembershipMismatch = errors.New("affinity: membership assigns a node to a block on the wrong side")

// Build constructs m_e_rs from bg's edge list and mb, the current
// membership vector. A-side nodes must carry block ids in [0, Ka); B-side
// nodes must carry block ids in [Ka, Ka+Kb).
//
// Steps:
//  1. Validate ka, kb and len(mb) == bg.NumNodes().
//  2. Allocate the (Ka+Kb)x(Ka+Kb) matrix.
//  3. For each edge (u,v), u on side A and v on side B (bg.New already
//     rejected same-side edges), add 1 at (mb[u], mb[v]) and 1 at
//     (mb[v], mb[u]) to keep the matrix symmetric.
//
// Complexity: O(e).
func Build(bg *bigraph.BipartiteGraph, mb bigraph.Membership, ka, kb int) (*Matrix, error) {
	if ka <= 0 || kb <= 0 {
		return nil, ErrInvalidDimensions
	}
	if len(mb) != bg.NumNodes() {
		return nil, fmt.Errorf("affinity: membership length %d does not match node count %d", len(mb), bg.NumNodes())
	}

	m, err := NewMatrix(ka, kb)
	if err != nil {
		return nil, err
	}

	for id, b := range mb {
		isA := bg.IsTypeA(id)
		if isA && (b < 0 || b >= ka) {
			return nil, fmt.Errorf("affinity: node %d (side A) has block %d, want [0,%d): %w", id, b, ka, ErrMembershipMismatch)
		}
		if !isA && (b < ka || b >= ka+kb) {
			return nil, fmt.Errorf("affinity: node %d (side B) has block %d, want [%d,%d): %w", id, b, ka, ka+kb, ErrMembershipMismatch)
		}
	}

	for _, e := range bg.Edges {
		r, s := mb[e.Src], mb[e.Dst]
		if !bg.IsTypeA(e.Src) {
			r, s = s, r
		}
		if err = m.Add(r, s, 1); err != nil {
			return nil, err
		}
		if err = m.Add(s, r, 1); err != nil {
			return nil, err
		}
	}

	return m, nil
}


// ItalicI computes the profile likelihood
//
//	I = sum_{r,s: m_rs>0} (m_rs / 2e) * log(m_rs * 2e / (e_r * e_s))
//
// where e_r, e_s are the block degrees (row/col sums) and e is the total
// edge count. In a bipartite matrix every non-zero entry sits in the
// A-block x B-block quadrant and its mirror, so the sum walks that
// quadrant once with the prefactor m_rs/e instead of visiting both
// mirrored entries at m_rs/2e each. I is 0 when e is 0.
func ItalicI(m *Matrix, e int) (float64, error) {
	if e <= 0 {
		return 0, nil
	}
	ka, kb := m.Ka(), m.Kb()
	n := m.N()

	rowSums := make([]float64, n)
	for r := 0; r < n; r++ {
		s, err := m.RowSum(r)
		if err != nil {
			return 0, err
		}
		rowSums[r] = s
	}

	fe := float64(e)
	var total float64
	for r := 0; r < ka; r++ {
		if rowSums[r] == 0 {
			continue
		}
		for s := ka; s < ka+kb; s++ {
			mrs, err := m.At(r, s)
			if err != nil {
				return 0, err
			}
			if mrs <= 0 || rowSums[s] == 0 {
				continue
			}
			total += mrs * math.Log(mrs*2*fe/(rowSums[r]*rowSums[s]))
		}
	}

	return total / fe, nil
}
