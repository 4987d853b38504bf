package affinity

import (
	"errors"
	"math/rand"
)

// ErrCannotMerge indicates both Ka and Kb are already 1; there is no block
// left to merge on either side.
var ErrCannotMerge = errors.New("affinity: cannot merge, ka and kb are both 1")

// MergedPair names the two original block indices a Merge call combined:
// Lo survives, Hi is folded into it. Both are indices into m's (Ka+Kb)
// index space before the merge. Callers (search.Driver) use this to
// relabel the full node membership vector: any node whose block id equals
// Hi is reassigned to Lo, and any node whose block id is greater than Hi
// is decremented by one to close the gap left by the removed block.
type MergedPair struct {
	Lo, Hi int
}

// Merge picks a side of the bipartition, a pair of blocks on that side,
// and returns a new matrix with that pair folded into one block.
//
// Side selection:
//   - If ka == 1, the B side is forced (A has nothing left to merge).
//   - If kb == 1, the A side is forced.
//   - Otherwise, a side is chosen at random, weighted by (ka, kb): side A
//     is chosen with probability ka/(ka+kb).
//
// Within the chosen side, block indices are permuted with rng and the
// first two of the permuted order are merged (lo = min, hi = max of the
// pair, in the matrix's original index space).
//
// Complexity: O((ka+kb)^2) to rebuild the matrix.
func Merge(m *Matrix, rng *rand.Rand) (*Matrix, int, int, MergedPair, error) {
	ka, kb := m.Ka(), m.Kb()
	if ka == 1 && kb == 1 {
		return nil, 0, 0, MergedPair{}, ErrCannotMerge
	}

	sideA := false
	switch {
	case ka == 1:
		sideA = false
	case kb == 1:
		sideA = true
	default:
		sideA = rng.Intn(ka+kb) < ka
	}

	var start, count int
	if sideA {
		start, count = 0, ka
	} else {
		start, count = ka, kb
	}

	indices := make([]int, count)
	for i := range indices {
		indices[i] = start + i
	}
	rng.Shuffle(count, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })

	lo, hi := indices[0], indices[1]
	if lo > hi {
		lo, hi = hi, lo
	}

	n := m.N()
	newIdxOf := make([]int, n)
	pos := 0
	for old := 0; old < n; old++ {
		if old == hi {
			continue
		}
		newIdxOf[old] = pos
		pos++
	}
	newIdxOf[hi] = newIdxOf[lo]

	newKa, newKb := ka, kb
	if sideA {
		newKa--
	} else {
		newKb--
	}

	out, err := NewMatrix(newKa, newKb)
	if err != nil {
		return nil, 0, 0, MergedPair{}, err
	}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			v, verr := m.At(r, c)
			if verr != nil {
				return nil, 0, 0, MergedPair{}, verr
			}
			if v == 0 {
				continue
			}
			if err = out.Add(newIdxOf[r], newIdxOf[c], v); err != nil {
				return nil, 0, 0, MergedPair{}, err
			}
		}
	}

	return out, newKa, newKb, MergedPair{Lo: lo, Hi: hi}, nil
}

// Relabel applies a MergedPair to a flat membership-style slice: ids
// equal to Hi collapse to Lo, ids greater than Hi shift down by one to
// close the gap.
func (p MergedPair) Relabel(ids []int) {
	for i, id := range ids {
		switch {
		case id == p.Hi:
			ids[i] = p.Lo
		case id > p.Hi:
			ids[i] = id - 1
		}
	}
}
