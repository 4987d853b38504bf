// Package affinity implements the block-affinity matrix operations the
// search driver uses at every step of its descent: building the block edge
// count matrix from a membership vector, computing its profile likelihood,
// and merging two blocks on one side of the bipartition.
//
// Matrix is a small dense, row-major, symmetric accumulator sized
// (Ka+Kb)x(Ka+Kb). Rows/columns [0, Ka) index A-side blocks, rows/columns
// [Ka, Ka+Kb) index B-side blocks; in a bipartite block structure only the
// off-diagonal A-block/B-block quadrants are ever non-zero.
package affinity

import (
	"errors"
	"fmt"
)

// Sentinel errors for affinity operations.
var (
	// ErrInvalidDimensions indicates a non-positive Ka or Kb.
	ErrInvalidDimensions = errors.New("affinity: ka and kb must be positive")

	// ErrIndexOutOfBounds indicates a row/col index outside [0, Ka+Kb).
	ErrIndexOutOfBounds = errors.New("affinity: index out of bounds")
)

// Matrix is a dense (Ka+Kb)x(Ka+Kb) block-affinity matrix.
//
// Implementation:
//   - Stage 1: backing storage is one flat, row-major []float64 slice.
//   - Stage 2: At/Set index into that slice with bounds checks.
//   - Stage 3: Clone deep-copies the slice so callers can mutate a working
//     copy without aliasing a memoized store.ConfidentPoint.
type Matrix struct {
	ka, kb int
	data   []float64
}

// NewMatrix allocates a zeroed (ka+kb)x(ka+kb) matrix.
// Complexity: O((ka+kb)^2).
func NewMatrix(ka, kb int) (*Matrix, error) {
	if ka <= 0 || kb <= 0 {
		return nil, ErrInvalidDimensions
	}
	n := ka + kb
	return &Matrix{ka: ka, kb: kb, data: make([]float64, n*n)}, nil
}

// Ka returns the number of A-side blocks.
func (m *Matrix) Ka() int { return m.ka }

// Kb returns the number of B-side blocks.
func (m *Matrix) Kb() int { return m.kb }

// N returns the matrix dimension, Ka+Kb.
func (m *Matrix) N() int { return m.ka + m.kb }

func (m *Matrix) idx(r, c int) (int, error) {
	n := m.N()
	if r < 0 || r >= n || c < 0 || c >= n {
		return 0, fmt.Errorf("affinity: (%d,%d) against size %d: %w", r, c, n, ErrIndexOutOfBounds)
	}
	return r*n + c, nil
}

// At returns the value at (row, col). Panics never occur; an out-of-bounds
// access returns an error instead.
func (m *Matrix) At(row, col int) (float64, error) {
	i, err := m.idx(row, col)
	if err != nil {
		return 0, err
	}
	return m.data[i], nil
}

// Set writes val at (row, col).
func (m *Matrix) Set(row, col int, val float64) error {
	i, err := m.idx(row, col)
	if err != nil {
		return err
	}
	m.data[i] = val
	return nil
}

// Add accumulates delta into (row, col).
func (m *Matrix) Add(row, col int, delta float64) error {
	i, err := m.idx(row, col)
	if err != nil {
		return err
	}
	m.data[i] += delta
	return nil
}

// RowSum returns the sum of row r, the block degree e_r.
func (m *Matrix) RowSum(r int) (float64, error) {
	n := m.N()
	if r < 0 || r >= n {
		return 0, fmt.Errorf("affinity: row %d against size %d: %w", r, n, ErrIndexOutOfBounds)
	}
	var sum float64
	base := r * n
	for c := 0; c < n; c++ {
		sum += m.data[base+c]
	}
	return sum, nil
}

// Sum returns the sum of all entries, sum_{r,s} m_rs.
func (m *Matrix) Sum() float64 {
	var sum float64
	for _, v := range m.data {
		sum += v
	}
	return sum
}

// Symmetric reports whether m[r][c] == m[c][r] for every pair, within a
// small absolute tolerance — used by tests to lock in Build's invariant.
func (m *Matrix) Symmetric(tol float64) bool {
	n := m.N()
	for r := 0; r < n; r++ {
		for c := r + 1; c < n; c++ {
			a := m.data[r*n+c]
			b := m.data[c*n+r]
			d := a - b
			if d < 0 {
				d = -d
			}
			if d > tol {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy, safe for independent mutation.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{ka: m.ka, kb: m.kb, data: make([]float64, len(m.data))}
	copy(out.data, m.data)
	return out
}
