// Package store implements the search driver's memoization table: an
// insertion-ordered map from a (Ka, Kb) lattice point to the confident
// result computed there, plus a separate transient trace of points
// visited but not yet accepted.
//
// Go's map has no defined iteration order, but the descent's
// "argmin over points visited so far, preferring earlier insertion on
// ties" semantics (mirroring Python's OrderedDict) needs one. Store keeps
// a parallel slice of keys in insertion order alongside the map to recover
// it deterministically.
package store

import (
	"sync"

	"github.com/go-bisbm/dkbisbm/affinity"
	"github.com/go-bisbm/dkbisbm/bigraph"
)

// Point is a (Ka, Kb) lattice coordinate, the memoization key.
type Point struct {
	Ka, Kb int
}

// ConfidentPoint is the full result recorded at a Point once the search
// driver is confident it reflects a converged local computation (as
// opposed to a transient value recorded for a merge the driver did not
// evaluate through the engine).
type ConfidentPoint struct {
	DescLen float64
	MeRs    *affinity.Matrix
	ItalicI float64
	Mb      bigraph.Membership
}

// Store holds confident points, insertion-ordered, guarded by a
// sync.RWMutex so that it is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	order  []Point
	points map[Point]ConfidentPoint

	transient map[Point]float64 // Point -> DescLen, for points not yet confident
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		points:    make(map[Point]ConfidentPoint),
		transient: make(map[Point]float64),
	}
}

// Commit records cp as the confident result at p. Committing an existing
// point overwrites its value without disturbing its original insertion
// order, matching OrderedDict's update-in-place semantics.
func (s *Store) Commit(p Point, cp ConfidentPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.points[p]; !exists {
		s.order = append(s.order, p)
	}
	s.points[p] = cp
	delete(s.transient, p)
}

// CommitTransient records a description length at p without promoting it
// to a confident point — the search driver's "propose, then test" step
// before acceptance.
func (s *Store) CommitTransient(p Point, descLen float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transient[p] = descLen
}

// Fetch returns the confident point at p, if any.
func (s *Store) Fetch(p Point) (ConfidentPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.points[p]
	return cp, ok
}

// FetchTransient returns the transient description length at p, if any.
func (s *Store) FetchTransient(p Point) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.transient[p]
	return v, ok
}

// ArgMin returns the Point with the lowest DescLen among confident
// points, preferring the earliest-inserted point on exact ties. Returns
// ok == false if no confident point has been committed yet.
func (s *Store) ArgMin() (Point, ConfidentPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return Point{}, ConfidentPoint{}, false
	}

	best := s.order[0]
	bestCP := s.points[best]
	for _, p := range s.order[1:] {
		cp := s.points[p]
		if cp.DescLen < bestCP.DescLen {
			best, bestCP = p, cp
		}
	}

	return best, bestCP, true
}

// Len returns the number of confident points committed.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Points returns the confident points in insertion order.
func (s *Store) Points() []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Point, len(s.order))
	copy(out, s.order)
	return out
}

// Delete removes p from the confident table (and any transient entry at
// p), used by the forced-recompute path to drop a stale memoized value
// before re-evaluating that point from scratch.
func (s *Store) Delete(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.points[p]; ok {
		delete(s.points, p)
		for i, q := range s.order {
			if q == p {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	delete(s.transient, p)
}

// Clear empties both the confident and transient tables.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.points = make(map[Point]ConfidentPoint)
	s.transient = make(map[Point]float64)
}
