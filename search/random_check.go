package search

import "math"

// checkIfRandomBipartite estimates whether bg is statistically close to
// an Erdos-Renyi bipartite random graph, as opposed to merely trivial
// (e.g. complete bipartite, which also converges to the (1,1) partition
// but is not random). It compares each side's observed degree variance
// against the variance a Binomial(n_other_side, p) degree distribution
// would produce under a uniform-probability null model.
//
// This is a variance-ratio heuristic, not a formal hypothesis test: a
// complete or regular graph has near-zero degree variance and is
// reported as not random; an Erdos-Renyi graph's variance sits close to
// its binomial expectation and is reported as random.
func (d *Driver) checkIfRandomBipartite() bool {
	degrees := d.bg.Degrees()
	na, nb := d.bg.NA, d.bg.NB
	if na == 0 || nb == 0 {
		return false
	}

	aDeg, bDeg := degrees[:na], degrees[na:]
	aMean, bMean := meanOf(aDeg), meanOf(bDeg)
	aVar, bVar := varOf(aDeg, aMean), varOf(bDeg, bMean)

	e := float64(d.bg.NumEdges())
	p := e / (float64(na) * float64(nb))
	expectedAVar := float64(nb) * p * (1 - p)
	expectedBVar := float64(na) * p * (1 - p)

	const tol = 0.5 // allow 50% relative deviation from the ER expectation
	closeA := expectedAVar > 1e-9 && math.Abs(aVar-expectedAVar) < tol*expectedAVar
	closeB := expectedBVar > 1e-9 && math.Abs(bVar-expectedBVar) < tol*expectedBVar

	return closeA && closeB
}

func meanOf(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

func varOf(xs []int, mean float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		diff := float64(x) - mean
		sum += diff * diff
	}
	return sum / float64(len(xs))
}
