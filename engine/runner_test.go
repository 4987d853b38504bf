package engine_test

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-bisbm/dkbisbm/bigraph"
	"github.com/go-bisbm/dkbisbm/engine"
)

func fixtureGraph(t *testing.T) *bigraph.BipartiteGraph {
	t.Helper()
	bg, err := bigraph.New(2, 2, bigraph.EdgeList{{Src: 0, Dst: 2}, {Src: 1, Dst: 3}})
	require.NoError(t, err)
	return bg
}

// headEval scores a membership by its first entry, which the adapters
// below use as a sweep tag — a stand-in for the driver's dl.Absolute
// closure.
func headEval(dls []float64) engine.Evaluator {
	return func(mb bigraph.Membership) (float64, error) {
		return dls[mb[0]], nil
	}
}

func TestRunner_SequentialPicksBestDescLenAcrossSweeps(t *testing.T) {
	bg := fixtureGraph(t)
	dls := []float64{5, 2, 9, 1}
	var call int32

	// The adapter reports a constant internal score for every sweep; only
	// the evaluator can tell the sweeps apart, so picking the sweep whose
	// membership evaluates to 1.0 proves selection runs on the evaluator's
	// description length, not the adapter's score.
	adapter := engine.AdapterFunc(func(_ context.Context, _ *bigraph.BipartiteGraph, _, _ int) (bigraph.Membership, float64, error) {
		i := atomic.AddInt32(&call, 1) - 1
		return bigraph.Membership{int(i), 0, 1, 1}, 0, nil
	})

	r := engine.NewRunner(adapter, engine.WithMaxSweeps(len(dls)))
	mb, descLen, err := r.Run(context.Background(), bg, 1, 1, math.Inf(1), headEval(dls))
	require.NoError(t, err)
	assert.Equal(t, 1.0, descLen)
	assert.Equal(t, 3, mb[0])
	assert.EqualValues(t, len(dls), call)
}

func TestRunner_SequentialShortCircuitsOnOldDescLen(t *testing.T) {
	bg := fixtureGraph(t)
	var call int32
	adapter := engine.AdapterFunc(func(_ context.Context, _ *bigraph.BipartiteGraph, _, _ int) (bigraph.Membership, float64, error) {
		atomic.AddInt32(&call, 1)
		return bigraph.Membership{0, 0, 1, 1}, 0, nil
	})
	eval := func(bigraph.Membership) (float64, error) { return 3.0, nil }

	r := engine.NewRunner(adapter, engine.WithMaxSweeps(10))
	_, descLen, err := r.Run(context.Background(), bg, 1, 1, 5.0, eval) // 3 < 5, should stop after sweep 1
	require.NoError(t, err)
	assert.Equal(t, 3.0, descLen)
	assert.EqualValues(t, 1, call)
}

func TestRunner_ParallelRunsEverySweep(t *testing.T) {
	bg := fixtureGraph(t)
	dls := []float64{7, 4, 6, 2, 9, 8}
	var call int32
	adapter := engine.AdapterFunc(func(_ context.Context, _ *bigraph.BipartiteGraph, _, _ int) (bigraph.Membership, float64, error) {
		i := atomic.AddInt32(&call, 1) - 1
		return bigraph.Membership{int(i), 0, 1, 1}, 0, nil
	})

	r := engine.NewRunner(adapter, engine.WithMaxSweeps(len(dls)), engine.WithParallel(3))
	_, descLen, err := r.Run(context.Background(), bg, 1, 1, 0, headEval(dls)) // oldDescLen ignored in parallel mode
	require.NoError(t, err)
	assert.Equal(t, 2.0, descLen)
	assert.EqualValues(t, len(dls), call, "parallel mode must run every sweep, no short-circuit")
}

func TestRunner_PropagatesAdapterError(t *testing.T) {
	bg := fixtureGraph(t)
	wantErr := errors.New("boom")
	adapter := engine.AdapterFunc(func(_ context.Context, _ *bigraph.BipartiteGraph, _, _ int) (bigraph.Membership, float64, error) {
		return nil, 0, wantErr
	})
	eval := func(bigraph.Membership) (float64, error) { return 0, nil }

	r := engine.NewRunner(adapter, engine.WithMaxSweeps(3))
	_, _, err := r.Run(context.Background(), bg, 1, 1, math.Inf(1), eval)
	assert.ErrorIs(t, err, wantErr)
}

func TestRunner_RequiresEvaluator(t *testing.T) {
	bg := fixtureGraph(t)
	adapter := engine.AdapterFunc(func(_ context.Context, _ *bigraph.BipartiteGraph, _, _ int) (bigraph.Membership, float64, error) {
		return bigraph.Membership{0, 0, 1, 1}, 0, nil
	})

	r := engine.NewRunner(adapter)
	_, _, err := r.Run(context.Background(), bg, 1, 1, math.Inf(1), nil)
	assert.Error(t, err)
}
