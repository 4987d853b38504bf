package dl_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-bisbm/dkbisbm/affinity"
	"github.com/go-bisbm/dkbisbm/bigraph"
	"github.com/go-bisbm/dkbisbm/dl"
	"github.com/go-bisbm/dkbisbm/partition"
)

func TestH_ZeroAtZero(t *testing.T) {
	assert.Equal(t, 0.0, dl.H(0))
	assert.Equal(t, 0.0, dl.H(-1))
	assert.Greater(t, dl.H(1), 0.0)
}

func TestDiff_KnownShape(t *testing.T) {
	v := dl.Diff(10, 10, 2, 2, 40, 0.1)
	assert.False(t, v != v, "Diff must not return NaN for ordinary inputs")
}

func TestDiffUnipartite_PairCountUsesTriangularForm(t *testing.T) {
	v1 := dl.DiffUnipartite(20, 2, 40, 0.1)
	v2 := dl.DiffUnipartite(20, 3, 40, 0.1)
	assert.NotEqual(t, v1, v2, "k(k+1)/2 term must vary with k")
}

// TestAbsolute_AgreesWithDiffShape locks in the shared shape of the two
// DL entry points: Diff's per-edge value, times e, equals the fitting,
// edge-count, and uniform-partition terms of the absolute formula. The
// degree term is the only piece Diff leaves out.
func TestAbsolute_AgreesWithDiffShape(t *testing.T) {
	na, nb, ka, kb, e := 10, 12, 2, 3, 40
	italicI := 0.25

	part, err := dl.PartitionEntropy(na, nb, ka, kb, nil, dl.PriorKinds{})
	require.NoError(t, err)
	sum := dl.FittingEntropy(e, italicI) +
		dl.EdgeCountEntropy(ka, kb, e, dl.EdgeDLKindBipartite) +
		part

	assert.InDelta(t, dl.Diff(na, nb, ka, kb, e, italicI), sum/float64(e), 1e-9)
}

func buildFixture(t *testing.T) (*bigraph.BipartiteGraph, bigraph.Membership, *affinity.Matrix) {
	t.Helper()
	edges := make(bigraph.EdgeList, 0, 25)
	for a := 0; a < 5; a++ {
		for b := 0; b < 5; b++ {
			edges = append(edges, bigraph.Edge{Src: a, Dst: 5 + b})
		}
	}
	bg, err := bigraph.New(5, 5, edges)
	require.NoError(t, err)
	mb := make(bigraph.Membership, 10)
	for i := 5; i < 10; i++ {
		mb[i] = 1
	}
	m, err := affinity.Build(bg, mb, 1, 1)
	require.NoError(t, err)
	return bg, mb, m
}

func TestAbsolute_ZeroValuePriorsNeedNoTable(t *testing.T) {
	bg, mb, m := buildFixture(t)
	v, err := dl.Absolute(bg, m, mb, nil, dl.PriorKinds{})
	require.NoError(t, err)
	assert.False(t, v != v)
}

func TestAbsolute_RequiresTableForDistributedDegreePrior(t *testing.T) {
	bg, mb, m := buildFixture(t)
	_, err := dl.Absolute(bg, m, mb, nil, dl.PriorKinds{Degree: dl.DegreeDLKindDistributed})
	assert.Error(t, err)
}

func TestAbsolute_RequiresTableForDistributedPartitionPrior(t *testing.T) {
	bg, mb, m := buildFixture(t)
	_, err := dl.Absolute(bg, m, mb, nil, dl.PriorKinds{Partition: dl.PartitionDLKindDistributed})
	assert.Error(t, err)
}

func TestAbsolute_WithTable(t *testing.T) {
	bg, mb, m := buildFixture(t)
	path := filepath.Join(t.TempDir(), "q.bin")
	table, err := partition.Build(bg.NumEdges(), bg.NumNodes(), partition.CellWidth16, path)
	require.NoError(t, err)
	defer table.Close()

	v, err := dl.Absolute(bg, m, mb, table, dl.PriorKinds{
		Partition: dl.PartitionDLKindDistributed,
		Degree:    dl.DegreeDLKindDistributed,
	})
	require.NoError(t, err)
	assert.False(t, v != v)
}

func TestAbsolute_EntropyDegreeKindNeedsNoTable(t *testing.T) {
	bg, mb, m := buildFixture(t)
	v, err := dl.Absolute(bg, m, mb, nil, dl.PriorKinds{Degree: dl.DegreeDLKindEntropy})
	require.NoError(t, err)
	assert.False(t, v != v)
}

func TestDegreeEntropy_DistributedSumsPerBlock(t *testing.T) {
	bg, mb, m := buildFixture(t)
	path := filepath.Join(t.TempDir(), "q.bin")
	table, err := partition.Build(25, 10, partition.CellWidth16, path)
	require.NoError(t, err)
	defer table.Close()

	v, err := dl.DegreeEntropy(bg, mb, m, table, dl.DegreeDLKindDistributed)
	require.NoError(t, err)

	// m is a single block per side (Ka=Kb=1) over the complete bipartite
	// fixture, so each block's half-edge count is the full e=25 and its
	// occupancy is its side's node count.
	qa, _ := table.Q(25, 5)
	qb, _ := table.Q(25, 5)
	assert.InDelta(t, qa+qb, v, 1e-9)
}

func TestDegreeEntropy_UniformNeedsNoTable(t *testing.T) {
	bg, mb, m := buildFixture(t)
	v, err := dl.DegreeEntropy(bg, mb, m, nil, dl.DegreeDLKindUniform)
	require.NoError(t, err)
	assert.False(t, v != v)
}

func TestPartitionEntropy_AllowEmptyChangesDistributedValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.bin")
	table, err := partition.Build(20, 10, partition.CellWidth16, path)
	require.NoError(t, err)
	defer table.Close()

	withEmpty, err := dl.PartitionEntropy(10, 10, 2, 2, table, dl.PriorKinds{
		Partition: dl.PartitionDLKindDistributed, AllowEmpty: true,
	})
	require.NoError(t, err)
	withoutEmpty, err := dl.PartitionEntropy(10, 10, 2, 2, table, dl.PriorKinds{
		Partition: dl.PartitionDLKindDistributed, AllowEmpty: false,
	})
	require.NoError(t, err)
	assert.NotEqual(t, withEmpty, withoutEmpty)
}

func TestEdgeCountEntropy_VariesWithKind(t *testing.T) {
	bipartite := dl.EdgeCountEntropy(2, 3, 20, dl.EdgeDLKindBipartite)
	unipartite := dl.EdgeCountEntropy(2, 3, 20, dl.EdgeDLKindUnipartite)
	assert.NotEqual(t, bipartite, unipartite, "Ka*Kb and K(K+1)/2 pair counts must diverge for Ka != Kb")
}
