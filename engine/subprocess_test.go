package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-bisbm/dkbisbm/engine"
)

// writeFakeBinary writes a tiny shell script standing in for the external
// KL binary: given the protocol's [edgelist, types, outDir, ka, kb, "1",
// klSteps] arguments, it writes one biDCSBMcomms<i>.tsv/.score pair per
// step directly into outDir, so SubprocessEngine's output-reading path can
// be exercised without a real partitioning binary.
func writeFakeBinary(t *testing.T, numNodes int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake binary is a POSIX shell script")
	}

	path := filepath.Join(t.TempDir(), "fake-kl.sh")
	script := `#!/bin/sh
outdir="$3"
steps="$7"
i=0
while [ "$i" -lt "$steps" ]; do
  echo "$((10 - i))" > "$outdir/biDCSBMcomms$i.score"
  > "$outdir/biDCSBMcomms$i.tsv"
  n=0
  while [ "$n" -lt NUMNODES ]; do
    echo 0 >> "$outdir/biDCSBMcomms$i.tsv"
    n=$((n+1))
  done
  i=$((i+1))
done
`
	script = strings.ReplaceAll(script, "NUMNODES", strconv.Itoa(numNodes))

	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestSubprocessEngine_PicksLowestScore(t *testing.T) {
	bg := fixtureGraph(t)
	bin := writeFakeBinary(t, bg.NumNodes())

	e, err := engine.NewSubprocessEngine(bin, 3, t.TempDir())
	require.NoError(t, err)
	defer e.Clean()

	mb, score, err := e.Run(context.Background(), bg, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 8.0, score, "step 2 writes score 10-2=8, the lowest of steps 0,1,2")
	assert.Len(t, mb, bg.NumNodes())
}
