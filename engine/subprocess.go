package engine

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-bisbm/dkbisbm/bigraph"
)

// SubprocessEngine is the reference Adapter wrapping an external
// KL-style partitioning binary: a 1-indexed edge list and a types
// file are written into a per-run directory, the configured binary is
// exec'd against them, and the best of its KLSteps candidate outputs
// (lowest score, read from biDCSBMcomms<i>.tsv/.score pairs) is returned.
//
// This is the one concrete Adapter a caller gets for free; any other
// partition engine, in-process or external, only needs to satisfy the
// Adapter interface.
type SubprocessEngine struct {
	// BinaryPath is the external KL-style partitioning executable.
	BinaryPath string
	// KLSteps bounds how many candidate groupings one invocation writes.
	KLSteps int
	// BaseDir holds this engine's per-run subdirectories.
	// NewSubprocessEngine fills it with a fresh os.MkdirTemp directory
	// when given an empty one.
	BaseDir string
}

// NewSubprocessEngine returns a SubprocessEngine; baseDir may be empty to
// use a freshly created temp directory.
func NewSubprocessEngine(binaryPath string, klSteps int, baseDir string) (*SubprocessEngine, error) {
	if baseDir == "" {
		dir, err := os.MkdirTemp("", "dkbisbm-engine-")
		if err != nil {
			return nil, fmt.Errorf("engine: creating base dir: %w", err)
		}
		baseDir = dir
	}
	return &SubprocessEngine{BinaryPath: binaryPath, KLSteps: klSteps, BaseDir: baseDir}, nil
}

// Clean removes the engine's base directory and everything under it.
func (e *SubprocessEngine) Clean() error {
	return os.RemoveAll(e.BaseDir)
}

// Run implements Adapter.
//
// Steps:
//  1. Create a per-call run directory under BaseDir.
//  2. Write the edge list (1-indexed, tab-separated) and the types file.
//  3. Exec BinaryPath with [edgelist, types, outDir, ka, kb, "1", KLSteps].
//  4. On abnormal exit, map SIGSEGV (-11) to ErrEngineCrashed.
//  5. Read back biDCSBMcomms<i>.tsv/.score for i in [0, KLSteps), picking
//     the lowest-score candidate.
func (e *SubprocessEngine) Run(ctx context.Context, bg *bigraph.BipartiteGraph, ka, kb int) (bigraph.Membership, float64, error) {
	runDir, err := os.MkdirTemp(e.BaseDir, "run-")
	if err != nil {
		return nil, 0, fmt.Errorf("engine: creating run dir: %w", err)
	}

	edgelistPath := filepath.Join(runDir, "edgelist.tsv")
	typesPath := filepath.Join(runDir, "types.tsv")
	if err = writeEdgelist1Indexed(edgelistPath, bg.Edges); err != nil {
		return nil, 0, err
	}
	if err = writeTypes(typesPath, bg.NA, bg.NB); err != nil {
		return nil, 0, err
	}

	args := []string{
		edgelistPath, typesPath, runDir,
		strconv.Itoa(ka), strconv.Itoa(kb), "1", strconv.Itoa(e.KLSteps),
	}
	cmd := exec.CommandContext(ctx, e.BinaryPath, args...)
	if runErr := cmd.Run(); runErr != nil {
		if code, ok := crashSignalCode(runErr); ok && code == -11 {
			return nil, 0, fmt.Errorf("engine: %s: %w", e.BinaryPath, ErrEngineCrashed)
		}
		return nil, 0, fmt.Errorf("engine: running %s: %w", e.BinaryPath, runErr)
	}

	return bestCandidate(runDir, e.KLSteps, bg.NumNodes())
}

// writeEdgelist1Indexed writes one "src\tdst" line per edge, 1-indexed.
func writeEdgelist1Indexed(path string, edges bigraph.EdgeList) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("engine: writing edge list: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range edges {
		if _, err = fmt.Fprintf(w, "%d\t%d\n", e.Src+1, e.Dst+1); err != nil {
			return fmt.Errorf("engine: writing edge list: %w", err)
		}
	}
	return w.Flush()
}

// writeTypes writes one line per node, "1" for side A, "2" for side B, in
// node-id order.
func writeTypes(path string, na, nb int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("engine: writing types file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := 0; i < na; i++ {
		if _, err = w.WriteString("1\n"); err != nil {
			return fmt.Errorf("engine: writing types file: %w", err)
		}
	}
	for i := 0; i < nb; i++ {
		if _, err = w.WriteString("2\n"); err != nil {
			return fmt.Errorf("engine: writing types file: %w", err)
		}
	}
	return w.Flush()
}

// bestCandidate scans runDir for biDCSBMcomms<i>.tsv/.score pairs, i in
// [0, klSteps), and returns the membership with the lowest score.
func bestCandidate(runDir string, klSteps, numNodes int) (bigraph.Membership, float64, error) {
	bestScore := 0.0
	var best bigraph.Membership
	found := false

	for i := 0; i < klSteps; i++ {
		scorePath := filepath.Join(runDir, fmt.Sprintf("biDCSBMcomms%d.score", i))
		score, err := readScore(scorePath)
		if err != nil {
			continue // a missing candidate index means the engine produced fewer than klSteps
		}
		if found && score >= bestScore {
			continue
		}
		groupPath := filepath.Join(runDir, fmt.Sprintf("biDCSBMcomms%d.tsv", i))
		mb, err := readMembership(groupPath, numNodes)
		if err != nil {
			return nil, 0, err
		}
		best, bestScore, found = mb, score, true
	}

	if !found {
		return nil, 0, fmt.Errorf("engine: no biDCSBMcomms<i> outputs found in %s", runDir)
	}

	return best, bestScore, nil
}

func readScore(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
}

func readMembership(path string, numNodes int) (bigraph.Membership, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("engine: reading %s: %w", path, err)
	}
	defer f.Close()

	mb := make(bigraph.Membership, 0, numNodes)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		b, perr := strconv.Atoi(line)
		if perr != nil {
			return nil, fmt.Errorf("engine: parsing %s: %w", path, perr)
		}
		mb = append(mb, b)
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("engine: reading %s: %w", path, err)
	}
	if len(mb) != numNodes {
		return nil, fmt.Errorf("engine: %s has %d entries, want %d", path, len(mb), numNodes)
	}

	return mb, nil
}
