// Package partition implements the restricted integer partition table
// q(n,k): the number of ways to partition n into at most k positive parts,
// via the recurrence q(n,k) = q(n,k-1) + q(n-k,k), with q(0,k) = 1 and
// q(n,0) = 0 for n > 0.
//
// q(n,k) grows combinatorially — for the network sizes this module targets
// (n up to the edge count e), raw counts overflow any fixed-width integer
// almost immediately. Table resolves the byte-overflow question by never
// storing raw counts at all: it computes and persists
// ln(q(n,k)) instead, which stays representable in a float64 at any table
// size. CellWidth then governs purely the on-disk quantization precision
// of that log value (8-bit or 16-bit fixed point), a space/precision
// tradeoff rather than a correctness one.
package partition

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
)

// Sentinel errors for partition table construction and lookup.
var (
	// ErrNonPositiveSize indicates n or kMax was negative.
	ErrNonPositiveSize = errors.New("partition: n and kMax must be non-negative")

	// ErrIndexOutOfRange indicates a Q(n,k) lookup fell outside the built table.
	ErrIndexOutOfRange = errors.New("partition: (n,k) outside built table range")

	// ErrClosed indicates a lookup was attempted after Close.
	ErrClosed = errors.New("partition: table is closed")

	// ErrWidthMismatch indicates an on-disk cell width that does not match
	// an expected one. Open takes the width from the file header and does
	// not return this error.
	ErrWidthMismatch = errors.New("partition: on-disk cell width does not match")
)

// CellWidth selects the on-disk fixed-point precision for persisted log
// values.
type CellWidth uint8

const (
	// CellWidth8 quantizes each log value into a single byte (256 levels,
	// one reserved for -Inf/q==0).
	CellWidth8 CellWidth = iota
	// CellWidth16 quantizes each log value into two bytes (65536 levels).
	CellWidth16
)

func (w CellWidth) bytesPerCell() int {
	if w == CellWidth16 {
		return 2
	}
	return 1
}

func (w CellWidth) sentinel() uint32 {
	if w == CellWidth16 {
		return 65535
	}
	return 255
}

const headerSize = 40 // n(8) + k(8) + min(8) + max(8) + width(1), padded

// Table is a disk-backed q(n,k) lookup table, built once and reused across
// a SearchDriver run's many description-length evaluations.
type Table struct {
	n, k   int
	width  CellWidth
	min    float64
	max    float64
	region *mmapRegion
	file   *os.File
	closed bool
}

// logSumExp returns ln(e^a + e^b) without overflowing, treating -Inf as
// the additive identity (ln 0).
func logSumExp(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	if a < b {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}

// computeLogQ fills an (n+1)x(kMax+1) table of ln(q(i,j)) via the
// recurrence, row i depending only on row i and i-j of the same pass, so a
// single forward sweep over k for each n suffices.
// Complexity: O(n*kMax).
func computeLogQ(n, kMax int) [][]float64 {
	rows, cols := n+1, kMax+1
	t := make([][]float64, rows)
	for i := range t {
		t[i] = make([]float64, cols)
	}
	negInf := math.Inf(-1)
	for k := 0; k < cols; k++ {
		t[0][k] = 0 // q(0,k) = 1
	}
	for i := 1; i < rows; i++ {
		t[i][0] = negInf // q(n,0) = 0 for n > 0
		for k := 1; k < cols; k++ {
			a := t[i][k-1]
			b := negInf
			if i-k >= 0 {
				b = t[i-k][k]
			}
			t[i][k] = logSumExp(a, b)
		}
	}
	return t
}

// Build computes q(n,k) for n in [0,n], k in [0,kMax] and persists it as a
// memory-mapped file at path.
func Build(n, kMax int, width CellWidth, path string) (*Table, error) {
	if n < 0 || kMax < 0 {
		return nil, ErrNonPositiveSize
	}

	logQ := computeLogQ(n, kMax)

	min, max := math.Inf(1), math.Inf(-1)
	for _, row := range logQ {
		for _, v := range row {
			if math.IsInf(v, -1) {
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	if math.IsInf(min, 1) {
		min, max = 0, 0 // degenerate: every cell is q==0
	}

	cellSize := width.bytesPerCell()
	dataSize := (n + 1) * (kMax + 1) * cellSize
	totalSize := headerSize + dataSize

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("partition: creating %s: %w", path, err)
	}
	if err = f.Truncate(int64(totalSize)); err != nil {
		f.Close()
		return nil, fmt.Errorf("partition: sizing %s: %w", path, err)
	}

	region, err := mapFile(f, totalSize)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("partition: mapping %s: %w", path, err)
	}

	t := &Table{n: n, k: kMax, width: width, min: min, max: max, region: region, file: f}
	t.writeHeader()
	for i := 0; i <= n; i++ {
		for j := 0; j <= kMax; j++ {
			t.encode(i, j, logQ[i][j])
		}
	}

	return t, nil
}

// Open reopens a table file previously written by Build.
func Open(path string) (*Table, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("partition: opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := int(info.Size())
	if size < headerSize {
		f.Close()
		return nil, fmt.Errorf("partition: %s is too small to be a table", path)
	}

	region, err := mapFile(f, size)
	if err != nil {
		f.Close()
		return nil, err
	}

	t := &Table{region: region, file: f}
	t.readHeader()

	return t, nil
}

func (t *Table) writeHeader() {
	buf := t.region.Bytes()
	binary.LittleEndian.PutUint64(buf[0:8], uint64(t.n))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(t.k))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(t.min))
	binary.LittleEndian.PutUint64(buf[24:32], math.Float64bits(t.max))
	buf[32] = byte(t.width)
}

func (t *Table) readHeader() {
	buf := t.region.Bytes()
	t.n = int(binary.LittleEndian.Uint64(buf[0:8]))
	t.k = int(binary.LittleEndian.Uint64(buf[8:16]))
	t.min = math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24]))
	t.max = math.Float64frombits(binary.LittleEndian.Uint64(buf[24:32]))
	t.width = CellWidth(buf[32])
}

func (t *Table) quantize(logv float64) uint32 {
	sentinel := t.width.sentinel()
	if math.IsInf(logv, -1) {
		return sentinel
	}
	if t.max <= t.min {
		return 0
	}
	frac := (logv - t.min) / (t.max - t.min)
	return uint32(math.Round(frac * float64(sentinel-1)))
}

func (t *Table) dequantize(code uint32) float64 {
	sentinel := t.width.sentinel()
	if code == sentinel {
		return math.Inf(-1)
	}
	if t.max <= t.min {
		return t.min
	}
	return t.min + float64(code)/float64(sentinel-1)*(t.max-t.min)
}

func (t *Table) cellOffset(i, j int) int {
	cols := t.k + 1
	return headerSize + (i*cols+j)*t.width.bytesPerCell()
}

func (t *Table) encode(i, j int, logv float64) {
	buf := t.region.Bytes()
	off := t.cellOffset(i, j)
	code := t.quantize(logv)
	if t.width == CellWidth16 {
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(code))
	} else {
		buf[off] = byte(code)
	}
}

// Q returns ln(q(n,k)), the log-count of restricted partitions of n into
// at most k parts.
func (t *Table) Q(n, k int) (float64, error) {
	if t.closed {
		return 0, ErrClosed
	}
	if n < 0 || n > t.n || k < 0 || k > t.k {
		return 0, fmt.Errorf("partition: q(%d,%d) outside built range (n<=%d, k<=%d): %w", n, k, t.n, t.k, ErrIndexOutOfRange)
	}

	buf := t.region.Bytes()
	off := t.cellOffset(n, k)
	var code uint32
	if t.width == CellWidth16 {
		code = uint32(binary.LittleEndian.Uint16(buf[off : off+2]))
	} else {
		code = uint32(buf[off])
	}

	return t.dequantize(code), nil
}

// N returns the maximum n the table was built for.
func (t *Table) N() int { return t.n }

// K returns the maximum k the table was built for.
func (t *Table) K() int { return t.k }

// Width returns the table's on-disk cell width.
func (t *Table) Width() CellWidth { return t.width }

// Close unmaps the table and closes its backing file. Further Q calls
// return ErrClosed.
func (t *Table) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.region.Close(); err != nil {
		t.file.Close()
		return err
	}
	return t.file.Close()
}
