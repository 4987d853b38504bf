//go:build !windows

package partition

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapRegion is a unix memory-mapped view over a table's backing file.
type mmapRegion struct {
	data []byte
}

// mapFile maps size bytes of f; it does not resize f, so the caller must
// make the file at least size bytes long first (Build truncates it to
// size before mapping). The mapping is MAP_SHARED so writes during Build are visible to any
// other process that opens the same path: the q-table is meant to be a
// disk-backed, reusable cache.
func mapFile(f *os.File, size int) (*mmapRegion, error) {
	if size == 0 {
		return &mmapRegion{data: nil}, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &mmapRegion{data: data}, nil
}

// Bytes returns the mapped region.
func (r *mmapRegion) Bytes() []byte { return r.data }

// Close unmaps the region.
func (r *mmapRegion) Close() error {
	if r.data == nil {
		return nil
	}
	return unix.Munmap(r.data)
}
