//go:build windows

package engine

import (
	"errors"
	"os/exec"
)

// crashSignalCode on Windows has no POSIX signal concept; it falls back
// to the plain process exit code.
func crashSignalCode(err error) (code int, ok bool) {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, false
	}
	return exitErr.ExitCode(), true
}
