//go:build !windows

package engine

import (
	"errors"
	"os/exec"
	"syscall"
)

// crashSignalCode extracts the process exit status from err, mapping a
// fatal-signal termination to the negative signal number (-11 for
// SIGSEGV). ok is false if err is not an *exec.ExitError.
func crashSignalCode(err error) (code int, ok bool) {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, false
	}
	if ws, wok := exitErr.Sys().(syscall.WaitStatus); wok && ws.Signaled() {
		return -int(ws.Signal()), true
	}
	return exitErr.ExitCode(), true
}
