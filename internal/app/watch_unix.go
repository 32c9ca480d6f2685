//go:build !windows

package app

import (
	"fmt"
	"io"
	"os"
	"syscall"
)

// shutdownSignals end watch and serve gracefully.
var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// stopDaemon sends SIGTERM to the watch daemon named in the PID file.
func stopDaemon(w io.Writer) error {
	pid, err := readPID()
	if err != nil {
		return fmt.Errorf("no daemon running (could not read PID file: %v)", err)
	}

	if !processExists(pid) {
		_ = os.Remove(pidFilePath())
		return fmt.Errorf("no daemon running (PID %d is not active, removed stale PID file)", pid)
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("stopping daemon (PID %d): %w", pid, err)
	}

	// The daemon removes its own PID file on exit; remove it here too in
	// case it is killed before it gets the chance.
	_ = os.Remove(pidFilePath())
	fmt.Fprintf(w, "Stopped watch daemon (PID %d)\n", pid)
	return nil
}

// processExists sends signal 0 to check for a live process.
func processExists(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
