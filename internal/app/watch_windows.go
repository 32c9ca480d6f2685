//go:build windows

package app

import (
	"fmt"
	"io"
	"os"
)

// shutdownSignals end watch and serve gracefully.
var shutdownSignals = []os.Signal{os.Interrupt}

// stopDaemon terminates the watch daemon named in the PID file. Windows has
// no SIGTERM, so the process is killed outright.
func stopDaemon(w io.Writer) error {
	pid, err := readPID()
	if err != nil {
		return fmt.Errorf("no daemon running (could not read PID file: %v)", err)
	}

	proc, err := os.FindProcess(pid)
	if err != nil || !processExists(pid) {
		_ = os.Remove(pidFilePath())
		return fmt.Errorf("no daemon running (PID %d is not active, removed stale PID file)", pid)
	}

	if err := proc.Kill(); err != nil {
		return fmt.Errorf("stopping daemon (PID %d): %w", pid, err)
	}

	_ = os.Remove(pidFilePath())
	fmt.Fprintf(w, "Stopped watch daemon (PID %d)\n", pid)
	return nil
}

// processExists reports whether pid names a live process. FindProcess
// always succeeds on Windows, so a nil signal is used as the probe.
func processExists(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(os.Signal(nil)) == nil
}
