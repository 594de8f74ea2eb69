//go:build !windows

package proctable

import (
	"golang.org/x/sys/unix"
)

// processAlive sends signal 0, which checks existence and permission without
// delivering anything. EPERM counts as not alive.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return unix.Kill(pid, 0) == nil
}

func terminateProcess(pid int) error {
	// kill(0) and kill(-1) address groups, never a single process
	if pid <= 0 {
		return errInvalidPID
	}
	return unix.Kill(pid, unix.SIGTERM)
}
