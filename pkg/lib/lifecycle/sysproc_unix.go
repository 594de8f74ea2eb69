//go:build !windows

package lifecycle

import (
	"syscall"
)

// The server gets its own process group so a terminal interrupt reaches
// forge alone, which then stops the server through its cleanup.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
