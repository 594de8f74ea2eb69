package lifecycle

import (
	"time"

	"github.com/SanjoDeundiak/forge/pkg/lib/proctable"
)

// Option configures the Manager
type Option func(*Manager)

// WithTable sets the process table variant
func WithTable(table proctable.Table) Option {
	return func(m *Manager) {
		m.table = table
	}
}

// WithBinary sets the server binary name. A trailing .exe is ignored.
func WithBinary(binary string) Option {
	return func(m *Manager) {
		if b := trimExe(binary); b != "" {
			m.binary = b
		}
	}
}

// WithPattern sets the command-line pattern used on POSIX systems.
// Defaults to "<binary> serve".
func WithPattern(pattern string) Option {
	return func(m *Manager) {
		m.pattern = pattern
	}
}

// WithLaunchTimeout bounds the wait for a readiness signal. Zero or
// negative disables the bound.
func WithLaunchTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.launchTimeout = d
	}
}

// WithStopTimeout sets how long a session cleanup waits for a terminated
// server before killing it.
func WithStopTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.stopTimeout = d
	}
}

// WithExit replaces the function called on unrecoverable conditions.
// Defaults to os.Exit.
func WithExit(exit func(code int)) Option {
	return func(m *Manager) {
		if exit != nil {
			m.exit = exit
		}
	}
}
