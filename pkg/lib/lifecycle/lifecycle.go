// Package lifecycle manages the singleton database server process: probing
// for a running instance, verifying its identity, launching a new one and
// terminating it.
//
// The OS process table is the only source of truth. Nothing here caches an
// "is running" flag; every check queries the OS again.
package lifecycle

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/SanjoDeundiak/forge/pkg/lib/proctable"
	"github.com/charmbracelet/log"
)

const (
	DefaultBinary        = "pocketbase"
	DefaultLaunchTimeout = 30 * time.Second
	DefaultStopTimeout   = 5 * time.Second
)

var current atomic.Pointer[log.Logger]

func init() {
	SetLogger(nil)
}

// SetLogger replaces the package logger. A nil logger restores the default,
// which discards everything.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.NewWithOptions(io.Discard, log.Options{Prefix: "lifecycle"})
	}
	current.Store(l)
}

func logger() *log.Logger {
	return current.Load()
}

// Manager owns the lifecycle of one kind of server binary.
type Manager struct {
	table         proctable.Table
	binary        string
	pattern       string
	launchTimeout time.Duration
	stopTimeout   time.Duration
	exit          func(code int)
}

// NewManager creates a Manager for the host platform.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		binary:        DefaultBinary,
		launchTimeout: DefaultLaunchTimeout,
		stopTimeout:   DefaultStopTimeout,
		exit:          os.Exit,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.table == nil {
		m.table = proctable.Host()
	}
	if m.pattern == "" {
		m.pattern = m.binary + " serve"
	}

	return m
}

// Binary returns the server binary name without any .exe suffix.
func (m *Manager) Binary() string {
	return m.binary
}

// Pattern returns the command-line pattern that identifies a serving instance.
func (m *Manager) Pattern() string {
	return m.pattern
}

func (m *Manager) query() proctable.Query {
	return proctable.Query{Image: m.binary, Pattern: m.pattern}
}

func trimExe(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name[:len(name)-len(".exe")]
	}
	return name
}
