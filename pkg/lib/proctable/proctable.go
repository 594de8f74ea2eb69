// Package proctable isolates the OS commands used to inspect and signal
// processes. Two variants exist, one for Windows and one for POSIX systems,
// selected at runtime by a platform tag.
package proctable

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

var current atomic.Pointer[log.Logger]

func init() {
	SetLogger(nil)
}

// SetLogger replaces the package logger. A nil logger restores the default,
// which discards everything.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.NewWithOptions(io.Discard, log.Options{Prefix: "proctable"})
	}
	current.Store(l)
}

func logger() *log.Logger {
	return current.Load()
}

var errInvalidPID = errors.New("invalid pid")

// Query describes which processes to match. Image is used on Windows where
// processes are listed by image name, Pattern on POSIX where the full
// command line is searched.
type Query struct {
	Image   string
	Pattern string
}

// Table is the capability set needed to manage a singleton server process.
type Table interface {
	// Platform returns the platform tag the variant was built for.
	Platform() string
	// TrustsImageFilter reports whether Find results already identify the
	// expected binary, so no identity verification is needed.
	TrustsImageFilter() bool
	// Find returns the PIDs of processes matching q. No match is not an error.
	Find(ctx context.Context, q Query) ([]int, error)
	// CommandName returns the OS command or image name of pid.
	CommandName(ctx context.Context, pid int) (string, error)
	// KillPID terminates one process.
	KillPID(ctx context.Context, pid int) error
	// KillMatching terminates every process matching q.
	KillMatching(ctx context.Context, q Query) error
	// Alive is the zero-signal liveness probe.
	Alive(pid int) bool
}

// Option configures a Table.
type Option func(*options)

type options struct {
	executor Executor
	alive    func(pid int) bool
	signal   func(pid int) error
}

// WithExecutor sets how inspection and kill commands are run.
func WithExecutor(e Executor) Option {
	return func(o *options) {
		o.executor = e
	}
}

// WithLiveness replaces the liveness probe.
func WithLiveness(fn func(pid int) bool) Option {
	return func(o *options) {
		o.alive = fn
	}
}

// WithSignaler replaces the function used to terminate a process by PID on
// POSIX systems.
func WithSignaler(fn func(pid int) error) Option {
	return func(o *options) {
		o.signal = fn
	}
}

// New returns the Table variant for platform ("windows" or anything else for
// POSIX).
func New(platform string, opts ...Option) Table {
	o := options{
		executor: OSExecutor{},
		alive:    processAlive,
		signal:   terminateProcess,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if platform == "windows" {
		return &windowsTable{exec: o.executor, alive: o.alive}
	}
	return &posixTable{platform: platform, exec: o.executor, alive: o.alive, signal: o.signal}
}

// Host returns the Table variant for the running OS.
func Host(opts ...Option) Table {
	return New(runtime.GOOS, opts...)
}
