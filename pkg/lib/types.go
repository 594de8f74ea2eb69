package lib

import (
	"fmt"
	"time"
)

// ProcessState is the coarse state of a launched server.
type ProcessState int

const (
	ProcessStateUnspecified ProcessState = iota
	ProcessStateRunning
	ProcessStateStopped
)

func (s ProcessState) String() string {
	switch s {
	case ProcessStateRunning:
		return "Running"
	case ProcessStateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// ProcessStatus captures runtime state and timestamps.
type ProcessStatus struct {
	State     ProcessState
	ExitCode  *int
	StartTime time.Time
	EndTime   *time.Time
}

// ProcessHandle identifies one OS process. The OS process table is
// authoritative; a handle is only meaningful for the operation that produced it.
type ProcessHandle struct {
	PID     int
	Command string
}

// LifecycleResult is the outcome of an existence probe.
type LifecycleResult struct {
	Running bool
	PIDs    []int
}

// NotRunning returns the empty probe result.
func NotRunning() LifecycleResult {
	return LifecycleResult{Running: false, PIDs: []int{}}
}

// SignalKind tags the terminal outcomes observed while waiting for a launched
// server to become ready.
type SignalKind int

const (
	SignalUnspecified SignalKind = iota
	SignalStarted
	SignalPortConflict
	SignalFailed
	SignalExited
	SignalTimedOut
)

func (k SignalKind) String() string {
	switch k {
	case SignalStarted:
		return "started"
	case SignalPortConflict:
		return "port-conflict"
	case SignalFailed:
		return "failed"
	case SignalExited:
		return "exited"
	case SignalTimedOut:
		return "timed-out"
	default:
		return "unspecified"
	}
}

// ReadinessSignal is a tagged variant. PID is set for SignalStarted, Message
// for SignalFailed and ExitCode for SignalExited. Stderr marks a failure
// raised by output on standard error.
type ReadinessSignal struct {
	Kind     SignalKind
	PID      int
	Message  string
	ExitCode int
	Stderr   bool
}

func Started(pid int) ReadinessSignal {
	return ReadinessSignal{Kind: SignalStarted, PID: pid}
}

func PortConflict() ReadinessSignal {
	return ReadinessSignal{Kind: SignalPortConflict}
}

func Failed(message string) ReadinessSignal {
	return ReadinessSignal{Kind: SignalFailed, Message: message}
}

func Exited(code int) ReadinessSignal {
	return ReadinessSignal{Kind: SignalExited, ExitCode: code}
}

func TimedOut() ReadinessSignal {
	return ReadinessSignal{Kind: SignalTimedOut}
}

func (s ReadinessSignal) String() string {
	switch s.Kind {
	case SignalStarted:
		return fmt.Sprintf("started(pid=%d)", s.PID)
	case SignalFailed:
		return fmt.Sprintf("failed(%q)", s.Message)
	case SignalExited:
		return fmt.Sprintf("exited(code=%d)", s.ExitCode)
	default:
		return s.Kind.String()
	}
}
