package lifecycle

import (
	"errors"
)

var (
	ErrPortConflict  = errors.New("bind: address already in use")
	ErrLaunchTimeout = errors.New("server did not become ready in time")
	ErrExitedEarly   = errors.New("server exited before becoming ready")
	ErrServerOutput  = errors.New("server reported an error")
)

// Reason classifies why a launch failed.
type Reason string

const (
	ReasonSpawn        Reason = "spawn"
	ReasonErrorLine    Reason = "error-line"
	ReasonStderr       Reason = "stderr"
	ReasonExited       Reason = "exited"
	ReasonPortConflict Reason = "port-conflict"
	ReasonTimeout      Reason = "timeout"
	ReasonCanceled     Reason = "canceled"
)

// LaunchError is returned for every failed launch. Error returns Message
// unchanged so a server's own error line surfaces verbatim.
type LaunchError struct {
	Reason   Reason
	Message  string
	ExitCode int
	PID      int
	// Hint is a next step for the user, set by EnsureRunning.
	Hint string
	Err  error
}

func (e *LaunchError) Error() string {
	return e.Message
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Actionable returns the message followed by the hint, if any.
func (e *LaunchError) Actionable() string {
	if e.Hint == "" {
		return e.Message
	}
	return e.Message + "\n" + e.Hint
}

// AsLaunchError unwraps err to a *LaunchError.
func AsLaunchError(err error) (*LaunchError, bool) {
	var launchErr *LaunchError
	ok := errors.As(err, &launchErr)
	return launchErr, ok
}
