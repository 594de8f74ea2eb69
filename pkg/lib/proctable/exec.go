package proctable

import (
	"context"
	"errors"
	"os/exec"
)

// Executor runs a command and returns its standard output.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// OSExecutor runs commands with os/exec.
type OSExecutor struct{}

func (OSExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// cmd.Stdin is left nil, so it will use /dev/null
	return cmd.Output()
}

// isNoMatch reports whether err is the exit status 1 that pgrep and pkill
// use for "no process matched".
func isNoMatch(err error) bool {
	var coded interface{ ExitCode() int }
	return errors.As(err, &coded) && coded.ExitCode() == 1
}
