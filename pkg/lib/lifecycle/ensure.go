package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SanjoDeundiak/forge/pkg/lib"
)

// ServerOptions describe how to launch the server.
type ServerOptions struct {
	// Path is the server executable.
	Path          string
	DataDir       string
	MigrationsDir string
	// HTTP is the listen address; empty keeps the server's default.
	HTTP      string
	ExtraArgs []string
}

// Args returns the serve command line, without the executable.
func (o ServerOptions) Args() []string {
	args := []string{"serve"}
	if o.DataDir != "" {
		args = append(args, "--dir="+o.DataDir)
	}
	if o.MigrationsDir != "" {
		args = append(args, "--migrationsDir="+o.MigrationsDir)
	}
	if o.HTTP != "" {
		args = append(args, "--http="+o.HTTP)
	}
	return append(args, o.ExtraArgs...)
}

// Session is the result of EnsureRunning.
type Session struct {
	// Launched is false when an instance was already running.
	Launched bool
	// PIDs of the instances the session refers to.
	PIDs []int
	// Instance is set when this session launched the server.
	Instance *Instance

	manager *Manager
	once    sync.Once
}

// Cleanup stops the server this session launched. It does nothing for an
// instance that was already running, and nothing on the second and later
// calls. It never fails.
func (s *Session) Cleanup(ctx context.Context) {
	if s == nil {
		return
	}
	s.once.Do(func() {
		inst := s.Instance
		if inst == nil || inst.Exited() {
			return
		}

		s.manager.TerminatePID(ctx, inst.PID)

		grace := s.manager.stopTimeout
		if grace <= 0 {
			grace = DefaultStopTimeout
		}
		select {
		case <-inst.Done():
		case <-time.After(grace):
			logger().Warn("server did not stop in time, killing", "pid", inst.PID)
			inst.kill()
			select {
			case <-inst.Done():
			case <-time.After(grace):
			}
		case <-ctx.Done():
		}
	})
}

// EnsureRunning launches the server unless a verified instance is running
// already. A port conflict is unrecoverable and ends forge with status 1
// through the exit hook. Any other launch failure is returned as a
// *LaunchError carrying a hint.
func (m *Manager) EnsureRunning(ctx context.Context, opts ServerOptions) (*Session, error) {
	if result := m.FindRunningInstances(ctx); result.Running {
		logger().Info("server already running", "binary", m.binary, "pids", result.PIDs)
		return &Session{PIDs: result.PIDs, manager: m}, nil
	}

	inst, err := m.Launch(ctx, opts.Path, opts.Args()...)
	if err != nil {
		launchErr, ok := AsLaunchError(err)
		if !ok {
			return nil, err
		}
		launchErr.Hint = m.hint(launchErr, opts)
		if errors.Is(launchErr, ErrPortConflict) {
			logger().Error(launchErr.Message, "hint", launchErr.Hint)
			m.exit(1)
		}
		return nil, launchErr
	}

	return &Session{Launched: true, PIDs: []int{inst.PID}, Instance: inst, manager: m}, nil
}

func (m *Manager) hint(err *LaunchError, opts ServerOptions) string {
	switch err.Reason {
	case ReasonPortConflict:
		return fmt.Sprintf("stop existing instances with `forge db stop` or free the port%s", portSuffix(opts.HTTP))
	case ReasonSpawn:
		return fmt.Sprintf("check that %q exists and is executable (server.path / --path)", opts.Path)
	case ReasonTimeout:
		return fmt.Sprintf("no %q line was printed; raise server.launch_timeout or run the server by hand to inspect it", startedMarker)
	case ReasonCanceled:
		return "the launch was interrupted; run the command again"
	default:
		return fmt.Sprintf("the database server could not start; check %s and %s", orDefault(opts.DataDir, "the data directory"), orDefault(opts.MigrationsDir, "the migrations directory"))
	}
}

func portSuffix(addr string) string {
	if addr == "" {
		return ""
	}
	return " " + addr
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// Result converts the session into a probe result.
func (s *Session) Result() lib.LifecycleResult {
	if s == nil || len(s.PIDs) == 0 {
		return lib.NotRunning()
	}
	return lib.LifecycleResult{Running: true, PIDs: append([]int(nil), s.PIDs...)}
}
