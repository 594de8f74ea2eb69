package lifecycle

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/SanjoDeundiak/forge/pkg/lib"
	"github.com/SanjoDeundiak/forge/pkg/lib/outputlog"
)

// Lines the server prints on stdout. Readiness detection depends on them
// verbatim.
const (
	errorMarker     = "Error:"
	portInUseMarker = "bind: address already in use"
	startedMarker   = "Server started"
)

const (
	maxLineSize    = 1024 * 1024
	exitDrainGrace = 250 * time.Millisecond
)

// Instance is a server process started by Launch.
type Instance struct {
	ID   string
	PID  int
	Path string
	Args []string

	cmd    *exec.Cmd
	output *outputlog.Log
	done   chan struct{}

	mu       sync.RWMutex
	start    time.Time
	exitCode *int
	end      *time.Time
}

// Output returns the server's captured stdout and stderr.
func (inst *Instance) Output() *outputlog.Log {
	return inst.output
}

// Done is closed once the process has exited and been reaped.
func (inst *Instance) Done() <-chan struct{} {
	return inst.done
}

// Exited reports whether the process has exited.
func (inst *Instance) Exited() bool {
	select {
	case <-inst.done:
		return true
	default:
		return false
	}
}

func (inst *Instance) Status() lib.ProcessStatus {
	inst.mu.RLock()
	defer inst.mu.RUnlock()

	st := lib.ProcessStatus{State: lib.ProcessStateRunning, StartTime: inst.start}
	if inst.exitCode != nil {
		code := *inst.exitCode
		st.ExitCode = &code
	}
	if inst.end != nil {
		t := *inst.end
		st.EndTime = &t
		st.State = lib.ProcessStateStopped
	}
	return st
}

func (inst *Instance) finish(code int) {
	inst.mu.Lock()
	now := time.Now()
	inst.exitCode = &code
	inst.end = &now
	inst.mu.Unlock()
	close(inst.done)
}

// kill forcibly stops the process if it is still running.
func (inst *Instance) kill() {
	if inst.Exited() || inst.cmd.Process == nil {
		return
	}
	_ = inst.cmd.Process.Kill()
}

// settleCell holds the single outcome of a launch. The first settle wins and
// later ones are ignored.
type settleCell struct {
	once   sync.Once
	result chan lib.ReadinessSignal
}

func newSettleCell() *settleCell {
	return &settleCell{result: make(chan lib.ReadinessSignal, 1)}
}

func (c *settleCell) settle(sig lib.ReadinessSignal) bool {
	settled := false
	c.once.Do(func() {
		c.result <- sig
		settled = true
	})
	return settled
}

// classifyStdout maps one stdout line to a terminal signal. The error marker
// is checked first, then port conflict, then readiness.
func classifyStdout(line string, pid int) (lib.ReadinessSignal, bool) {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, errorMarker):
		return lib.Failed(trimmed), true
	case strings.Contains(trimmed, portInUseMarker):
		return lib.PortConflict(), true
	case strings.Contains(trimmed, startedMarker):
		return lib.Started(pid), true
	default:
		return lib.ReadinessSignal{}, false
	}
}

// Launch starts the executable and waits until it signals readiness or
// failure. Output keeps being captured after Launch returns, so the server
// never blocks on a full pipe.
func (m *Manager) Launch(ctx context.Context, path string, args ...string) (*Instance, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &LaunchError{Reason: ReasonSpawn, Message: "server executable path is required"}
	}

	id := lib.NewID()
	log := logger().With("launch_id", id)

	cmd := exec.Command(path, args...)
	cmd.SysProcAttr = sysProcAttr()
	// cmd.Stdin is left nil, so it will use /dev/null

	// Plain os pipes rather than StdoutPipe: Wait then leaves the read ends
	// alone and can run while the readers are still draining.
	stdout, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, &LaunchError{Reason: ReasonSpawn, Message: err.Error(), Err: err}
	}
	stderr, stderrW, err := os.Pipe()
	if err != nil {
		stdout.Close()
		stdoutW.Close()
		return nil, &LaunchError{Reason: ReasonSpawn, Message: err.Error(), Err: err}
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	log.Debug("starting server", "path", path, "args", args)
	err = cmd.Start()
	// The child holds its own copies of the write ends.
	stdoutW.Close()
	stderrW.Close()
	if err != nil {
		stdout.Close()
		stderr.Close()
		log.Debug("failed to start server", "err", err)
		return nil, &LaunchError{Reason: ReasonSpawn, Message: err.Error(), Err: err}
	}

	inst := &Instance{
		ID:     id,
		PID:    cmd.Process.Pid,
		Path:   path,
		Args:   append([]string(nil), args...),
		cmd:    cmd,
		output: outputlog.RunNewLog(),
		done:   make(chan struct{}),
		start:  time.Now(),
	}
	log = log.With("pid", inst.PID)

	cell := newSettleCell()

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		defer stdout.Close()
		scanLines(stdout, func(line string) {
			inst.output.Append(outputlog.Stdout, line)
			if sig, ok := classifyStdout(line, inst.PID); ok {
				cell.settle(sig)
			}
		})
	}()
	go func() {
		defer readers.Done()
		defer stderr.Close()
		scanLines(stderr, func(line string) {
			inst.output.Append(outputlog.Stderr, line)
			msg := strings.TrimSpace(line)
			if msg == "" {
				msg = "unexpected output on stderr"
			}
			sig := lib.Failed(msg)
			sig.Stderr = true
			cell.settle(sig)
		})
	}()

	drained := make(chan struct{})
	go func() {
		readers.Wait()
		inst.output.Close()
		close(drained)
	}()

	// Waiter. Lines written just before exit still win over the exit itself,
	// but a descendant holding the pipes open only delays it by exitDrainGrace.
	go func() {
		code := exitCode(cmd.Wait())
		select {
		case <-drained:
		case <-time.After(exitDrainGrace):
		}
		log.Debug("server exited", "code", code)
		inst.finish(code)
		cell.settle(lib.Exited(code))
	}()

	waitCtx := ctx
	if m.launchTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, m.launchTimeout)
		defer cancel()
	}

	var sig lib.ReadinessSignal
	select {
	case sig = <-cell.result:
	case <-waitCtx.Done():
		cell.settle(lib.TimedOut())
		sig = <-cell.result
	}

	if sig.Kind == lib.SignalStarted {
		log.Info("server ready")
		return inst, nil
	}

	inst.kill()
	launchErr := m.launchError(ctx, sig, inst)
	log.Debug("server launch failed", "reason", launchErr.Reason, "err", launchErr.Message)
	return nil, launchErr
}

func (m *Manager) launchError(ctx context.Context, sig lib.ReadinessSignal, inst *Instance) *LaunchError {
	e := &LaunchError{PID: inst.PID}
	switch sig.Kind {
	case lib.SignalPortConflict:
		e.Reason = ReasonPortConflict
		e.Message = "server port is already in use"
		e.Err = ErrPortConflict
	case lib.SignalFailed:
		e.Message = sig.Message
		e.Err = ErrServerOutput
		e.Reason = ReasonErrorLine
		if sig.Stderr {
			e.Reason = ReasonStderr
		}
	case lib.SignalExited:
		e.Reason = ReasonExited
		e.ExitCode = sig.ExitCode
		e.Message = fmt.Sprintf("server exited with code %d before becoming ready", sig.ExitCode)
		e.Err = ErrExitedEarly
	default:
		if err := ctx.Err(); err != nil {
			e.Reason = ReasonCanceled
			e.Message = "server launch canceled"
			e.Err = err
		} else {
			e.Reason = ReasonTimeout
			e.Message = fmt.Sprintf("server did not become ready within %s", m.launchTimeout)
			e.Err = ErrLaunchTimeout
		}
	}
	return e
}

// scanLines calls fn for every line of r and then drains whatever a scan
// error left behind.
func scanLines(r io.Reader, fn func(line string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		fn(strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		logger().Debug("output scan stopped", "err", err)
		_, _ = io.Copy(io.Discard, r)
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
