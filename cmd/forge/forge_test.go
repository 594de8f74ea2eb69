package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SanjoDeundiak/forge/pkg/lib"
	"github.com/SanjoDeundiak/forge/pkg/lib/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func requireProcessTools(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("Skipping: not running on Linux")
	}
	for _, tool := range []string{"sh", "pgrep", "pkill", "ps"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("Skipping: %s not available", tool)
		}
	}
}

func fakeServer(t *testing.T, body string) (name, path string) {
	t.Helper()
	name = "pb" + strings.ReplaceAll(lib.NewID(), "-", "")[:8]
	path = filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return name, path
}

func isolate(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())
}

func run(t *testing.T, ctx context.Context, stdout, stderr *syncBuffer, args ...string) error {
	t.Helper()
	root := NewRootCmd(lifecycle.WithStopTimeout(2 * time.Second))
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func TestStatus_NotRunning(t *testing.T) {
	requireProcessTools(t)
	isolate(t)
	name, _ := fakeServer(t, "exit 0")

	var stdout, stderr syncBuffer
	err := run(t, context.Background(), &stdout, &stderr, "db", "status", "--binary", name)
	require.NoError(t, err)
	assert.Equal(t, name+" is not running\n", stdout.String())
}

func TestStop_NoMatch(t *testing.T) {
	requireProcessTools(t)
	isolate(t)
	name, _ := fakeServer(t, "exit 0")

	var stdout, stderr syncBuffer
	err := run(t, context.Background(), &stdout, &stderr, "db", "stop", "--binary", name)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "No process matches")
	assert.Contains(t, stdout.String(), name+" serve")
}

func TestStart_LaunchFailureIsActionable(t *testing.T) {
	requireProcessTools(t)
	isolate(t)
	name, path := fakeServer(t, `echo "Error: cannot open database"
exit 1`)

	var stdout, stderr syncBuffer
	err := run(t, context.Background(), &stdout, &stderr, "db", "start", "--binary", name, "--path", path)
	require.Error(t, err)
	assert.Equal(t, "Error: cannot open database", err.Error())

	launchErr, ok := lifecycle.AsLaunchError(err)
	require.True(t, ok)
	assert.NotEmpty(t, launchErr.Hint)
}

func TestStart_InvalidConfig(t *testing.T) {
	isolate(t)

	var stdout, stderr syncBuffer
	err := run(t, context.Background(), &stdout, &stderr, "db", "start", "--launch-timeout", "0s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.launch_timeout")
}

func TestStart_RunsUntilInterruptedAndCleansUp(t *testing.T) {
	requireProcessTools(t)
	isolate(t)
	name, path := fakeServer(t, `echo "Server started at http://127.0.0.1:8090"
echo "warming up"
while :; do sleep 0.1; done`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- run(t, ctx, &stdout, &stderr, "db", "start", "--follow", "--binary", name, "--path", path, "--data-dir", t.TempDir())
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "warming up")
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, stdout.String(), "Started")

	// A second start sees the running instance and returns at once.
	var stdout2, stderr2 syncBuffer
	require.NoError(t, run(t, context.Background(), &stdout2, &stderr2, "db", "start", "--binary", name, "--path", path))
	assert.Contains(t, stdout2.String(), "Already running")

	var status, statusErr syncBuffer
	require.NoError(t, run(t, context.Background(), &status, &statusErr, "db", "status", "--binary", name))
	assert.Contains(t, status.String(), name)
	assert.Contains(t, status.String(), "Running")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatalf("start did not return after cancel")
	}

	m := lifecycle.NewManager(lifecycle.WithBinary(name))
	require.Eventually(t, func() bool {
		return !m.FindRunningInstances(context.Background()).Running
	}, 5*time.Second, 50*time.Millisecond)
}

func TestStart_ServerExitsUnexpectedly(t *testing.T) {
	requireProcessTools(t)
	isolate(t)
	name, path := fakeServer(t, `echo "Server started"
sleep 0.2
exit 4`)

	var stdout, stderr syncBuffer
	err := run(t, context.Background(), &stdout, &stderr, "db", "start", "--binary", name, "--path", path)
	require.Error(t, err)

	launchErr, ok := lifecycle.AsLaunchError(err)
	require.True(t, ok)
	assert.Equal(t, lifecycle.ReasonExited, launchErr.Reason)
	assert.Equal(t, 4, launchErr.ExitCode)
}

func TestStop_ByKeyword(t *testing.T) {
	requireProcessTools(t)
	isolate(t)
	name, path := fakeServer(t, `echo "Server started"
while :; do sleep 0.1; done`)

	m := lifecycle.NewManager(lifecycle.WithBinary(name))
	inst, err := m.Launch(context.Background(), path, "serve")
	require.NoError(t, err)

	var stdout, stderr syncBuffer
	require.NoError(t, run(t, context.Background(), &stdout, &stderr, "db", "stop", "--binary", name))
	assert.Contains(t, stdout.String(), "Stopped processes")

	select {
	case <-inst.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("server was not stopped")
	}
}
