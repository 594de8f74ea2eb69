package lifecycle

import (
	"context"
	"strings"

	"github.com/SanjoDeundiak/forge/pkg/lib"
)

// FindRunningInstances reports whether the server is already running.
// Inspection failures count as "not running": the caller's fallback of
// launching a fresh instance is always safe.
func (m *Manager) FindRunningInstances(ctx context.Context) lib.LifecycleResult {
	candidates, err := m.table.Find(ctx, m.query())
	if err != nil {
		logger().Debug("process inspection failed", "binary", m.binary, "err", err)
		return lib.NotRunning()
	}

	pids := make([]int, 0, len(candidates))
	for _, pid := range candidates {
		if m.table.TrustsImageFilter() || m.IsGenuineInstance(ctx, pid) {
			pids = append(pids, pid)
		}
	}
	if len(pids) == 0 {
		return lib.NotRunning()
	}

	logger().Debug("found running instances", "binary", m.binary, "pids", pids)
	return lib.LifecycleResult{Running: true, PIDs: pids}
}

// IsGenuineInstance reports whether pid is alive and belongs to the server
// binary rather than an unrelated process that reused the id. Any failure
// yields false.
func (m *Manager) IsGenuineInstance(ctx context.Context, pid int) bool {
	if !m.table.Alive(pid) {
		return false
	}

	name, err := m.table.CommandName(ctx, pid)
	if err != nil {
		logger().Debug("command name lookup failed", "pid", pid, "err", err)
		return false
	}
	return m.matchesBinary(name)
}

func (m *Manager) matchesBinary(commandName string) bool {
	name := strings.ToLower(strings.TrimSpace(commandName))
	if name == "" {
		return false
	}
	return strings.Contains(name, strings.ToLower(m.binary))
}

// Handles returns a handle for every verified running instance.
func (m *Manager) Handles(ctx context.Context) []lib.ProcessHandle {
	result := m.FindRunningInstances(ctx)
	handles := make([]lib.ProcessHandle, 0, len(result.PIDs))
	for _, pid := range result.PIDs {
		name, err := m.table.CommandName(ctx, pid)
		if err != nil {
			name = ""
		}
		handles = append(handles, lib.ProcessHandle{PID: pid, Command: name})
	}
	return handles
}
