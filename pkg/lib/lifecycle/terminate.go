package lifecycle

import (
	"context"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/SanjoDeundiak/forge/pkg/lib/proctable"
)

// Terminate stops processes by PID or keyword. A numeric target is treated
// as a PID and yields no match report. Any other target is a keyword: every
// matching process is terminated and the first matched PID is returned as
// advice, since several processes may have matched.
//
// Termination is best-effort. No process to kill is success and every
// failure is swallowed.
func (m *Manager) Terminate(ctx context.Context, target string) (int, bool) {
	target = strings.TrimSpace(target)
	if pid, err := strconv.Atoi(target); err == nil {
		m.TerminatePID(ctx, pid)
		return 0, false
	}
	return m.TerminateMatching(ctx, target)
}

// TerminatePID stops one process: taskkill /F on Windows, SIGTERM elsewhere.
func (m *Manager) TerminatePID(ctx context.Context, pid int) {
	if err := m.table.KillPID(ctx, pid); err != nil {
		logger().Debug("terminate failed", "pid", pid, "err", err)
		return
	}
	logger().Debug("terminated", "pid", pid)
}

// TerminateMatching stops every process whose image name (Windows) or
// command line (POSIX) matches keyword. The manager's own pattern is looked up
// with the configured binary as image name. forge's own PID is never matched.
func (m *Manager) TerminateMatching(ctx context.Context, keyword string) (int, bool) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return 0, false
	}

	q := proctable.Query{Image: trimExe(keyword), Pattern: keyword}
	if keyword == m.pattern {
		q = m.query()
	}
	found, err := m.table.Find(ctx, q)
	if err != nil {
		logger().Debug("nothing to terminate", "keyword", keyword, "err", err)
		return 0, false
	}
	self := os.Getpid()
	pids := slices.DeleteFunc(found, func(pid int) bool { return pid == self })
	if len(pids) == 0 {
		logger().Debug("nothing to terminate", "keyword", keyword)
		return 0, false
	}

	if len(pids) < len(found) {
		// The keyword matches forge itself; a query kill would take us down too.
		for _, pid := range pids {
			m.TerminatePID(ctx, pid)
		}
	} else if err := m.table.KillMatching(ctx, q); err != nil {
		logger().Debug("terminate failed", "keyword", keyword, "err", err)
	}
	logger().Debug("terminated", "keyword", keyword, "pids", pids)
	return pids[0], true
}
