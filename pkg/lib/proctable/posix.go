package proctable

import (
	"context"
	"strconv"
	"strings"
)

type posixTable struct {
	platform string
	exec     Executor
	alive    func(pid int) bool
	signal   func(pid int) error
}

func (t *posixTable) Platform() string {
	return t.platform
}

func (t *posixTable) TrustsImageFilter() bool {
	return false
}

func (t *posixTable) Find(ctx context.Context, q Query) ([]int, error) {
	// pgrep -f "" matches every process
	if strings.TrimSpace(q.Pattern) == "" {
		return []int{}, nil
	}
	out, err := t.exec.Run(ctx, "pgrep", "-f", q.Pattern)
	if err != nil {
		if isNoMatch(err) {
			return []int{}, nil
		}
		return nil, err
	}
	return parsePIDLines(out), nil
}

func (t *posixTable) CommandName(ctx context.Context, pid int) (string, error) {
	if pid <= 0 {
		return "", errInvalidPID
	}
	out, err := t.exec.Run(ctx, "ps", "-p", strconv.Itoa(pid), "-o", "comm=")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (t *posixTable) KillPID(_ context.Context, pid int) error {
	if pid <= 0 {
		return errInvalidPID
	}
	return t.signal(pid)
}

func (t *posixTable) KillMatching(ctx context.Context, q Query) error {
	if strings.TrimSpace(q.Pattern) == "" {
		return nil
	}
	_, err := t.exec.Run(ctx, "pkill", "-f", q.Pattern)
	if err != nil && isNoMatch(err) {
		return nil
	}
	return err
}

func (t *posixTable) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return t.alive(pid)
}
