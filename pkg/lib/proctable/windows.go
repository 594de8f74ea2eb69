package proctable

import (
	"context"
	"strconv"
	"strings"
)

type windowsTable struct {
	exec  Executor
	alive func(pid int) bool
}

func imageName(image string) string {
	image = strings.TrimSpace(image)
	if image == "" || strings.HasSuffix(strings.ToLower(image), ".exe") {
		return image
	}
	return image + ".exe"
}

func (t *windowsTable) Platform() string {
	return "windows"
}

func (t *windowsTable) TrustsImageFilter() bool {
	return true
}

func (t *windowsTable) Find(ctx context.Context, q Query) ([]int, error) {
	image := imageName(q.Image)
	if image == "" {
		return []int{}, nil
	}
	out, err := t.exec.Run(ctx, "tasklist", "/FI", "IMAGENAME eq "+image, "/FO", "CSV", "/NH")
	if err != nil {
		return nil, err
	}

	pids := []int{}
	for _, row := range parseTasklist(out) {
		if strings.EqualFold(row.Image, image) {
			pids = append(pids, row.PID)
		}
	}
	return pids, nil
}

func (t *windowsTable) CommandName(ctx context.Context, pid int) (string, error) {
	if pid <= 0 {
		return "", errInvalidPID
	}
	out, err := t.exec.Run(ctx, "tasklist", "/FI", "PID eq "+strconv.Itoa(pid), "/FO", "CSV", "/NH")
	if err != nil {
		return "", err
	}
	for _, row := range parseTasklist(out) {
		if row.PID == pid {
			return row.Image, nil
		}
	}
	return "", nil
}

func (t *windowsTable) KillPID(ctx context.Context, pid int) error {
	if pid <= 0 {
		return errInvalidPID
	}
	_, err := t.exec.Run(ctx, "taskkill", "/F", "/PID", strconv.Itoa(pid))
	return err
}

func (t *windowsTable) KillMatching(ctx context.Context, q Query) error {
	image := imageName(q.Image)
	if image == "" {
		return nil
	}
	_, err := t.exec.Run(ctx, "taskkill", "/F", "/IM", image)
	return err
}

func (t *windowsTable) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return t.alive(pid)
}
