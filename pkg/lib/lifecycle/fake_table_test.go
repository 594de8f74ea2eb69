package lifecycle

import (
	"context"
	"sync"

	"github.com/SanjoDeundiak/forge/pkg/lib/proctable"
)

type fakeTable struct {
	mu sync.Mutex

	platform string
	trusts   bool
	found    map[string][]int
	findErr  error
	names    map[int]string
	nameErr  error
	alive    map[int]bool
	killErr  error

	killedPIDs    []int
	killedQueries []proctable.Query
}

func newFakeTable() *fakeTable {
	return &fakeTable{
		platform: "linux",
		found:    map[string][]int{},
		names:    map[int]string{},
		alive:    map[int]bool{},
	}
}

func (f *fakeTable) Platform() string        { return f.platform }
func (f *fakeTable) TrustsImageFilter() bool { return f.trusts }

func (f *fakeTable) lookupKey(q proctable.Query) string {
	if f.trusts {
		return q.Image
	}
	return q.Pattern
}

func (f *fakeTable) Find(_ context.Context, q proctable.Query) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	return append([]int{}, f.found[f.lookupKey(q)]...), nil
}

func (f *fakeTable) CommandName(_ context.Context, pid int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nameErr != nil {
		return "", f.nameErr
	}
	return f.names[pid], nil
}

func (f *fakeTable) KillPID(_ context.Context, pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killedPIDs = append(f.killedPIDs, pid)
	return f.killErr
}

func (f *fakeTable) KillMatching(_ context.Context, q proctable.Query) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killedQueries = append(f.killedQueries, q)
	return f.killErr
}

func (f *fakeTable) Alive(pid int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive[pid]
}
