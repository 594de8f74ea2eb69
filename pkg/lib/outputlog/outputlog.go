// Package outputlog retains the output of a launched server and lets callers
// replay and follow it.
package outputlog

import (
	"context"
	"sync"
)

type Stream int

const (
	Stdout Stream = iota + 1
	Stderr
)

func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// Line is one line of server output without its trailing newline.
type Line struct {
	Stream Stream
	Text   string
}

// Log is an append-only, line-oriented record of a process's output. It is
// safe for concurrent use.
type Log struct {
	mu     sync.RWMutex
	lines  []Line
	closed bool

	broadcaster *Broadcaster[struct{}]
}

func RunNewLog() *Log {
	return &Log{broadcaster: RunNewBroadcaster[struct{}]()}
}

// Append records a line. Lines appended after Close are dropped.
func (l *Log) Append(stream Stream, text string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.lines = append(l.lines, Line{Stream: stream, Text: text})
	l.broadcaster.Publish(struct{}{})
}

// Close marks the end of output and ends every subscription once its
// backlog is delivered.
func (l *Log) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.broadcaster.Stop()
}

// Lines returns a snapshot of everything recorded so far.
func (l *Log) Lines() []Line {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Line(nil), l.lines...)
}

// Len returns the number of recorded lines.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lines)
}

func (l *Log) since(next int) ([]Line, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var batch []Line
	if next < len(l.lines) {
		batch = append(batch, l.lines[next:]...)
	}
	return batch, l.closed
}

// Subscribe replays the log from its first line and then follows new lines.
// The channel closes after the log is closed and drained, or when ctx ends.
func (l *Log) Subscribe(ctx context.Context, capacity int) <-chan Line {
	ch := make(chan Line, capacity)
	// A stopped broadcaster means the log is already closed: replay only.
	notifier, err := l.broadcaster.Subscribe()
	if err != nil {
		notifier = nil
	}
	go l.follow(ctx, notifier, ch)
	return ch
}

func (l *Log) follow(ctx context.Context, notifier chan struct{}, ch chan Line) {
	defer close(ch)
	if notifier != nil {
		defer l.broadcaster.Unsubscribe(notifier)
	}

	next := 0
	for {
		batch, closed := l.since(next)
		for _, line := range batch {
			select {
			case ch <- line:
				next++
			case <-ctx.Done():
				return
			}
		}
		if len(batch) > 0 {
			continue
		}
		if closed || notifier == nil {
			return
		}

		select {
		case _, ok := <-notifier:
			if !ok {
				// Stopped; the next pass drains what is left.
				notifier = nil
			}
		case <-ctx.Done():
			return
		}
	}
}
