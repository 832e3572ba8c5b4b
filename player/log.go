// Package player adapts pattern engines to the transport and feeds their log
// output to the gain sampler.
package player

import (
	"strings"
	"sync"
)

// DefaultLogSize is how many entries a Log keeps.
const DefaultLogSize = 512

// Log is the engine's append-only output. Old entries are dropped once the
// size limit is reached.
type Log struct {
	mu    sync.RWMutex
	lines []string
	max   int
	total int
}

func NewLog(max int) *Log {
	if max <= 0 {
		max = DefaultLogSize
	}
	return &Log{max: max}
}

// Append adds one entry, trimming a trailing newline.
func (l *Log) Append(line string) {
	line = strings.TrimRight(line, "\r\n")
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
	l.total++
	if len(l.lines) > l.max {
		n := copy(l.lines, l.lines[len(l.lines)-l.max:])
		l.lines = l.lines[:n]
	}
}

// ReadAll returns a copy of the retained entries, oldest first.
func (l *Log) ReadAll() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.lines...)
}

// Tail returns at most the n newest entries.
func (l *Log) Tail(n int) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n > len(l.lines) {
		n = len(l.lines)
	}
	return append([]string(nil), l.lines[len(l.lines)-n:]...)
}

// Len is the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lines)
}

// Total counts every entry ever appended.
func (l *Log) Total() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}
