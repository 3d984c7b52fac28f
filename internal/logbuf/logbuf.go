// Package logbuf provides the bounded session log read by the status
// poller while the worker appends to it.
package logbuf

import (
	"fmt"
	"sync"
	"time"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
)

// DefaultCapacity bounds a session log to its most recent entries.
const DefaultCapacity = 1000

// Buffer is a fixed-capacity FIFO of log entries. Append and Snapshot are
// safe to call concurrently; neither blocks the other beyond a short
// critical section.
type Buffer struct {
	mu      sync.Mutex
	entries []model.LogEntry
	head    int // index of the oldest entry
	size    int
}

// New creates a buffer with the given capacity (DefaultCapacity if <= 0).
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{entries: make([]model.LogEntry, capacity)}
}

// Append adds an entry, evicting the oldest when full.
func (b *Buffer) Append(tag model.LogTag, format string, args ...any) {
	entry := model.LogEntry{
		Time:    time.Now(),
		Tag:     tag,
		Message: fmt.Sprintf(format, args...),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.size < len(b.entries) {
		b.entries[(b.head+b.size)%len(b.entries)] = entry
		b.size++
		return
	}
	b.entries[b.head] = entry
	b.head = (b.head + 1) % len(b.entries)
}

// Snapshot returns a copy of the buffered entries, oldest first.
func (b *Buffer) Snapshot() []model.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.LogEntry, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.entries[(b.head+i)%len(b.entries)]
	}
	return out
}

// Len returns the number of buffered entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}
