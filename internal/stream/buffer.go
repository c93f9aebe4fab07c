package stream

import (
	"sync"

	"github.com/pulse-qa/pulse/internal/domain"
)

// Buffer is the ordered, append-only activity log for one session. Entries
// arrive in creation order and are deduplicated by ID, which keeps the log
// correct when the push provider redelivers after a reconnect.
type Buffer struct {
	mu      sync.Mutex
	entries []domain.ActivityLogEntry
	seen    map[string]struct{}
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{seen: make(map[string]struct{})}
}

// Seed replaces the buffer contents with the historical backlog, preserving
// its order and dropping duplicate IDs within it.
func (b *Buffer) Seed(entries []domain.ActivityLogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = make([]domain.ActivityLogEntry, 0, len(entries))
	b.seen = make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := b.seen[e.ID]; dup {
			continue
		}
		b.seen[e.ID] = struct{}{}
		b.entries = append(b.entries, e)
	}
}

// Append adds an entry at the end. Appending an ID already present is a
// no-op; the return value reports whether the entry was added.
func (b *Buffer) Append(e domain.ActivityLogEntry) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, dup := b.seen[e.ID]; dup {
		return false
	}
	b.seen[e.ID] = struct{}{}
	b.entries = append(b.entries, e)
	return true
}

// Snapshot returns a copy of the current ordered entries. Safe to call at
// any time; returns an empty slice before the first Seed.
func (b *Buffer) Snapshot() []domain.ActivityLogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.ActivityLogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of buffered entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Reset drops all entries and dedup state.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
	b.seen = make(map[string]struct{})
}
