package audit

import (
	"context"
	"sync"
	"time"
)

// DefaultMemoryCapacity is used by NewMemoryStore for a non-positive capacity.
const DefaultMemoryCapacity = 1000

// MemoryStore keeps the most recent entries in a ring buffer.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	count   int
}

// NewMemoryStore holds up to capacity entries.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{entries: make([]Entry, capacity)}
}

// Record implements Store.
func (m *MemoryStore) Record(ctx context.Context, e Entry) error {
	e = prepare(ctx, e)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[m.next] = e
	m.next = (m.next + 1) % len(m.entries)
	if m.count < len(m.entries) {
		m.count++
	}
	return nil
}

// Recent implements Store.
func (m *MemoryStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	limit = normalizeLimit(limit)

	m.mu.Lock()
	defer m.mu.Unlock()

	n := min(limit, m.count)
	out := make([]Entry, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, m.entries[(m.next-i+len(m.entries))%len(m.entries)])
	}
	return out, nil
}

// Prune implements Pruner.
func (m *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := make([]Entry, 0, m.count)
	for i := m.count; i >= 1; i-- {
		e := m.entries[(m.next-i+len(m.entries))%len(m.entries)]
		if !e.CreatedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}

	removed := int64(m.count - len(kept))
	clear(m.entries)
	copy(m.entries, kept)
	m.count = len(kept)
	m.next = len(kept) % len(m.entries)
	return removed, nil
}
