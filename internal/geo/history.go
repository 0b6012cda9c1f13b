package geo

import (
	"sync"
	"time"
)

// DefaultHistorySize is used when NewHistory is given a non-positive size.
const DefaultHistorySize = 100

// HistoryEntry records one keyword search.
type HistoryEntry struct {
	Keyword string    `json:"keyword"`
	Matches int       `json:"matches"`
	At      time.Time `json:"at"`
}

// History keeps the most recent keyword searches. Safe for concurrent use.
type History struct {
	mu      sync.Mutex
	entries []HistoryEntry
	next    int
	full    bool
}

// NewHistory keeps up to size entries.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{entries: make([]HistoryEntry, size)}
}

// Record appends an entry, evicting the oldest when full.
func (h *History) Record(keyword string, matches int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.next] = HistoryEntry{Keyword: keyword, Matches: matches, At: time.Now().UTC()}
	h.next = (h.next + 1) % len(h.entries)
	if h.next == 0 {
		h.full = true
	}
}

// Entries returns the recorded searches, newest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.next
	if h.full {
		n = len(h.entries)
	}

	out := make([]HistoryEntry, 0, n)
	for i := 1; i <= n; i++ {
		idx := (h.next - i + len(h.entries)) % len(h.entries)
		out = append(out, h.entries[idx])
	}
	return out
}
