package census

import (
	"context"
	"sync"
	"time"
)

// CachingSource remembers successful lookups for ttl. Errors are not cached.
type CachingSource struct {
	next DataSource
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	data    BroadbandData
	expires time.Time
}

// NewCachingSource wraps next.
func NewCachingSource(next DataSource, ttl time.Duration) *CachingSource {
	return &CachingSource{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Broadband implements DataSource.
func (s *CachingSource) Broadband(ctx context.Context, loc Location) (BroadbandData, error) {
	key := loc.key()

	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()
	if ok && s.now().Before(e.expires) {
		return e.data, nil
	}

	data, err := s.next.Broadband(ctx, loc)
	if err != nil {
		return BroadbandData{}, err
	}

	s.mu.Lock()
	s.entries[key] = cacheEntry{data: data, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return data, nil
}

// Purge drops expired entries and returns how many were removed.
func (s *CachingSource) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries, expired or not.
func (s *CachingSource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
