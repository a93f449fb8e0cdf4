package dashboard

import (
	"sync"
	"time"
)

// Sessions hands out one Store per session id and discards stores
// that have been idle longer than the TTL. Nothing is persisted:
// an expired session simply starts over.
type Sessions struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*sessionEntry
	stop    chan struct{}
	once    sync.Once
}

type sessionEntry struct {
	store    *Store
	lastSeen time.Time
}

// NewSessions creates a session manager and starts its expiry sweep.
func NewSessions(ttl time.Duration) *Sessions {
	s := &Sessions{
		ttl:     ttl,
		entries: make(map[string]*sessionEntry),
		stop:    make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Get returns the store for a session id, creating it on first use.
func (s *Sessions) Get(id string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		entry = &sessionEntry{store: NewStore()}
		s.entries[id] = entry
	}
	entry.lastSeen = time.Now()
	return entry.store
}

// Count returns the number of live sessions.
func (s *Sessions) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// sweep drops idle sessions once per minute.
func (s *Sessions) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-s.ttl)
			s.mu.Lock()
			for id, entry := range s.entries {
				if entry.lastSeen.Before(cutoff) {
					entry.store.Close()
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}

// Close stops the sweep and closes every live store.
func (s *Sessions) Close() {
	s.once.Do(func() { close(s.stop) })

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.entries {
		entry.store.Close()
		delete(s.entries, id)
	}
}
