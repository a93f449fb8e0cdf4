// Package dashboard holds the per-session dashboard state: which
// market entries are still available and which the user has selected.
//
// Each Store is owned by a single goroutine; mutations and reads are
// delivered over a command channel, so callers from any goroutine see
// serialized operations without locks. This replaces the implicit
// UI-thread serialization a browser store gets for free.
package dashboard

import "github.com/seenimoa/coindeck/pkg/models"

// Store is one session's dashboard state. All operations are total:
// they never fail, they only move entries between the two collections.
//
// Invariant: available and selected are disjoint by entry id.
type Store struct {
	cmds chan func(*state)
	done chan struct{}
}

// state is only ever touched by the owning goroutine.
type state struct {
	available []models.MarketEntry
	selected  []models.MarketEntry
}

// NewStore creates an empty store and starts its owning goroutine.
// Callers must Close it when the session ends.
func NewStore() *Store {
	s := &Store{
		cmds: make(chan func(*state)),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Store) run() {
	st := &state{}
	for {
		select {
		case cmd := <-s.cmds:
			cmd(st)
		case <-s.done:
			return
		}
	}
}

// exec runs cmd on the owning goroutine and waits for it to finish.
// After Close, exec is a no-op so late callers never block.
func (s *Store) exec(cmd func(*state)) {
	reply := make(chan struct{})
	wrapped := func(st *state) {
		cmd(st)
		close(reply)
	}
	select {
	case s.cmds <- wrapped:
		<-reply
	case <-s.done:
	}
}

// SetAvailable replaces the available collection wholesale. Entries
// whose ids are already selected are dropped from the new snapshot to
// preserve disjointness; a second call overwrites the first.
func (s *Store) SetAvailable(entries []models.MarketEntry) {
	s.exec(func(st *state) {
		next := make([]models.MarketEntry, 0, len(entries))
		for _, e := range entries {
			if indexByID(st.selected, e.ID) < 0 {
				next = append(next, e)
			}
		}
		st.available = next
	})
}

// Add moves an entry from available to selected by id. The entry need
// not currently be in available. Adding an id that is already selected
// is a no-op, so a double add never duplicates the dashboard.
func (s *Store) Add(entry models.MarketEntry) {
	s.exec(func(st *state) {
		if i := indexByID(st.available, entry.ID); i >= 0 {
			st.available = append(st.available[:i], st.available[i+1:]...)
		}
		if indexByID(st.selected, entry.ID) < 0 {
			st.selected = append(st.selected, entry)
		}
	})
}

// Remove moves the entry with the given id from selected back into
// available. It reports whether an entry was found; when none is,
// both collections are left unchanged.
func (s *Store) Remove(id string) bool {
	var found bool
	s.exec(func(st *state) {
		i := indexByID(st.selected, id)
		if i < 0 {
			return
		}
		entry := st.selected[i]
		st.selected = append(st.selected[:i], st.selected[i+1:]...)
		if indexByID(st.available, id) < 0 {
			st.available = append(st.available, entry)
		}
		found = true
	})
	return found
}

// Snapshot returns copies of both collections.
func (s *Store) Snapshot() (available, selected []models.MarketEntry) {
	s.exec(func(st *state) {
		available = append([]models.MarketEntry(nil), st.available...)
		selected = append([]models.MarketEntry(nil), st.selected...)
	})
	return available, selected
}

// Empty reports whether both collections are empty, i.e. the store
// has not been seeded yet.
func (s *Store) Empty() bool {
	available, selected := s.Snapshot()
	return len(available) == 0 && len(selected) == 0
}

// Close stops the owning goroutine. Safe to call once.
func (s *Store) Close() {
	close(s.done)
}

func indexByID(entries []models.MarketEntry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
