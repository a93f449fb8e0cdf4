package dashboard

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/seenimoa/coindeck/pkg/models"
)

func entry(id string) models.MarketEntry {
	return models.MarketEntry{ID: id, Symbol: id[:3], Name: id}
}

func ids(entries []models.MarketEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func contains(entries []models.MarketEntry, id string) bool {
	return indexByID(entries, id) >= 0
}

func TestAddMovesCoinToSelected(t *testing.T) {
	s := NewStore()
	defer s.Close()

	s.SetAvailable([]models.MarketEntry{entry("bitcoin"), entry("ethereum")})
	s.Add(entry("bitcoin"))

	available, selected := s.Snapshot()
	if contains(available, "bitcoin") {
		t.Errorf("bitcoin still in available: %v", ids(available))
	}
	if !contains(selected, "bitcoin") {
		t.Errorf("bitcoin missing from selected: %v", ids(selected))
	}
	if !contains(available, "ethereum") {
		t.Errorf("ethereum should stay available: %v", ids(available))
	}
}

func TestAddIsIdempotent(t *testing.T) {
	s := NewStore()
	defer s.Close()

	s.SetAvailable([]models.MarketEntry{entry("bitcoin")})
	s.Add(entry("bitcoin"))
	s.Add(entry("bitcoin"))

	_, selected := s.Snapshot()
	if len(selected) != 1 {
		t.Errorf("selected length: got %d, want 1", len(selected))
	}
}

func TestRemoveRoundTrip(t *testing.T) {
	s := NewStore()
	defer s.Close()

	s.SetAvailable([]models.MarketEntry{entry("bitcoin"), entry("ethereum")})
	s.Add(entry("bitcoin"))

	if !s.Remove("bitcoin") {
		t.Fatal("Remove should report the coin was selected")
	}

	available, selected := s.Snapshot()
	if contains(selected, "bitcoin") {
		t.Errorf("bitcoin still in selected: %v", ids(selected))
	}
	if !contains(available, "bitcoin") {
		t.Errorf("bitcoin should return to available: %v", ids(available))
	}
}

func TestRemoveUnknownIsNoOp(t *testing.T) {
	s := NewStore()
	defer s.Close()

	s.SetAvailable([]models.MarketEntry{entry("bitcoin")})
	if s.Remove("dogecoin") {
		t.Error("Remove of unselected coin should report false")
	}

	available, selected := s.Snapshot()
	if len(available) != 1 || len(selected) != 0 {
		t.Errorf("state changed: available=%v selected=%v", ids(available), ids(selected))
	}
}

func TestSetAvailableReplacesWholesale(t *testing.T) {
	s := NewStore()
	defer s.Close()

	s.SetAvailable([]models.MarketEntry{entry("bitcoin"), entry("ethereum")})
	s.SetAvailable([]models.MarketEntry{entry("solana")})

	available, _ := s.Snapshot()
	if len(available) != 1 || available[0].ID != "solana" {
		t.Errorf("available: got %v, want [solana]", ids(available))
	}
}

func TestSetAvailablePreservesDisjointness(t *testing.T) {
	s := NewStore()
	defer s.Close()

	s.SetAvailable([]models.MarketEntry{entry("bitcoin"), entry("ethereum")})
	s.Add(entry("bitcoin"))

	// A refresh feed includes the already-selected coin.
	s.SetAvailable([]models.MarketEntry{entry("bitcoin"), entry("solana")})

	available, selected := s.Snapshot()
	if contains(available, "bitcoin") {
		t.Errorf("selected coin leaked into available: %v", ids(available))
	}
	if !contains(selected, "bitcoin") {
		t.Errorf("selection lost across refresh: %v", ids(selected))
	}
}

func TestEmpty(t *testing.T) {
	s := NewStore()
	defer s.Close()

	if !s.Empty() {
		t.Error("new store should be empty")
	}
	s.SetAvailable([]models.MarketEntry{entry("bitcoin")})
	if s.Empty() {
		t.Error("store with available coins should not be empty")
	}
}

func TestSnapshotReturnsCopies(t *testing.T) {
	s := NewStore()
	defer s.Close()

	s.SetAvailable([]models.MarketEntry{entry("bitcoin")})
	available, _ := s.Snapshot()
	available[0].ID = "mutated"

	fresh, _ := s.Snapshot()
	if fresh[0].ID != "bitcoin" {
		t.Error("snapshot mutation leaked into store state")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	defer s.Close()

	entries := make([]models.MarketEntry, 50)
	for i := range entries {
		entries[i] = entry(fmt.Sprintf("coin-%02d", i))
	}
	s.SetAvailable(entries)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("coin-%02d", i)
			s.Add(entry(id))
			_, _ = s.Snapshot()
			if i%2 == 0 {
				s.Remove(id)
			}
		}(i)
	}
	wg.Wait()

	available, selected := s.Snapshot()
	if len(available)+len(selected) != 50 {
		t.Errorf("coins lost or duplicated: available=%d selected=%d",
			len(available), len(selected))
	}
	for _, e := range selected {
		if contains(available, e.ID) {
			t.Errorf("coin %s present in both lists", e.ID)
		}
	}
}

func TestCloseMakesOperationsNoOp(t *testing.T) {
	s := NewStore()
	s.SetAvailable([]models.MarketEntry{entry("bitcoin")})
	s.Close()

	// No panic, no hang.
	done := make(chan struct{})
	go func() {
		s.Add(entry("ethereum"))
		_, _ = s.Snapshot()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("operations on a closed store should not block")
	}
}
