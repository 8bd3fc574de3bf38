package engine

import (
	"errors"
	"testing"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

func TestSelectProvider(t *testing.T) {
	candidates := []string{"a", "b", "c"}
	counts := map[string]int{"a": 4, "b": 1, "c": 1}

	for _, strategy := range []string{model.StrategyRoundRobin, model.StrategyLeastBooked, model.StrategyRandom} {
		if _, err := SelectProvider(strategy, nil, 0, counts, func(int) int { return 0 }); !errors.Is(err, ErrNoCandidates) {
			t.Fatalf("%s: expected ErrNoCandidates, got %v", strategy, err)
		}
		got, err := SelectProvider(strategy, []string{"only"}, 7, counts, func(int) int { return 0 })
		if err != nil || got != "only" {
			t.Fatalf("%s: expected single candidate, got %q (%v)", strategy, got, err)
		}
	}

	got, _ := SelectProvider(model.StrategyLeastBooked, candidates, 0, counts, nil)
	if got != "b" {
		t.Fatalf("least_booked should pick the first of the tied minimum, got %s", got)
	}

	got, _ = SelectProvider(model.StrategyRandom, candidates, 0, counts, func(n int) int { return n - 1 })
	if got != "c" {
		t.Fatalf("random should use the injected source, got %s", got)
	}

	seen := map[string]bool{}
	for i := int64(0); i < 3; i++ {
		got, _ := SelectProvider(model.StrategyRoundRobin, candidates, i, counts, nil)
		seen[got] = true
	}
	if len(seen) != 3 {
		t.Fatalf("round_robin should rotate through all candidates, saw %v", seen)
	}
	if got, _ := SelectProvider(model.StrategyRoundRobin, candidates, -1, counts, nil); got != "c" {
		t.Fatalf("negative index should wrap, got %s", got)
	}
}

func TestSlotIndexStable(t *testing.T) {
	start := utc(monday, 9, 0).Unix()
	if slotIndex(start, 30)+1 != slotIndex(start+30*60, 30) {
		t.Fatalf("consecutive slots should have consecutive indexes")
	}
}
