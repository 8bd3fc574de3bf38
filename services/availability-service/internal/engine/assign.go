package engine

import (
	"fmt"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

// SelectProvider picks one provider id out of candidates.
//
// round_robin rotates by slotIndex, least_booked takes the lowest count (first candidate
// wins ties), random delegates to intn. An empty candidate set is a caller bug.
func SelectProvider(strategy string, candidates []string, slotIndex int64, counts map[string]int, intn func(int) int) (string, error) {
	switch len(candidates) {
	case 0:
		return "", ErrNoCandidates
	case 1:
		return candidates[0], nil
	}

	switch strategy {
	case model.StrategyLeastBooked:
		best := candidates[0]
		for _, c := range candidates[1:] {
			if counts[c] < counts[best] {
				best = c
			}
		}
		return best, nil
	case model.StrategyRandom:
		if intn == nil {
			return "", fmt.Errorf("random strategy without a source: %w", ErrNoCandidates)
		}
		return candidates[intn(len(candidates))], nil
	default:
		n := int64(len(candidates))
		i := ((slotIndex % n) + n) % n
		return candidates[i], nil
	}
}

// slotIndex is stable across requests: minutes since the epoch divided by the slot interval.
func slotIndex(startUnix int64, intervalMinutes int) int64 {
	if intervalMinutes <= 0 {
		intervalMinutes = 1
	}
	return startUnix / 60 / int64(intervalMinutes)
}
