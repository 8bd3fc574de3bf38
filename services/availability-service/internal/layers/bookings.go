package layers

import (
	"sort"
	"time"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

type bookingEntry struct {
	occupied  availability.Interval
	start     time.Time
	serviceID string
}

// BookingIndex is the L4 layer: active bookings per provider, ordered by occupied start.
type BookingIndex struct {
	byProvider map[string][]bookingEntry
}

func IndexBookings(rows []model.BookingRecord) BookingIndex {
	ix := BookingIndex{byProvider: make(map[string][]bookingEntry)}
	for _, b := range rows {
		if !b.Active() || !b.EndTime.After(b.StartTime) {
			continue
		}
		from, to := b.Occupied()
		ix.byProvider[b.ProviderID] = append(ix.byProvider[b.ProviderID], bookingEntry{
			occupied:  availability.Interval{Start: from, End: to},
			start:     b.StartTime,
			serviceID: b.ServiceID,
		})
	}
	for _, entries := range ix.byProvider {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].occupied.Start.Before(entries[j].occupied.Start)
		})
	}
	return ix
}

// Conflicts reports whether any active booking of the provider overlaps candidate.
// The candidate is expected to already carry the slot's own buffers.
func (ix BookingIndex) Conflicts(providerID string, candidate availability.Interval) bool {
	for _, e := range ix.byProvider[providerID] {
		if !e.occupied.Start.Before(candidate.End) {
			break
		}
		if e.occupied.Overlaps(candidate) {
			return true
		}
	}
	return false
}

// CheckCapacity is Conflicts for group services. A booking of the same service starting
// at the same instant takes a seat instead of blocking. It returns whether the slot is
// blocked and, when not, how many seats remain.
func (ix BookingIndex) CheckCapacity(providerID, serviceID string, slotStart time.Time, candidate availability.Interval, capacity int) (bool, int) {
	if capacity <= 1 {
		if ix.Conflicts(providerID, candidate) {
			return true, 0
		}
		return false, 1
	}
	seats := 0
	for _, e := range ix.byProvider[providerID] {
		if !e.occupied.Start.Before(candidate.End) {
			break
		}
		if !e.occupied.Overlaps(candidate) {
			continue
		}
		if e.serviceID == serviceID && e.start.Equal(slotStart) {
			seats++
			continue
		}
		return true, 0
	}
	if seats >= capacity {
		return true, 0
	}
	return false, capacity - seats
}

// ActiveCount is the number of indexed bookings for the provider.
func (ix BookingIndex) ActiveCount(providerID string) int {
	return len(ix.byProvider[providerID])
}

// Counts returns ActiveCount for each provider id.
func (ix BookingIndex) Counts(providerIDs []string) map[string]int {
	out := make(map[string]int, len(providerIDs))
	for _, id := range providerIDs {
		out[id] = ix.ActiveCount(id)
	}
	return out
}
