package availability

import (
	"time"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps treats both intervals as half-open: [a,b) overlaps [c,d) iff a < d && c < b.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Pad widens the interval by buffer minutes on each side.
func (i Interval) Pad(beforeMinutes, afterMinutes int) Interval {
	return Interval{
		Start: i.Start.Add(-time.Duration(beforeMinutes) * time.Minute),
		End:   i.End.Add(time.Duration(afterMinutes) * time.Minute),
	}
}

func OverlapsAny(iv Interval, busy []Interval) bool {
	for _, b := range busy {
		if iv.Overlaps(b) {
			return true
		}
	}
	return false
}

// GridSlot is a candidate slot before conflict filtering.
type GridSlot struct {
	Start time.Time
	End   time.Time
}

func (g GridSlot) Interval() Interval {
	return Interval{Start: g.Start, End: g.End}
}

// GenerateSlots walks each window in interval steps and emits a slot whenever
// offset+duration fits inside the window. Windows are expected sorted and non-overlapping.
// Wall-clock starts are resolved in loc on date; starts that do not exist locally are skipped.
func GenerateSlots(windows []model.Window, durationMinutes, intervalMinutes int, date string, loc *time.Location) []GridSlot {
	if durationMinutes <= 0 || intervalMinutes <= 0 {
		return nil
	}
	duration := time.Duration(durationMinutes) * time.Minute

	var slots []GridSlot
	for _, w := range windows {
		for offset := w.Start; offset+durationMinutes <= w.End; offset += intervalMinutes {
			start, ok := ResolveInstant(date, offset, loc)
			if !ok {
				continue
			}
			slots = append(slots, GridSlot{Start: start, End: start.Add(duration)})
		}
	}
	return slots
}
