package availability

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

func TestGenerateSlots_Exact(t *testing.T) {
	windows := []model.Window{{Start: 9 * 60, End: 10 * 60}}

	slots := GenerateSlots(windows, 30, 30, "2026-10-19", time.UTC)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if got := slots[0].Start.Format("15:04") + "-" + slots[0].End.Format("15:04"); got != "09:00-09:30" {
		t.Fatalf("unexpected first slot %s", got)
	}
	if got := slots[1].Start.Format("15:04") + "-" + slots[1].End.Format("15:04"); got != "09:30-10:00" {
		t.Fatalf("unexpected second slot %s", got)
	}

	// 09:30 + 40 overflows 10:00.
	slots = GenerateSlots(windows, 40, 30, "2026-10-19", time.UTC)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if got := slots[0].End.Format("15:04"); got != "09:40" {
		t.Fatalf("expected slot to end at 09:40, got %s", got)
	}
}

func TestGenerateSlots_InvalidSizes(t *testing.T) {
	windows := []model.Window{{Start: 0, End: 60}}
	if got := GenerateSlots(windows, 0, 30, "2026-10-19", time.UTC); got != nil {
		t.Fatalf("expected nil for zero duration, got %v", got)
	}
	if got := GenerateSlots(windows, 30, 0, "2026-10-19", time.UTC); got != nil {
		t.Fatalf("expected nil for zero interval, got %v", got)
	}
}

func TestGenerateSlots_SpringForwardSkipsGap(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 02:00-03:00 does not exist locally on 2026-03-08.
	windows := []model.Window{{Start: 60, End: 4 * 60}}
	slots := GenerateSlots(windows, 60, 60, "2026-03-08", loc)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots (01:00, 03:00), got %d", len(slots))
	}
	if slots[0].Start.Format(time.RFC3339) != "2026-03-08T01:00:00-05:00" {
		t.Fatalf("unexpected first slot %s", slots[0].Start.Format(time.RFC3339))
	}
	if slots[1].Start.Format(time.RFC3339) != "2026-03-08T03:00:00-04:00" {
		t.Fatalf("unexpected second slot %s", slots[1].Start.Format(time.RFC3339))
	}
}

func TestGenerateSlots_FallBackNoDuplicateInstants(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 01:00-02:00 happens twice locally on 2026-11-01; the earlier (EDT) reading wins.
	windows := []model.Window{{Start: 0, End: 3 * 60}}
	slots := GenerateSlots(windows, 30, 30, "2026-11-01", loc)
	want := []string{
		"2026-11-01T04:00:00Z",
		"2026-11-01T04:30:00Z",
		"2026-11-01T05:00:00Z",
		"2026-11-01T05:30:00Z",
		"2026-11-01T07:00:00Z",
		"2026-11-01T07:30:00Z",
	}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(slots))
	}
	seen := map[int64]bool{}
	for i, s := range slots {
		if got := s.Start.UTC().Format(time.RFC3339); got != want[i] {
			t.Fatalf("slot %d: expected %s, got %s", i, want[i], got)
		}
		if seen[s.Start.Unix()] {
			t.Fatalf("duplicate instant %s", s.Start.UTC())
		}
		seen[s.Start.Unix()] = true
		if i > 0 && s.Interval().Overlaps(slots[i-1].Interval()) {
			t.Fatalf("slot %d overlaps slot %d", i, i-1)
		}
	}
}

func TestGenerateSlots_OffsetResolvedPerDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	windows := []model.Window{{Start: 9 * 60, End: 10 * 60}}
	before := GenerateSlots(windows, 60, 60, "2026-10-30", loc)
	after := GenerateSlots(windows, 60, 60, "2026-11-02", loc)
	if before[0].Start.UTC().Hour() != 13 {
		t.Fatalf("expected 13:00Z under EDT, got %s", before[0].Start.UTC())
	}
	if after[0].Start.UTC().Hour() != 14 {
		t.Fatalf("expected 14:00Z under EST, got %s", after[0].Start.UTC())
	}
}

func TestIntervalOverlaps_HalfOpen(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	booking := Interval{Start: day.Add(10 * time.Hour), End: day.Add(10*time.Hour + 30*time.Minute)}
	next := Interval{Start: day.Add(10*time.Hour + 30*time.Minute), End: day.Add(11 * time.Hour)}

	if booking.Overlaps(next) {
		t.Fatalf("adjacent intervals must not overlap")
	}
	// 15 minute buffer after the booking reaches into the next slot.
	if !booking.Pad(0, 15).Overlaps(next) {
		t.Fatalf("padded booking should overlap the following slot")
	}
	if !next.Overlaps(booking.Pad(0, 15)) {
		t.Fatalf("overlap must be symmetric")
	}
	if !OverlapsAny(next, []Interval{booking.Pad(0, 15)}) {
		t.Fatalf("expected OverlapsAny to report the buffer conflict")
	}
}
