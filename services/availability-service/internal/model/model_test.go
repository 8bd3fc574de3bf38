package model

import (
	"testing"
	"time"
)

func TestBookingRecordActive(t *testing.T) {
	cases := map[string]bool{
		BookingStatusPending:   true,
		BookingStatusConfirmed: true,
		BookingStatusCompleted: true,
		BookingStatusNoShow:    true,
		BookingStatusCancelled: false,
		BookingStatusRejected:  false,
	}
	for status, want := range cases {
		if got := (BookingRecord{Status: status}).Active(); got != want {
			t.Fatalf("%s: expected active=%v, got %v", status, want, got)
		}
	}
}

func TestBookingRecordOccupied(t *testing.T) {
	start := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	b := BookingRecord{
		StartTime:           start,
		EndTime:             start.Add(30 * time.Minute),
		BufferBeforeMinutes: 5,
		BufferAfterMinutes:  15,
	}
	from, to := b.Occupied()
	if !from.Equal(start.Add(-5*time.Minute)) || !to.Equal(start.Add(45*time.Minute)) {
		t.Fatalf("unexpected occupied range %s - %s", from, to)
	}
}
