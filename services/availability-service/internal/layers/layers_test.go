package layers

import (
	"reflect"
	"testing"
	"time"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

func ptr(s string) *string { return &s }

func win(t *testing.T, start, end string) model.Window {
	t.Helper()
	w, err := availability.ParseWindow(start, end)
	if err != nil {
		t.Fatalf("parse window: %v", err)
	}
	return w
}

func TestReplaceResult_EmptyIsBlocked(t *testing.T) {
	if got := ReplaceResult(nil).Kind(); got != Blocked {
		t.Fatalf("expected Blocked, got %s", got)
	}
	base := []model.Window{{Start: 0, End: 60}}
	if got := DeferResult().Resolve(base); !reflect.DeepEqual(got, base) {
		t.Fatalf("defer must return base, got %v", got)
	}
	if got := BlockedResult().Resolve(base); len(got) != 0 {
		t.Fatalf("blocked must return nothing, got %v", got)
	}
}

func TestApplyOverride(t *testing.T) {
	base := []model.Window{win(t, "09:00", "17:00")}

	cases := []struct {
		name      string
		overrides []model.Override
		kind      Kind
		want      []model.Window
	}{
		{
			name: "none defers",
			kind: Defer,
			want: base,
		},
		{
			name:      "partial block",
			overrides: []model.Override{{StartTime: ptr("12:00"), EndTime: ptr("13:00")}},
			kind:      Replace,
			want:      []model.Window{win(t, "09:00", "12:00"), win(t, "13:00", "17:00")},
		},
		{
			name:      "full block",
			overrides: []model.Override{{IsAvailable: false}},
			kind:      Blocked,
		},
		{
			name:      "replace is not a union",
			overrides: []model.Override{{IsAvailable: true, StartTime: ptr("18:00"), EndTime: ptr("20:00")}},
			kind:      Replace,
			want:      []model.Window{win(t, "18:00", "20:00")},
		},
		{
			name:      "available without times is a no-op",
			overrides: []model.Override{{IsAvailable: true}},
			kind:      Defer,
			want:      base,
		},
		{
			name:      "malformed row is ignored",
			overrides: []model.Override{{StartTime: ptr("12:00")}},
			kind:      Defer,
			want:      base,
		},
		{
			name: "full block wins over replace",
			overrides: []model.Override{
				{IsAvailable: true, StartTime: ptr("10:00"), EndTime: ptr("11:00")},
				{IsAvailable: false},
			},
			kind: Blocked,
		},
		{
			name: "partial block applies to replacement",
			overrides: []model.Override{
				{IsAvailable: true, StartTime: ptr("10:00"), EndTime: ptr("14:00")},
				{IsAvailable: false, StartTime: ptr("11:00"), EndTime: ptr("12:00")},
			},
			kind: Replace,
			want: []model.Window{win(t, "10:00", "11:00"), win(t, "12:00", "14:00")},
		},
		{
			name:      "block covering everything",
			overrides: []model.Override{{StartTime: ptr("08:00"), EndTime: ptr("18:00")}},
			kind:      Blocked,
		},
	}
	for _, tc := range cases {
		r := ApplyOverride(base, tc.overrides)
		if r.Kind() != tc.kind {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.kind, r.Kind())
		}
		if got := r.Resolve(base); !reflect.DeepEqual(got, tc.want) && !(len(got) == 0 && len(tc.want) == 0) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestApplyProviderOverride_ClippedToService(t *testing.T) {
	service := []model.Window{win(t, "09:00", "17:00")}
	ix := IndexOverrides([]model.Override{
		{OwnerID: "p1", Date: "2026-10-19", IsAvailable: true, StartTime: ptr("07:00"), EndTime: ptr("10:00")},
	})
	r := ApplyProviderOverride(ix, "p1", "2026-10-19", service, service)
	want := []model.Window{win(t, "09:00", "10:00")}
	if r.Kind() != Replace || !reflect.DeepEqual(r.Windows(), want) {
		t.Fatalf("expected %v, got %s %v", want, r.Kind(), r.Windows())
	}
	if got := ApplyProviderOverride(ix, "p1", "2026-10-20", service, service).Kind(); got != Defer {
		t.Fatalf("other dates must defer, got %s", got)
	}
}

func TestProviderWindows(t *testing.T) {
	service := []model.Window{win(t, "09:00", "17:00")}
	ix := IndexSchedules([]model.ScheduleSlot{
		{OwnerID: "p1", DayOfWeek: 1, StartTime: "08:00", EndTime: "12:00", IsAvailable: true},
		{OwnerID: "p1", DayOfWeek: 1, StartTime: "15:00", EndTime: "19:00", IsAvailable: true},
		{OwnerID: "p2", DayOfWeek: 2, StartTime: "09:00", EndTime: "17:00", IsAvailable: true},
		{OwnerID: "p3", DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", IsAvailable: false},
	})

	got := ProviderWindows(ix, "p1", 1, service)
	want := []model.Window{win(t, "09:00", "12:00"), win(t, "15:00", "17:00")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := ProviderWindows(ix, "p2", 1, service); len(got) != 0 {
		t.Fatalf("p2 does not work Mondays, got %v", got)
	}
	if got := ProviderWindows(ix, "p3", 1, service); len(got) != 0 {
		t.Fatalf("p3 only has an unavailable row, got %v", got)
	}
	if got := ProviderWindows(ix, "unscheduled", 1, service); !reflect.DeepEqual(got, service) {
		t.Fatalf("provider without rows should follow the service, got %v", got)
	}
}

func TestServiceWindows_SplitShift(t *testing.T) {
	ix := IndexSchedules([]model.ScheduleSlot{
		{OwnerID: "s1", DayOfWeek: 1, StartTime: "13:00", EndTime: "17:00", IsAvailable: true},
		{OwnerID: "s1", DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", IsAvailable: true},
		{OwnerID: "s1", DayOfWeek: 1, StartTime: "bad", EndTime: "12:00", IsAvailable: true},
	})
	got := ServiceWindows(ix, "s1", 1)
	want := []model.Window{win(t, "09:00", "12:00"), win(t, "13:00", "17:00")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := ServiceWindows(ix, "s1", 2); len(got) != 0 {
		t.Fatalf("expected no Tuesday windows, got %v", got)
	}
}

func at(hh, mm int) time.Time {
	return time.Date(2026, 10, 19, hh, mm, 0, 0, time.UTC)
}

func TestBookingIndex_BufferConflict(t *testing.T) {
	ix := IndexBookings([]model.BookingRecord{
		{ID: "b1", ProviderID: "p1", StartTime: at(10, 0), EndTime: at(10, 30), BufferAfterMinutes: 15, Status: model.BookingStatusConfirmed},
		{ID: "b2", ProviderID: "p1", StartTime: at(14, 0), EndTime: at(15, 0), Status: model.BookingStatusCancelled},
	})

	slot := availability.Interval{Start: at(10, 30), End: at(11, 0)}
	if !ix.Conflicts("p1", slot) {
		t.Fatalf("buffer after the booking should block 10:30")
	}
	if ix.Conflicts("p1", availability.Interval{Start: at(10, 45), End: at(11, 15)}) {
		t.Fatalf("10:45 starts exactly when the buffer ends")
	}
	if ix.Conflicts("p1", availability.Interval{Start: at(14, 0), End: at(15, 0)}) {
		t.Fatalf("cancelled bookings must not participate")
	}
	if ix.Conflicts("p2", slot) {
		t.Fatalf("other providers are unaffected")
	}
	if ix.ActiveCount("p1") != 1 {
		t.Fatalf("expected one active booking, got %d", ix.ActiveCount("p1"))
	}
}

func TestBookingIndex_GroupCapacity(t *testing.T) {
	ix := IndexBookings([]model.BookingRecord{
		{ID: "b1", ProviderID: "p1", ServiceID: "yoga", StartTime: at(9, 0), EndTime: at(10, 0), Status: model.BookingStatusConfirmed},
		{ID: "b2", ProviderID: "p1", ServiceID: "yoga", StartTime: at(9, 0), EndTime: at(10, 0), Status: model.BookingStatusPending},
		{ID: "b3", ProviderID: "p1", ServiceID: "massage", StartTime: at(11, 0), EndTime: at(12, 0), Status: model.BookingStatusConfirmed},
	})
	slot := availability.Interval{Start: at(9, 0), End: at(10, 0)}

	blocked, remaining := ix.CheckCapacity("p1", "yoga", at(9, 0), slot, 3)
	if blocked || remaining != 1 {
		t.Fatalf("expected one seat left, got blocked=%v remaining=%d", blocked, remaining)
	}
	if blocked, _ := ix.CheckCapacity("p1", "yoga", at(9, 0), slot, 2); !blocked {
		t.Fatalf("full class should block")
	}
	other := availability.Interval{Start: at(11, 0), End: at(12, 0)}
	if blocked, _ := ix.CheckCapacity("p1", "yoga", at(11, 0), other, 3); !blocked {
		t.Fatalf("a different service's booking must block")
	}
}

func TestCalendarIndex(t *testing.T) {
	ix := IndexCalendarEvents([]model.CalendarEvent{
		{ProviderID: "p1", StartTime: at(13, 0), EndTime: at(14, 0)},
		{ProviderID: "p1", IsAllDay: true, StartTime: time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 10, 23, 0, 0, 0, 0, time.UTC)},
		{ProviderID: "p2", IsAllDay: true, StartTime: time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)},
	})
	if !ix.Conflicts("p1", availability.Interval{Start: at(13, 30), End: at(14, 30)}) {
		t.Fatalf("expected calendar conflict")
	}
	if ix.Conflicts("p1", availability.Interval{Start: at(14, 0), End: at(15, 0)}) {
		t.Fatalf("adjacent event must not conflict")
	}
	for date, want := range map[string]bool{"2026-10-20": false, "2026-10-21": true, "2026-10-22": true, "2026-10-23": false} {
		if got := ix.BlocksDate("p1", date); got != want {
			t.Fatalf("%s: expected %v, got %v", date, want, got)
		}
	}
	if !ix.BlocksDate("p2", "2026-10-25") {
		t.Fatalf("zero-length all-day event should block its start date")
	}
}
