package availability

import (
	"reflect"
	"testing"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

func w(t *testing.T, start, end string) model.Window {
	t.Helper()
	win, err := ParseWindow(start, end)
	if err != nil {
		t.Fatalf("parse window: %v", err)
	}
	return win
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"17:30:00", 1050, false},
		{"00:00", 0, false},
		{"24:00", 1440, false},
		{"24:01", 0, true},
		{"9:00", 0, true},
		{"09:60", 0, true},
		{"nope", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%s: expected %d, got %d (%v)", tc.in, tc.want, got, err)
		}
	}
	if FormatClock(1050) != "17:30" {
		t.Fatalf("unexpected format %s", FormatClock(1050))
	}
}

func TestParseWindow_RejectsInverted(t *testing.T) {
	if _, err := ParseWindow("10:00", "09:00"); err == nil {
		t.Fatalf("expected error for inverted window")
	}
	if _, err := ParseWindow("10:00", "10:00"); err == nil {
		t.Fatalf("expected error for empty window")
	}
}

func TestCombineWindows(t *testing.T) {
	in := []model.Window{
		w(t, "13:00", "15:00"),
		w(t, "09:00", "10:00"),
		w(t, "10:00", "11:00"), // adjacent
		w(t, "14:00", "16:00"), // overlapping
		w(t, "18:00", "19:00"),
	}
	got := CombineWindows(in)
	want := []model.Window{w(t, "09:00", "11:00"), w(t, "13:00", "16:00"), w(t, "18:00", "19:00")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if in[0] != w(t, "13:00", "15:00") {
		t.Fatalf("input must not be mutated")
	}
}

func TestIntersectWindows_Commutative(t *testing.T) {
	sets := [][]model.Window{
		{w(t, "09:00", "17:00")},
		{w(t, "08:00", "10:00"), w(t, "12:00", "14:00"), w(t, "16:30", "20:00")},
		{w(t, "09:30", "09:45"), w(t, "13:00", "18:00")},
		nil,
	}
	for i, a := range sets {
		for j, b := range sets {
			ab := IntersectWindows(a, b)
			ba := IntersectWindows(b, a)
			if !reflect.DeepEqual(ab, ba) {
				t.Fatalf("sets %d,%d: %v != %v", i, j, ab, ba)
			}
		}
	}

	got := IntersectWindows(sets[0], sets[1])
	want := []model.Window{w(t, "09:00", "10:00"), w(t, "12:00", "14:00"), w(t, "16:30", "17:00")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := IntersectWindows(sets[0], nil); len(got) != 0 {
		t.Fatalf("expected empty intersection, got %v", got)
	}
}

func TestSubtractWindow(t *testing.T) {
	base := []model.Window{w(t, "09:00", "17:00")}
	got := SubtractWindow(base, w(t, "12:00", "13:00"))
	want := []model.Window{w(t, "09:00", "12:00"), w(t, "13:00", "17:00")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	// Non-overlapping windows pass through untouched, in order, unmerged.
	base = []model.Window{w(t, "09:00", "10:00"), w(t, "10:00", "11:00"), w(t, "14:00", "15:00")}
	got = SubtractWindow(base, w(t, "12:00", "13:00"))
	if !reflect.DeepEqual(got, base) {
		t.Fatalf("expected %v, got %v", base, got)
	}

	got = SubtractWindow([]model.Window{w(t, "09:00", "10:00")}, w(t, "08:00", "11:00"))
	if len(got) != 0 {
		t.Fatalf("expected full removal, got %v", got)
	}
}

func TestContainsRange(t *testing.T) {
	windows := []model.Window{w(t, "09:00", "12:00"), w(t, "13:00", "17:00")}
	if !ContainsRange(windows, 9*60, 10*60) {
		t.Fatalf("expected 09:00-10:00 inside")
	}
	if ContainsRange(windows, 11*60+30, 13*60+30) {
		t.Fatalf("range spanning the gap must not be contained")
	}
}
