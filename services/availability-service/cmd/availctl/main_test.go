package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	base := []string{"availctl", "--fixture", "../../fixtures/demo.json", "--now", "2026-10-16T12:00:00Z", "--tenant", "acme"}
	if err := newApp(&out).Run(append(base, args...)); err != nil {
		t.Fatalf("run %v: %v", args, err)
	}
	return out.Bytes()
}

func TestSlotsCommand(t *testing.T) {
	var resp model.AvailabilityResponse
	if err := json.Unmarshal(run(t, "--service", "haircut", "slots", "--start", "2026-10-19"), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalSlots != 13 {
		t.Fatalf("expected 13 slots, got %d", resp.TotalSlots)
	}
}

func TestSlotsCommand_CalendarFromFixture(t *testing.T) {
	var resp model.AvailabilityResponse
	out := run(t, "--service", "haircut", "slots", "--start", "2026-10-21", "--provider", "bob")
	if err := json.Unmarshal(out, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, s := range resp.Days[0].Slots {
		if s.StartTime == "2026-10-21T14:00:00-04:00" {
			t.Fatalf("bob's calendar event must block 14:00")
		}
	}
}

func TestCheckCommand(t *testing.T) {
	var res model.SlotCheckResult
	out := run(t, "--service", "haircut", "check", "--provider", "alice", "--at", "2026-10-19T10:00:00-04:00")
	if err := json.Unmarshal(out, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Available || res.ConflictType != model.ConflictBooking {
		t.Fatalf("expected booking conflict, got %+v", res)
	}
}

func TestProvidersCommand(t *testing.T) {
	var providers []model.ProviderContext
	out := run(t, "--service", "haircut", "providers", "--from", "2026-10-19T13:00:00-04:00", "--to", "2026-10-19T13:30:00-04:00")
	if err := json.Unmarshal(out, &providers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(providers) != 2 {
		t.Fatalf("expected alice and bob, got %+v", providers)
	}
}

func TestMissingStore(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	var out bytes.Buffer
	err := newApp(&out).Run([]string{"availctl", "--tenant", "acme", "--service", "haircut", "slots", "--start", "2026-10-19"})
	if err == nil {
		t.Fatalf("expected error without a store")
	}
}
