package engine

import (
	"sort"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/layers"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

// serviceWindowsFor runs L1 and L1.5 for one date.
func serviceWindowsFor(ix indices, rc *requestContext, date string, weekday int, withOverrides bool) []model.Window {
	base := layers.ServiceWindows(ix.serviceSchedules, rc.service.ID, weekday)
	if !withOverrides {
		return base
	}
	return layers.ApplyServiceOverride(ix.serviceOverrides, rc.service.ID, date, base).Resolve(base)
}

// providerWindowsFor runs L2 and L3 for one provider on top of the service windows.
func providerWindowsFor(ix indices, providerID, date string, weekday int, service []model.Window, withOverrides bool) []model.Window {
	windows := layers.ProviderWindows(ix.providerSchedules, providerID, weekday, service)
	if !withOverrides {
		return windows
	}
	return layers.ApplyProviderOverride(ix.providerOverrides, providerID, date, windows, service).Resolve(windows)
}

// slotConflict runs L4 and L5 for a grid slot padded by the service buffers.
// remaining is only meaningful when conflict is ""; it is 0 for single-seat services.
func slotConflict(ix indices, rc *requestContext, providerID string, slot availability.GridSlot) (model.ConflictType, int) {
	candidate := slot.Interval().Pad(rc.config.BufferBeforeMinutes, rc.config.BufferAfterMinutes)
	blocked, remaining := ix.bookings.CheckCapacity(providerID, rc.service.ID, slot.Start, candidate, rc.config.Capacity)
	if blocked {
		return model.ConflictBooking, 0
	}
	if ix.calendar.Conflicts(providerID, candidate) {
		return model.ConflictCalendar, 0
	}
	if rc.config.Capacity <= 1 {
		remaining = 0
	}
	return "", remaining
}

type providerSlot struct {
	slot       availability.GridSlot
	providerID string
	remaining  int
}

// processDate produces one day of slots before the minimum-notice filter.
func processDate(ix indices, rc *requestContext, date string) model.DayAvailability {
	day := model.DayAvailability{Date: date, Slots: []model.Slot{}}

	weekday, err := availability.Weekday(date)
	if err != nil {
		return day
	}
	service := serviceWindowsFor(ix, rc, date, weekday, true)
	if len(service) == 0 {
		return day
	}

	var found []providerSlot
	for _, p := range rc.providers {
		windows := providerWindowsFor(ix, p.ID, date, weekday, service, true)
		if len(windows) == 0 || ix.calendar.BlocksDate(p.ID, date) {
			continue
		}
		grid := availability.GenerateSlots(windows, rc.config.DurationMinutes, rc.config.SlotIntervalMinutes, date, rc.tenantLoc)
		for _, g := range grid {
			if conflict, remaining := slotConflict(ix, rc, p.ID, g); conflict == "" {
				found = append(found, providerSlot{slot: g, providerID: p.ID, remaining: remaining})
			}
		}
	}

	if rc.anyProvider {
		day.Slots = mergeAcrossProviders(found, rc.config.Capacity > 1)
	} else {
		day.Slots = perProvider(found, rc.config.Capacity > 1)
	}
	day.HasAvailability = len(day.Slots) > 0
	return day
}

// mergeAcrossProviders keeps one slot per (start, end), listing providers in candidate order.
func mergeAcrossProviders(found []providerSlot, group bool) []model.Slot {
	type key struct{ start, end int64 }
	byKey := make(map[key]int)
	out := []model.Slot{}
	for _, f := range found {
		k := key{f.slot.Start.UnixNano(), f.slot.End.UnixNano()}
		i, ok := byKey[k]
		if !ok {
			i = len(out)
			byKey[k] = i
			out = append(out, model.Slot{Start: f.slot.Start, End: f.slot.End})
			if group {
				out[i].RemainingCapacity = new(int)
			}
		}
		out[i].AvailableProviderIDs = append(out[i].AvailableProviderIDs, f.providerID)
		if group {
			*out[i].RemainingCapacity += f.remaining
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func perProvider(found []providerSlot, group bool) []model.Slot {
	out := make([]model.Slot, 0, len(found))
	for _, f := range found {
		s := model.Slot{Start: f.slot.Start, End: f.slot.End, ProviderID: f.providerID}
		if group {
			remaining := f.remaining
			s.RemainingCapacity = &remaining
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
