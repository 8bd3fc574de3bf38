package layers

import (
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

// WeeklyIndex maps owner id -> weekday -> combined windows.
type WeeklyIndex struct {
	windows map[string]map[int][]model.Window
	owners  map[string]struct{}
}

// IndexSchedules drops unavailable and unparsable rows but remembers every owner that has rows.
func IndexSchedules(rows []model.ScheduleSlot) WeeklyIndex {
	ix := WeeklyIndex{
		windows: make(map[string]map[int][]model.Window),
		owners:  make(map[string]struct{}),
	}
	for _, row := range rows {
		ix.owners[row.OwnerID] = struct{}{}
		if !row.IsAvailable || row.DayOfWeek < 0 || row.DayOfWeek > 6 {
			continue
		}
		win, err := availability.ParseWindow(row.StartTime, row.EndTime)
		if err != nil {
			continue
		}
		byDay, ok := ix.windows[row.OwnerID]
		if !ok {
			byDay = make(map[int][]model.Window)
			ix.windows[row.OwnerID] = byDay
		}
		byDay[row.DayOfWeek] = append(byDay[row.DayOfWeek], win)
	}
	for _, byDay := range ix.windows {
		for day, ws := range byDay {
			byDay[day] = availability.CombineWindows(ws)
		}
	}
	return ix
}

func (ix WeeklyIndex) Windows(ownerID string, weekday int) []model.Window {
	return ix.windows[ownerID][weekday]
}

// Has reports whether the owner has any schedule rows at all.
func (ix WeeklyIndex) Has(ownerID string) bool {
	_, ok := ix.owners[ownerID]
	return ok
}

// ServiceWindows is the L1 layer. No rows for the weekday means the service is not offered.
func ServiceWindows(ix WeeklyIndex, serviceID string, weekday int) []model.Window {
	return ix.Windows(serviceID, weekday)
}

// ProviderSchedule is the L2 layer. A provider without any rows defers to the service
// hours; a provider with rows but none for the weekday is off that day.
func ProviderSchedule(ix WeeklyIndex, providerID string, weekday int) Result {
	if !ix.Has(providerID) {
		return DeferResult()
	}
	return ReplaceResult(ix.Windows(providerID, weekday))
}

// ProviderWindows intersects the provider's working hours with the service windows.
func ProviderWindows(ix WeeklyIndex, providerID string, weekday int, serviceWindows []model.Window) []model.Window {
	r := ProviderSchedule(ix, providerID, weekday)
	switch r.Kind() {
	case Defer:
		return serviceWindows
	case Blocked:
		return nil
	default:
		return availability.IntersectWindows(serviceWindows, r.Windows())
	}
}
