package layers

import (
	"time"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

// CalendarIndex is the L5 layer: external busy time per provider.
type CalendarIndex struct {
	busy   map[string][]availability.Interval
	allDay map[string]map[string]struct{}
}

// IndexCalendarEvents splits timed busy intervals from all-day events. All-day events are
// floating dates: every UTC calendar date in [start, end) is blocked, or the start date alone
// when the event has no positive length.
func IndexCalendarEvents(events []model.CalendarEvent) CalendarIndex {
	ix := CalendarIndex{
		busy:   make(map[string][]availability.Interval),
		allDay: make(map[string]map[string]struct{}),
	}
	for _, ev := range events {
		if ev.IsAllDay {
			dates, ok := ix.allDay[ev.ProviderID]
			if !ok {
				dates = make(map[string]struct{})
				ix.allDay[ev.ProviderID] = dates
			}
			for _, d := range allDayDates(ev.StartTime, ev.EndTime) {
				dates[d] = struct{}{}
			}
			continue
		}
		if !ev.EndTime.After(ev.StartTime) {
			continue
		}
		ix.busy[ev.ProviderID] = append(ix.busy[ev.ProviderID], availability.Interval{Start: ev.StartTime, End: ev.EndTime})
	}
	return ix
}

func allDayDates(start, end time.Time) []string {
	from := time.Date(start.UTC().Year(), start.UTC().Month(), start.UTC().Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(end.UTC().Year(), end.UTC().Month(), end.UTC().Day(), 0, 0, 0, 0, time.UTC)
	if !to.After(from) {
		return []string{from.Format(availability.DateLayout)}
	}
	var out []string
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(availability.DateLayout))
	}
	return out
}

// BlocksDate reports an all-day event on date for the provider.
func (ix CalendarIndex) BlocksDate(providerID, date string) bool {
	_, ok := ix.allDay[providerID][date]
	return ok
}

func (ix CalendarIndex) Conflicts(providerID string, candidate availability.Interval) bool {
	return availability.OverlapsAny(candidate, ix.busy[providerID])
}
