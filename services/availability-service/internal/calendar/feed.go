// Package calendar adapts external calendars into busy intervals for the availability engine.
package calendar

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/engine"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

// StaticFeed serves a fixed list of events, filtered to the requested providers and range.
type StaticFeed struct {
	Events []model.CalendarEvent
}

var _ engine.CalendarFeed = StaticFeed{}

func (f StaticFeed) BusyIntervals(_ context.Context, providers []model.ProviderContext, from, to time.Time) ([]model.CalendarEvent, error) {
	ids := make([]string, 0, len(providers))
	for _, p := range providers {
		ids = append(ids, p.ID)
	}
	var out []model.CalendarEvent
	for _, ev := range f.Events {
		if !slices.Contains(ids, ev.ProviderID) {
			continue
		}
		end := ev.EndTime
		if !end.After(ev.StartTime) {
			end = ev.StartTime.Add(time.Nanosecond)
		}
		if ev.StartTime.Before(to) && from.Before(end) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// MultiFeed merges several feeds. Events from healthy feeds are returned next to the joined errors.
type MultiFeed []engine.CalendarFeed

func (m MultiFeed) BusyIntervals(ctx context.Context, providers []model.ProviderContext, from, to time.Time) ([]model.CalendarEvent, error) {
	var (
		out  []model.CalendarEvent
		errs []error
	)
	for _, f := range m {
		events, err := f.BusyIntervals(ctx, providers, from, to)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, events...)
	}
	return out, errors.Join(errs...)
}

// withCalendar keeps providers that have an external calendar configured.
func withCalendar(providers []model.ProviderContext) []model.ProviderContext {
	var out []model.ProviderContext
	for _, p := range providers {
		if p.CalendarID != "" {
			out = append(out, p)
		}
	}
	return out
}
