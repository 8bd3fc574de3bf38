package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/engine"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

// basicAuthTransport adds Basic Auth and a User-Agent to every request.
type basicAuthTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "availability-service/1.0")
	return t.Transport.RoundTrip(req)
}

// CalDAVFeed queries a CalDAV server. ProviderContext.CalendarID is the calendar collection path.
type CalDAVFeed struct {
	client *caldav.Client
	logger *slog.Logger
}

var _ engine.CalendarFeed = (*CalDAVFeed)(nil)

func NewCalDAVFeed(logger *slog.Logger, endpoint, username, password string) (*CalDAVFeed, error) {
	httpClient := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &basicAuthTransport{
			Username:  username,
			Password:  password,
			Transport: http.DefaultTransport,
		},
	}
	client, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return &CalDAVFeed{client: client, logger: logger}, nil
}

func (f *CalDAVFeed) BusyIntervals(ctx context.Context, providers []model.ProviderContext, from, to time.Time) ([]model.CalendarEvent, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{
				Name:  ical.CompEvent,
				Props: []string{ical.PropDateTimeStart, ical.PropDateTimeEnd, ical.PropDuration, ical.PropRecurrenceRule, ical.PropExceptionDates, "TRANSP", "STATUS"},
			}},
		},
		CompFilter: caldav.CompFilter{
			Name:  ical.CompCalendar,
			Comps: []caldav.CompFilter{{Name: ical.CompEvent, Start: from.UTC(), End: to.UTC()}},
		},
	}

	var out []model.CalendarEvent
	for _, p := range withCalendar(providers) {
		objects, err := f.client.QueryCalendar(ctx, p.CalendarID, query)
		if err != nil {
			return nil, fmt.Errorf("caldav calendar %s: %w", p.CalendarID, err)
		}
		for _, obj := range objects {
			if obj.Data == nil {
				continue
			}
			out = append(out, icalBusy(f.logger, p.ID, p.CalendarID, obj.Data, from, to)...)
		}
	}
	return out, nil
}

// icalBusy converts VEVENTs into busy intervals, skipping transparent and cancelled ones.
// DATE-valued starts are all-day events and are read as UTC dates. Recurring events are
// expanded to the occurrences that overlap [from, to).
func icalBusy(logger *slog.Logger, providerID, calendarID string, cal *ical.Calendar, from, to time.Time) []model.CalendarEvent {
	var out []model.CalendarEvent
	for _, ev := range cal.Events() {
		if transp, _ := ev.Props.Text("TRANSP"); transp == "TRANSPARENT" {
			continue
		}
		if status, _ := ev.Props.Text("STATUS"); status == "CANCELLED" {
			continue
		}
		startProp := ev.Props.Get(ical.PropDateTimeStart)
		if startProp == nil {
			continue
		}
		allDay := startProp.ValueType() == ical.ValueDate

		start, err := ev.DateTimeStart(time.UTC)
		if err != nil {
			logger.Warn("skipping caldav event with invalid start", "calendar", calendarID, "err", err)
			continue
		}
		end, err := ev.DateTimeEnd(time.UTC)
		if err != nil || end.Before(start) {
			end = start
		}
		dur := end.Sub(start)

		busy := func(s time.Time) model.CalendarEvent {
			return model.CalendarEvent{
				ProviderID: providerID,
				StartTime:  s,
				EndTime:    s.Add(dur),
				IsAllDay:   allDay,
				Source:     "caldav:" + calendarID,
			}
		}

		set, err := ev.RecurrenceSet(time.UTC)
		if err != nil {
			logger.Warn("caldav event recurrence unreadable; using first occurrence", "calendar", calendarID, "err", err)
		}
		if set == nil {
			out = append(out, busy(start))
			continue
		}
		// Occurrences starting up to dur before from still overlap the range.
		for _, occ := range set.Between(from.Add(-dur), to, true) {
			if !occ.Before(to) || !occ.Add(dur).After(from) {
				continue
			}
			out = append(out, busy(occ))
		}
	}
	return out
}
