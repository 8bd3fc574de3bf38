package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/engine"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

// GoogleFeed reads busy time from Google Calendar. ProviderContext.CalendarID is the Google calendar id.
type GoogleFeed struct {
	service *gcal.Service
	logger  *slog.Logger
}

var _ engine.CalendarFeed = (*GoogleFeed)(nil)

// NewGoogleFeed builds a read-only calendar client. Token refresh is handled by the
// oauth2 token source behind the HTTP client supplied in opts.
func NewGoogleFeed(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*GoogleFeed, error) {
	service, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &GoogleFeed{service: service, logger: logger}, nil
}

// GoogleCredentialsOption loads a service account or authorized user JSON file.
func GoogleCredentialsOption(ctx context.Context, path string) (option.ClientOption, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read google credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, b, gcal.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse google credentials: %w", err)
	}
	return option.WithTokenSource(creds.TokenSource), nil
}

func (f *GoogleFeed) BusyIntervals(ctx context.Context, providers []model.ProviderContext, from, to time.Time) ([]model.CalendarEvent, error) {
	var out []model.CalendarEvent
	for _, p := range withCalendar(providers) {
		err := f.service.Events.List(p.CalendarID).
			ShowDeleted(false).
			SingleEvents(true).
			TimeMin(from.UTC().Format(time.RFC3339)).
			TimeMax(to.UTC().Format(time.RFC3339)).
			Pages(ctx, func(page *gcal.Events) error {
				out = append(out, googleBusy(p.ID, p.CalendarID, page.Items)...)
				return nil
			})
		if err != nil {
			return nil, fmt.Errorf("google calendar %s: %w", p.CalendarID, err)
		}
	}
	f.logger.DebugContext(ctx, "google calendar busy time fetched", "providers", len(providers), "events", len(out))
	return out, nil
}

// googleBusy keeps opaque, non-cancelled events. All-day events carry a Date instead of a DateTime.
func googleBusy(providerID, calendarID string, items []*gcal.Event) []model.CalendarEvent {
	var out []model.CalendarEvent
	for _, item := range items {
		if item == nil || item.Start == nil || item.End == nil {
			continue
		}
		if item.Status == "cancelled" || item.Transparency == "transparent" {
			continue
		}
		ev := model.CalendarEvent{ProviderID: providerID, Source: "google:" + calendarID}
		if item.Start.Date != "" {
			start, err := time.Parse(time.DateOnly, item.Start.Date)
			if err != nil {
				continue
			}
			end, err := time.Parse(time.DateOnly, item.End.Date)
			if err != nil {
				end = start.AddDate(0, 0, 1)
			}
			ev.IsAllDay, ev.StartTime, ev.EndTime = true, start, end
		} else {
			start, err := time.Parse(time.RFC3339, item.Start.DateTime)
			if err != nil {
				continue
			}
			end, err := time.Parse(time.RFC3339, item.End.DateTime)
			if err != nil {
				continue
			}
			ev.StartTime, ev.EndTime = start, end
		}
		out = append(out, ev)
	}
	return out
}
