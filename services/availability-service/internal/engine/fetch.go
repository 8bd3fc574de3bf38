package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/layers"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	layerServiceSchedule  = "service_schedule"
	layerServiceOverride  = "service_override"
	layerProviderSchedule = "provider_schedule"
	layerProviderOverride = "provider_override"
	layerBookings         = "bookings"
	layerCalendar         = "calendar"
)

// layerData is the raw output of one batch fetch.
type layerData struct {
	serviceSchedules  []model.ScheduleSlot
	serviceOverrides  []model.Override
	providerSchedules []model.ScheduleSlot
	providerOverrides []model.Override
	bookings          []model.BookingRecord
	events            []model.CalendarEvent
	degraded          []string
}

// subtractiveDegraded reports a failed layer that can only remove availability.
func (d layerData) subtractiveDegraded() bool {
	for _, l := range d.degraded {
		if l != layerServiceSchedule {
			return true
		}
	}
	return false
}

type indices struct {
	serviceSchedules  layers.WeeklyIndex
	serviceOverrides  layers.OverrideIndex
	providerSchedules layers.WeeklyIndex
	providerOverrides layers.OverrideIndex
	bookings          layers.BookingIndex
	calendar          layers.CalendarIndex
}

func (d layerData) index() indices {
	return indices{
		serviceSchedules:  layers.IndexSchedules(d.serviceSchedules),
		serviceOverrides:  layers.IndexOverrides(d.serviceOverrides),
		providerSchedules: layers.IndexSchedules(d.providerSchedules),
		providerOverrides: layers.IndexOverrides(d.providerOverrides),
		bookings:          layers.IndexBookings(d.bookings),
		calendar:          layers.IndexCalendarEvents(d.events),
	}
}

// fetchLayers issues one query per layer for the whole date range and provider set.
// In lenient mode a failing layer is logged and left empty; otherwise the first error is returned.
func (e *Engine) fetchLayers(ctx context.Context, rc *requestContext, fromDate, toDate string, lenient bool) (layerData, error) {
	ctx, span := e.tracer.Start(ctx, "availability.fetch_layers")
	defer span.End()

	// Bookings and calendar events are widened by a day so buffers crossing midnight are seen.
	rangeStart, err := availability.StartOfDay(fromDate, rc.tenantLoc)
	if err != nil {
		return layerData{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	dayAfter, err := availability.AddDays(toDate, 1)
	if err != nil {
		return layerData{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	rangeEnd, _ := availability.StartOfDay(dayAfter, rc.tenantLoc)
	wideStart := rangeStart.AddDate(0, 0, -1)
	wideEnd := rangeEnd.AddDate(0, 0, 1)

	var (
		data     layerData
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	ids := rc.providerIDs()
	run := func(layer string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, span := e.tracer.Start(ctx, "availability.fetch."+layer)
			defer span.End()
			err := fn(ctx)
			if err == nil {
				return
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
			mu.Lock()
			defer mu.Unlock()
			data.degraded = append(data.degraded, layer)
			if firstErr == nil {
				firstErr = fmt.Errorf("fetch %s: %w", layer, err)
			}
			if lenient {
				e.logger.ErrorContext(ctx, "layer fetch failed; degrading to empty",
					"layer", layer,
					"tenant_id", rc.tenant.ID,
					"service_id", rc.service.ID,
					"err", err,
				)
			}
		}()
	}

	run(layerServiceSchedule, func(ctx context.Context) error {
		rows, err := e.store.ListServiceSchedules(ctx, rc.service.ID)
		data.serviceSchedules = rows
		return err
	})
	run(layerServiceOverride, func(ctx context.Context) error {
		rows, err := e.store.ListServiceOverrides(ctx, rc.service.ID, fromDate, toDate)
		data.serviceOverrides = rows
		return err
	})
	if len(ids) > 0 {
		run(layerProviderSchedule, func(ctx context.Context) error {
			rows, err := e.store.ListProviderSchedules(ctx, ids)
			data.providerSchedules = rows
			return err
		})
		run(layerProviderOverride, func(ctx context.Context) error {
			rows, err := e.store.ListProviderOverrides(ctx, ids, fromDate, toDate)
			data.providerOverrides = rows
			return err
		})
		run(layerBookings, func(ctx context.Context) error {
			rows, err := e.store.ListActiveBookings(ctx, ids, wideStart, wideEnd)
			data.bookings = rows
			return err
		})
		if e.calendar != nil {
			run(layerCalendar, func(ctx context.Context) error {
				rows, err := e.calendar.BusyIntervals(ctx, rc.providers, wideStart, wideEnd)
				data.events = rows
				return err
			})
		}
	}
	wg.Wait()

	if firstErr != nil && !lenient {
		return layerData{}, firstErr
	}
	// Rows returned next to an error are not trusted.
	sort.Strings(data.degraded)
	for _, layer := range data.degraded {
		data.drop(layer)
	}

	span.SetAttributes(
		attribute.Int("availability.providers", len(ids)),
		attribute.Int("availability.bookings", len(data.bookings)),
		attribute.StringSlice("availability.degraded_layers", data.degraded),
	)
	e.logger.DebugContext(ctx, "layers fetched",
		"tenant_id", rc.tenant.ID,
		"service_id", rc.service.ID,
		"from", fromDate,
		"to", toDate,
		"providers", len(ids),
		"service_schedules", len(data.serviceSchedules),
		"provider_schedules", len(data.providerSchedules),
		"bookings", len(data.bookings),
		"calendar_events", len(data.events),
		"window", wideEnd.Sub(wideStart).Round(time.Hour).String(),
	)
	return data, nil
}

func (d *layerData) drop(layer string) {
	switch layer {
	case layerServiceSchedule:
		d.serviceSchedules = nil
	case layerServiceOverride:
		d.serviceOverrides = nil
	case layerProviderSchedule:
		d.providerSchedules = nil
	case layerProviderOverride:
		d.providerOverrides = nil
	case layerBookings:
		d.bookings = nil
	case layerCalendar:
		d.events = nil
	}
}
