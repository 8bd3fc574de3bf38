package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
)

// MaxRangeDays bounds a single availability request.
const MaxRangeDays = 92

// GetAvailability computes bookable slots for a service over a date range.
func (e *Engine) GetAvailability(ctx context.Context, req model.AvailabilityRequest) (*model.AvailabilityResponse, error) {
	ctx, span := e.tracer.Start(ctx, "availability.get")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant.id", req.TenantID),
		attribute.String("service.id", req.ServiceID),
		attribute.Bool("availability.any_provider", strings.TrimSpace(req.ProviderID) == ""),
	)

	if err := validateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	rc, err := e.resolve(ctx, req.TenantID, req.ServiceID, req.ProviderID, req.Timezone)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	resp := &model.AvailabilityResponse{
		ServiceID:       rc.service.ID,
		TenantID:        rc.tenant.ID,
		DateRange:       model.DateRange{Start: req.StartDate, End: req.EndDate},
		Days:            []model.DayAvailability{},
		AnyProviderMode: rc.anyProvider,
		ServiceConfig:   rc.config,
		GeneratedAt:     now,
	}

	from, to, ok := clampRange(req.StartDate, req.EndDate, now, rc.tenantLoc, rc.config.MinNoticeHours, rc.config.MaxFutureDays)
	if !ok {
		e.logger.DebugContext(ctx, "availability range empty after clamp",
			"tenant_id", rc.tenant.ID,
			"service_id", rc.service.ID,
			"start_date", req.StartDate,
			"end_date", req.EndDate,
		)
		return resp, nil
	}

	data, err := e.fetchLayers(ctx, rc, from, to, true)
	if err != nil {
		return nil, err
	}
	resp.DegradedLayers = data.degraded

	dates, err := availability.DatesInRange(from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if rc.failClosed() && data.subtractiveDegraded() {
		e.logger.WarnContext(ctx, "layer degraded under fail-closed policy; reporting no availability",
			"tenant_id", rc.tenant.ID,
			"service_id", rc.service.ID,
			"degraded", data.degraded,
		)
		for _, d := range dates {
			resp.Days = append(resp.Days, model.DayAvailability{Date: d, Slots: []model.Slot{}})
		}
		return resp, nil
	}

	ix := data.index()
	for _, d := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp.Days = append(resp.Days, processDate(ix, rc, d))
	}

	counts := ix.bookings.Counts(rc.providerIDs())
	if err := e.finalize(resp, rc, now, counts); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("availability.total_slots", resp.TotalSlots))
	return resp, nil
}

func validateRange(startDate, endDate string) error {
	if _, err := availability.ParseDate(startDate); err != nil {
		return fmt.Errorf("%w: start_date: %v", ErrInvalidRequest, err)
	}
	if _, err := availability.ParseDate(endDate); err != nil {
		return fmt.Errorf("%w: end_date: %v", ErrInvalidRequest, err)
	}
	n, _ := availability.DaysBetween(startDate, endDate)
	if n >= MaxRangeDays {
		return fmt.Errorf("%w: range exceeds %d days", ErrInvalidRequest, MaxRangeDays)
	}
	return nil
}

// finalize drops slots inside the minimum notice period, assigns providers in any-provider
// mode, renders instants in the output timezone and recomputes flags and totals.
//
// The provider set on an any-provider slot is a suggestion for display only. Nothing is
// held for it; AssignProvider re-runs the strategy against live data at booking time and
// its answer is the one to book with.
func (e *Engine) finalize(resp *model.AvailabilityResponse, rc *requestContext, now time.Time, counts map[string]int) error {
	cutoff := now.Add(time.Duration(rc.config.MinNoticeHours) * time.Hour)
	total := 0
	for i := range resp.Days {
		day := &resp.Days[i]
		kept := day.Slots[:0]
		for _, s := range day.Slots {
			if s.Start.Before(cutoff) {
				continue
			}
			if rc.anyProvider {
				id, err := SelectProvider(rc.config.AssignmentStrategy, s.AvailableProviderIDs, slotIndex(s.Start.Unix(), rc.config.SlotIntervalMinutes), counts, e.intn)
				if err != nil {
					return fmt.Errorf("assign provider: %w", err)
				}
				s.ProviderID = id
			}
			s.StartTime = s.Start.In(rc.outLoc).Format(time.RFC3339)
			s.EndTime = s.End.In(rc.outLoc).Format(time.RFC3339)
			kept = append(kept, s)
		}
		day.Slots = kept
		day.HasAvailability = len(kept) > 0
		total += len(kept)
	}
	resp.TotalSlots = total
	return nil
}
