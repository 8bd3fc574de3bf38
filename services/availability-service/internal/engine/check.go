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

// CheckSlot answers whether one provider can still take the grid slot starting at
// req.StartTime. Storage is queried live; any fetch failure is returned rather than degraded.
func (e *Engine) CheckSlot(ctx context.Context, req model.SlotCheckRequest) (model.SlotCheckResult, error) {
	ctx, span := e.tracer.Start(ctx, "availability.check_slot")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant.id", req.TenantID),
		attribute.String("service.id", req.ServiceID),
		attribute.String("provider.id", req.ProviderID),
	)

	if strings.TrimSpace(req.ProviderID) == "" {
		return model.SlotCheckResult{}, fmt.Errorf("%w: provider is required", ErrInvalidRequest)
	}
	if req.StartTime.IsZero() {
		return model.SlotCheckResult{}, fmt.Errorf("%w: start time is required", ErrInvalidRequest)
	}
	rc, err := e.resolve(ctx, req.TenantID, req.ServiceID, req.ProviderID, req.Timezone)
	if err != nil {
		return model.SlotCheckResult{}, err
	}

	start := req.StartTime
	end := start.Add(time.Duration(rc.config.DurationMinutes) * time.Minute)
	result := model.SlotCheckResult{
		StartTime: start.In(rc.outLoc).Format(time.RFC3339),
		EndTime:   end.In(rc.outLoc).Format(time.RFC3339),
	}
	deny := func(ct model.ConflictType, reason string) (model.SlotCheckResult, error) {
		result.ConflictType = ct
		result.Reason = reason
		span.SetAttributes(attribute.String("availability.conflict", string(ct)))
		return result, nil
	}

	now := e.clock.Now()
	if ct, reason := horizonConflict(rc, now, start); ct != "" {
		return deny(ct, reason)
	}

	date := availability.DateIn(start, rc.tenantLoc)
	data, err := e.fetchLayers(ctx, rc, date, date, false)
	if err != nil {
		return model.SlotCheckResult{}, err
	}
	ix := data.index()
	weekday, _ := availability.Weekday(date)
	provider := rc.providers[0]

	onGrid := func(windows []model.Window) bool {
		for _, g := range availability.GenerateSlots(windows, rc.config.DurationMinutes, rc.config.SlotIntervalMinutes, date, rc.tenantLoc) {
			if g.Start.Equal(start) {
				return true
			}
		}
		return false
	}
	service := serviceWindowsFor(ix, rc, date, weekday, true)
	windows := providerWindowsFor(ix, provider.ID, date, weekday, service, true)
	if !onGrid(windows) {
		baseService := serviceWindowsFor(ix, rc, date, weekday, false)
		base := providerWindowsFor(ix, provider.ID, date, weekday, baseService, false)
		if onGrid(base) {
			return deny(model.ConflictOverride, "slot is closed by a schedule override")
		}
		return deny(model.ConflictSchedule, "slot is outside the working schedule")
	}
	if ix.calendar.BlocksDate(provider.ID, date) {
		return deny(model.ConflictCalendar, "provider is busy all day")
	}
	switch conflict, _ := slotConflict(ix, rc, provider.ID, availability.GridSlot{Start: start, End: end}); conflict {
	case model.ConflictBooking:
		return deny(conflict, "slot overlaps an existing booking")
	case model.ConflictCalendar:
		return deny(conflict, "slot overlaps a calendar event")
	}

	result.Available = true
	return result, nil
}

// ProvidersForSlot lists the linked providers free for exactly [start, end).
func (e *Engine) ProvidersForSlot(ctx context.Context, tenantID, serviceID string, start, end time.Time) ([]model.ProviderContext, error) {
	ctx, span := e.tracer.Start(ctx, "availability.providers_for_slot")
	defer span.End()

	rc, err := e.resolve(ctx, tenantID, serviceID, "", "")
	if err != nil {
		return nil, err
	}
	free, _, err := e.freeProviders(ctx, rc, start, end)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("availability.free_providers", len(free)))
	return free, nil
}

// AssignProvider picks a provider for [start, end) with the tenant's assignment strategy.
// It returns ErrSlotUnavailable when nobody is free.
func (e *Engine) AssignProvider(ctx context.Context, tenantID, serviceID string, start, end time.Time) (model.ProviderContext, error) {
	ctx, span := e.tracer.Start(ctx, "availability.assign_provider")
	defer span.End()

	rc, err := e.resolve(ctx, tenantID, serviceID, "", "")
	if err != nil {
		return model.ProviderContext{}, err
	}
	free, counts, err := e.freeProviders(ctx, rc, start, end)
	if err != nil {
		return model.ProviderContext{}, err
	}
	if len(free) == 0 {
		return model.ProviderContext{}, ErrSlotUnavailable
	}

	ids := make([]string, 0, len(free))
	for _, p := range free {
		ids = append(ids, p.ID)
	}
	id, err := SelectProvider(rc.config.AssignmentStrategy, ids, slotIndex(start.Unix(), rc.config.SlotIntervalMinutes), counts, e.intn)
	if err != nil {
		return model.ProviderContext{}, fmt.Errorf("assign provider: %w", err)
	}
	for _, p := range free {
		if p.ID == id {
			span.SetAttributes(attribute.String("provider.id", id))
			return p, nil
		}
	}
	return model.ProviderContext{}, fmt.Errorf("assign provider: selected %s not in candidates: %w", id, ErrNoCandidates)
}

func (e *Engine) freeProviders(ctx context.Context, rc *requestContext, start, end time.Time) ([]model.ProviderContext, map[string]int, error) {
	if start.IsZero() || !end.After(start) {
		return nil, nil, fmt.Errorf("%w: end must be after start", ErrInvalidRequest)
	}
	free := []model.ProviderContext{}
	if ct, _ := horizonConflict(rc, e.clock.Now(), start); ct != "" || len(rc.providers) == 0 {
		return free, nil, nil
	}

	date := availability.DateIn(start, rc.tenantLoc)
	data, err := e.fetchLayers(ctx, rc, date, date, false)
	if err != nil {
		return nil, nil, err
	}
	ix := data.index()
	weekday, _ := availability.Weekday(date)

	// A window that runs past local midnight cannot fit a single day's schedule.
	startMin := availability.MinuteOfDay(start, rc.tenantLoc)
	endMin := startMin + int(end.Sub(start)/time.Minute)
	if availability.DateIn(end.Add(-time.Nanosecond), rc.tenantLoc) != date {
		return free, nil, nil
	}

	service := serviceWindowsFor(ix, rc, date, weekday, true)
	for _, p := range rc.providers {
		windows := providerWindowsFor(ix, p.ID, date, weekday, service, true)
		if !availability.ContainsRange(windows, startMin, endMin) || ix.calendar.BlocksDate(p.ID, date) {
			continue
		}
		if conflict, _ := slotConflict(ix, rc, p.ID, availability.GridSlot{Start: start, End: end}); conflict != "" {
			continue
		}
		free = append(free, p)
	}
	return free, ix.bookings.Counts(rc.providerIDs()), nil
}

// horizonConflict applies minimum notice and the booking horizon to a single start instant.
func horizonConflict(rc *requestContext, now, start time.Time) (model.ConflictType, string) {
	if start.Before(now.Add(time.Duration(rc.config.MinNoticeHours) * time.Hour)) {
		return model.ConflictNotice, "slot starts within the minimum notice period"
	}
	if rc.config.MaxFutureDays > 0 {
		latest, err := availability.AddDays(availability.DateIn(now, rc.tenantLoc), rc.config.MaxFutureDays)
		if err == nil && later(availability.DateIn(start, rc.tenantLoc), latest) {
			return model.ConflictHorizon, "slot is beyond the booking horizon"
		}
	}
	return "", ""
}
