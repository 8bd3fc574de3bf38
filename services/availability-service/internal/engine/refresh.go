package engine

import (
	"time"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

// RefreshCached brings a previously computed response up to the current clock. Slots that
// have since fallen inside the minimum notice period are dropped and totals recomputed.
//
// It returns false when the response cannot be reused: it carries no generation time, or
// the clamped date range computed now differs from the one it was built with, which happens
// when local midnight passes between the two.
func (e *Engine) RefreshCached(resp *model.AvailabilityResponse) bool {
	if resp == nil || resp.GeneratedAt.IsZero() {
		return false
	}
	cfg := resp.ServiceConfig
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return false
	}
	now := e.clock.Now()
	if now.Before(resp.GeneratedAt) {
		return false
	}

	thenFrom, thenTo, thenOK := clampRange(resp.DateRange.Start, resp.DateRange.End, resp.GeneratedAt, loc, cfg.MinNoticeHours, cfg.MaxFutureDays)
	nowFrom, nowTo, nowOK := clampRange(resp.DateRange.Start, resp.DateRange.End, now, loc, cfg.MinNoticeHours, cfg.MaxFutureDays)
	if thenOK != nowOK || thenFrom != nowFrom || thenTo != nowTo {
		return false
	}

	cutoff := now.Add(time.Duration(cfg.MinNoticeHours) * time.Hour)
	total := 0
	for i := range resp.Days {
		day := &resp.Days[i]
		kept := day.Slots[:0]
		for _, s := range day.Slots {
			start, err := time.Parse(time.RFC3339, s.StartTime)
			if err != nil || start.Before(cutoff) {
				continue
			}
			kept = append(kept, s)
		}
		day.Slots = kept
		day.HasAvailability = len(kept) > 0
		total += len(kept)
	}
	resp.TotalSlots = total
	return true
}
