package engine

import (
	"time"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/availability"
)

// clampRange narrows [startDate, endDate] to what can be booked at now. Minimum notice moves
// the start to the tenant-local date of now+notice; maxFutureDays (0 = unlimited) caps the end
// at today+maxFutureDays. ok is false when nothing is left.
func clampRange(startDate, endDate string, now time.Time, loc *time.Location, minNoticeHours, maxFutureDays int) (string, string, bool) {
	from, to := startDate, endDate

	earliest := availability.DateIn(now.Add(time.Duration(minNoticeHours)*time.Hour), loc)
	if later(earliest, from) {
		from = earliest
	}
	if maxFutureDays > 0 {
		latest, err := availability.AddDays(availability.DateIn(now, loc), maxFutureDays)
		if err == nil && later(to, latest) {
			to = latest
		}
	}
	return from, to, !later(from, to)
}

// later reports a > b for valid civil dates.
func later(a, b string) bool {
	n, err := availability.DaysBetween(b, a)
	return err == nil && n > 0
}
