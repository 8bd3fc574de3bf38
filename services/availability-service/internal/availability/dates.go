package availability

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// ParseDate parses a civil date. The result is midnight UTC and only serves date arithmetic.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return d, nil
}

func AddDays(date string, n int) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, n).Format(DateLayout), nil
}

// DatesInRange lists every date from start to end inclusive. An inverted range yields nothing.
func DatesInRange(start, end string) ([]string, error) {
	from, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return nil, err
	}
	var out []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out, nil
}

// DaysBetween returns end minus start in whole days.
func DaysBetween(start, end string) (int, error) {
	from, err := ParseDate(start)
	if err != nil {
		return 0, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return 0, err
	}
	return int(to.Sub(from).Hours() / 24), nil
}

// Weekday returns the day of week of a civil date with Sunday=0.
func Weekday(date string) (int, error) {
	d, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return int(d.Weekday()), nil
}

func DateIn(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// MinuteOfDay returns the wall-clock minutes since midnight of t in loc.
func MinuteOfDay(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

// StartOfDay returns local midnight of date in loc.
func StartOfDay(date string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc), nil
}

// ResolveInstant turns a date and a minute of day into an absolute instant using the
// zone rules in effect on that date. It reports false for wall-clock times skipped by a
// daylight-saving transition. 24:00 resolves to the next local midnight.
func ResolveInstant(date string, minutes int, loc *time.Location) (time.Time, bool) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, false
	}
	if minutes == MinutesPerDay {
		next := d.AddDate(0, 0, 1)
		return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, loc), true
	}
	h, m := minutes/60, minutes%60
	t := time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, loc)
	if t.Day() != d.Day() || t.Hour() != h || t.Minute() != m {
		return time.Time{}, false
	}
	return t, true
}
