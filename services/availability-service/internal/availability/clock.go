package availability

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

const MinutesPerDay = 24 * 60

// ParseClock converts "HH:MM" or "HH:MM:SS" into minutes since midnight.
// "24:00" is accepted as the end of the day.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 2 {
		return 0, fmt.Errorf("invalid clock hour %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock minute %q", s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("invalid clock second %q", s)
		}
	}
	if h < 0 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock time out of range %q", s)
	}
	return h*60 + m, nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseWindow parses a start/end pair, rejecting empty or inverted windows.
func ParseWindow(start, end string) (model.Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return model.Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return model.Window{}, err
	}
	if e <= s {
		return model.Window{}, fmt.Errorf("window end %s not after start %s", end, start)
	}
	return model.Window{Start: s, End: e}, nil
}

func FormatWindow(w model.Window) string {
	return FormatClock(w.Start) + "-" + FormatClock(w.End)
}
