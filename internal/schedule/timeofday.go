package schedule

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time without a date, stored as seconds since
// midnight. Availability windows use it for their HH:MM:SS bounds.
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM:SS" or "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m, sec int

	switch n, _ := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); n {
	case 2, 3:
	default:
		return 0, fmt.Errorf("invalid time of day %q, want HH:MM:SS", s)
	}

	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}

	return TimeOfDay(h*3600 + m*60 + sec), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(t)/3600, int(t)/60%60, int(t)%60)
}

func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t < other
}

// On places the clock time onto the calendar day of the given date,
// in that date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(t)/3600, int(t)/60%60, int(t)%60, 0, date.Location())
}
