package model

import (
	"fmt"
	"time"
)

// TimeOfDay is minutes since midnight. All interval arithmetic in the
// scheduling core happens on this type; conversion to wall-clock time.Time
// happens only at the persistence and HTTP boundaries.
type TimeOfDay int

const MinutesPerDay = 24 * 60

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Minute
}

// At anchors the time of day on a calendar date. The date's own clock
// component is discarded.
func (t TimeOfDay) At(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, date.Location())
}
