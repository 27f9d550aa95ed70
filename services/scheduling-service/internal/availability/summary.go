package availability

import "github.com/fachline/backend/services/scheduling-service/internal/grid"

// Level is the coarse per-day occupancy bucket shown on the calendar. It is a
// display tier, not a booking decision.
type Level string

const (
	LevelFull        Level = "full"
	LevelPartial     Level = "partial"
	LevelBusy        Level = "busy"
	LevelUnavailable Level = "unavailable"
)

// Summarize buckets a day by its ratio of available slots. Thresholds are
// exclusive: exactly 0.8 is partial, exactly 0.5 is busy.
func Summarize(day grid.CalendarDay) Level {
	total := len(day.Slots)
	if total == 0 {
		return LevelUnavailable
	}
	available := 0
	for _, s := range day.Slots {
		if s.Available {
			available++
		}
	}

	ratio := float64(available) / float64(total)
	switch {
	case ratio > 0.8:
		return LevelFull
	case ratio > 0.5:
		return LevelPartial
	case ratio > 0:
		return LevelBusy
	default:
		return LevelUnavailable
	}
}
