package grid

import (
	"time"

	"github.com/fachline/backend/services/scheduling-service/internal/model"
)

// Config describes the slot grid for a working day.
type Config struct {
	StartHour   int
	EndHour     int
	StepMinutes int
}

func (c Config) valid() bool {
	return c.StepMinutes > 0 && c.EndHour > c.StartHour && c.StartHour >= 0 && c.EndHour <= 24
}

// SlotsPerDay is the number of grid slots a single day produces.
func (c Config) SlotsPerDay() int {
	if !c.valid() {
		return 0
	}
	return (c.EndHour - c.StartHour) * 60 / c.StepMinutes
}

type Slot struct {
	Date            time.Time
	Start           model.TimeOfDay
	DurationMinutes int
	Available       bool
}

func (s Slot) End() model.TimeOfDay {
	return s.Start.Add(s.DurationMinutes)
}

type CalendarDay struct {
	Date  time.Time
	Slots []Slot
}

// WeekStart returns the Monday of the week containing t, at midnight in t's
// location.
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	// time.Weekday puts Sunday at 0; the dashboard week starts on Monday.
	shift := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -shift)
}

// Generate builds the seven calendar days of the week containing anchor, each
// carrying its grid slots with availability resolved against the given
// appointment snapshot. When workerID is set, a slot is occupied if any
// non-cancelled appointment for that worker overlaps it; when unscoped, only
// an appointment at the slot's exact date and start time occupies it.
//
// Pure function of its inputs: repeated calls with the same snapshot yield the
// same grid. AddDate on midnight dates keeps the seven days contiguous across
// DST and month boundaries.
func Generate(anchor time.Time, cfg Config, existing []model.Appointment, workerID string) []CalendarDay {
	if !cfg.valid() {
		return nil
	}

	weekStart := WeekStart(anchor)
	days := make([]CalendarDay, 0, 7)
	for i := 0; i < 7; i++ {
		date := weekStart.AddDate(0, 0, i)
		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday

		slots := make([]Slot, 0, cfg.SlotsPerDay())
		for start := model.TimeOfDay(cfg.StartHour * 60); start < model.TimeOfDay(cfg.EndHour*60); start = start.Add(cfg.StepMinutes) {
			slot := Slot{
				Date:            date,
				Start:           start,
				DurationMinutes: cfg.StepMinutes,
			}
			slot.Available = !weekend && !occupied(slot, existing, workerID)
			slots = append(slots, slot)
		}
		days = append(days, CalendarDay{Date: date, Slots: slots})
	}
	return days
}

func occupied(slot Slot, existing []model.Appointment, workerID string) bool {
	for _, appt := range existing {
		if appt.Status == model.StatusCancelled {
			continue
		}
		if !appt.SameDay(slot.Date) {
			continue
		}
		if workerID == "" {
			if appt.Start == slot.Start {
				return true
			}
			continue
		}
		if appt.WorkerID != workerID {
			continue
		}
		// Half-open intervals: [a,b) overlaps [c,d) iff a < d && c < b.
		if slot.Start < appt.End() && appt.Start < slot.End() {
			return true
		}
	}
	return false
}
