package conflict

import (
	"sort"

	"github.com/fachline/backend/services/scheduling-service/internal/grid"
	"github.com/fachline/backend/services/scheduling-service/internal/model"
)

// Scorer ranks conflict-free candidate slots. The ranking is a pluggable
// strategy; the only hard guarantee of Suggest is that every returned slot
// has zero detected conflicts.
type Scorer interface {
	Score(s grid.Slot) float64
}

// ChronologicalScorer prefers earlier slots. It is the default strategy.
type ChronologicalScorer struct{}

func (ChronologicalScorer) Score(s grid.Slot) float64 {
	return -float64(s.Date.Unix()) - float64(s.Start)
}

// Suggest scans every slot of the visible range and returns up to limit slots
// where a booking of the given duration would raise no conflicts, best-scored
// first. Slots already unavailable in the grid (weekends, occupied) are never
// suggested.
func Suggest(days []grid.CalendarDay, worker model.Worker, durationMinutes int, existing []model.Appointment, scorer Scorer, limit int) []grid.Slot {
	if scorer == nil {
		scorer = ChronologicalScorer{}
	}

	var out []grid.Slot
	for _, day := range days {
		for _, slot := range day.Slots {
			if !slot.Available {
				continue
			}
			req := Request{Date: slot.Date, Start: slot.Start, DurationMinutes: durationMinutes}
			if len(Detect(req, worker, existing)) > 0 {
				continue
			}
			candidate := slot
			candidate.DurationMinutes = durationMinutes
			out = append(out, candidate)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return scorer.Score(out[i]) > scorer.Score(out[j])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
