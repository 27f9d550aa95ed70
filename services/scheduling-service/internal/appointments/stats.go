package appointments

import (
	"time"

	"github.com/fachline/backend/services/scheduling-service/internal/grid"
	"github.com/fachline/backend/services/scheduling-service/internal/model"
)

type Stats struct {
	Total         int                  `json:"total"`
	ByStatus      map[model.Status]int `json:"by_status"`
	Today         int                  `json:"today"`
	ThisWeek      int                  `json:"this_week"`
	ThisMonth     int                  `json:"this_month"`
	ByServiceType map[string]int       `json:"by_service_type"`
}

// Stats recomputes dashboard statistics from the current snapshot on every
// call; nothing is cached. Day buckets are relative to now's calendar date,
// the week bucket to the Monday-start week containing now.
func (s *Store) Stats(now time.Time) Stats {
	appts := s.List()

	stats := Stats{
		ByStatus:      map[model.Status]int{},
		ByServiceType: map[string]int{},
	}

	weekStart := grid.WeekStart(now)
	weekEnd := weekStart.AddDate(0, 0, 7)
	y, m, _ := now.Date()

	for _, a := range appts {
		stats.Total++
		stats.ByStatus[a.Status]++
		if a.ServiceType != "" {
			stats.ByServiceType[a.ServiceType]++
		}

		if a.SameDay(now) {
			stats.Today++
		}
		day := a.Date
		if !day.Before(weekStart) && day.Before(weekEnd) {
			stats.ThisWeek++
		}
		ay, am, _ := day.Date()
		if ay == y && am == m {
			stats.ThisMonth++
		}
	}
	return stats
}
