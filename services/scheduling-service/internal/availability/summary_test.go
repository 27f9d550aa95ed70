package availability

import (
	"testing"
	"time"

	"github.com/fachline/backend/services/scheduling-service/internal/grid"
)

func dayWith(total, available int) grid.CalendarDay {
	day := grid.CalendarDay{Date: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)}
	for i := 0; i < total; i++ {
		day.Slots = append(day.Slots, grid.Slot{Available: i < available})
	}
	return day
}

func TestSummarize(t *testing.T) {
	cases := []struct {
		total, available int
		want             Level
	}{
		{20, 17, LevelFull},    // 0.85
		{20, 16, LevelPartial}, // exactly 0.8 is not full
		{20, 12, LevelPartial}, // 0.6
		{20, 10, LevelBusy},    // exactly 0.5 is not partial
		{20, 1, LevelBusy},
		{20, 0, LevelUnavailable},
		{0, 0, LevelUnavailable},
	}
	for _, c := range cases {
		if got := Summarize(dayWith(c.total, c.available)); got != c.want {
			t.Fatalf("%d/%d: expected %s, got %s", c.available, c.total, c.want, got)
		}
	}
}
