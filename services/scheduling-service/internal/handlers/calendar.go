package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fachline/backend/services/scheduling-service/internal/availability"
	"github.com/fachline/backend/services/scheduling-service/internal/conflict"
	"github.com/fachline/backend/services/scheduling-service/internal/grid"
)

type slotItem struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

type calendarDayItem struct {
	Date    string     `json:"date"`
	Summary string     `json:"summary"`
	Slots   []slotItem `json:"slots"`
}

type calendarResponse struct {
	WorkerID string            `json:"worker_id"`
	WeekOf   string            `json:"week_of"`
	Days     []calendarDayItem `json:"days"`
}

type suggestionItem struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type workerItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WorkStart   string `json:"work_start"`
	WorkEnd     string `json:"work_end"`
	IsAvailable bool   `json:"is_available"`
}

// Calendar renders the Monday-to-Sunday slot grid for one worker, with a
// per-day availability summary for the week overview strip.
func (h *SchedulingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	workerID := strings.TrimSpace(r.URL.Query().Get("worker_id"))
	if workerID == "" {
		http.Error(w, "worker_id required", http.StatusBadRequest)
		return
	}

	anchor := h.now().UTC()
	if raw := strings.TrimSpace(r.URL.Query().Get("week_of")); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			http.Error(w, "invalid week_of", http.StatusBadRequest)
			return
		}
		anchor = parsed
	}

	ctx := r.Context()
	if _, ok := h.mustWorker(ctx, w, workerID); !ok {
		return
	}
	if !h.refresh(ctx, w) {
		return
	}

	days := grid.Generate(anchor, h.gridCfg, h.store.List(), workerID)
	if days == nil {
		http.Error(w, "invalid grid configuration", http.StatusInternalServerError)
		return
	}

	weekStart := grid.WeekStart(anchor)
	summaries, cached := h.avail.Get(ctx, workerID, weekStart)
	if !cached || len(summaries) != len(days) {
		summaries = make([]availability.Level, len(days))
		for i, day := range days {
			summaries[i] = availability.Summarize(day)
		}
		h.avail.Set(ctx, workerID, weekStart, summaries)
	}

	resp := calendarResponse{
		WorkerID: workerID,
		WeekOf:   weekStart.Format(dateLayout),
		Days:     make([]calendarDayItem, 0, len(days)),
	}
	for i, day := range days {
		item := calendarDayItem{
			Date:    day.Date.Format(dateLayout),
			Summary: string(summaries[i]),
			Slots:   make([]slotItem, 0, len(day.Slots)),
		}
		for _, s := range day.Slots {
			item.Slots = append(item.Slots, slotItem{
				Start:     s.Start.String(),
				End:       s.End().String(),
				Available: s.Available,
			})
		}
		resp.Days = append(resp.Days, item)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Suggestions lists conflict-free slots for the requested duration, best first.
func (h *SchedulingHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	workerID := strings.TrimSpace(r.URL.Query().Get("worker_id"))
	if workerID == "" {
		http.Error(w, "worker_id required", http.StatusBadRequest)
		return
	}

	duration := h.gridCfg.StepMinutes
	if raw := strings.TrimSpace(r.URL.Query().Get("duration_minutes")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid duration_minutes", http.StatusBadRequest)
			return
		}
		duration = n
	}

	limit := 5
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	anchor := h.now().UTC()
	if raw := strings.TrimSpace(r.URL.Query().Get("week_of")); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			http.Error(w, "invalid week_of", http.StatusBadRequest)
			return
		}
		anchor = parsed
	}

	ctx := r.Context()
	worker, ok := h.mustWorker(ctx, w, workerID)
	if !ok {
		return
	}
	if !h.refresh(ctx, w) {
		return
	}

	existing := h.store.List()
	days := grid.Generate(anchor, h.gridCfg, existing, workerID)
	slots := conflict.Suggest(days, worker, duration, existing, conflict.ChronologicalScorer{}, limit)

	items := make([]suggestionItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, suggestionItem{
			Date:  s.Date.Format(dateLayout),
			Start: s.Start.String(),
			End:   s.End().String(),
		})
	}
	h.writeJSON(w, http.StatusOK, items)
}

// Workers lists the worker directory for the dashboard's worker picker.
func (h *SchedulingHandler) Workers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	workers, err := h.workers.List(r.Context())
	if err != nil {
		h.logger.Error("worker list failed", "err", err)
		http.Error(w, "failed to list workers", http.StatusInternalServerError)
		return
	}

	items := make([]workerItem, 0, len(workers))
	for _, wk := range workers {
		items = append(items, workerItem{
			ID:          wk.ID,
			Name:        wk.Name,
			WorkStart:   wk.WorkingHours.Start.String(),
			WorkEnd:     wk.WorkingHours.End.String(),
			IsAvailable: wk.IsAvailable,
		})
	}
	h.writeJSON(w, http.StatusOK, items)
}
