// Package handlers exposes the scheduling core over HTTP. Handlers refresh the
// appointment snapshot before reading it so the slot grid, conflict checks and
// stats all observe the same state.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/fachline/backend/services/scheduling-service/internal/appointments"
	"github.com/fachline/backend/services/scheduling-service/internal/cache"
	"github.com/fachline/backend/services/scheduling-service/internal/grid"
	"github.com/fachline/backend/services/scheduling-service/internal/model"
	"github.com/fachline/backend/services/scheduling-service/internal/reminders"
)

// WorkerDirectory resolves workers for calendar rendering and conflict checks.
type WorkerDirectory interface {
	Get(ctx context.Context, id string) (model.Worker, bool, error)
	List(ctx context.Context) ([]model.Worker, error)
}

type SchedulingHandler struct {
	store   *appointments.Store
	workers WorkerDirectory
	remsvc  *reminders.Service
	avail   *cache.AvailabilityCache
	gridCfg grid.Config
	logger  *slog.Logger
	now     func() time.Time
}

func NewSchedulingHandler(store *appointments.Store, workers WorkerDirectory, remsvc *reminders.Service, avail *cache.AvailabilityCache, gridCfg grid.Config, logger *slog.Logger) *SchedulingHandler {
	return &SchedulingHandler{
		store:   store,
		workers: workers,
		remsvc:  remsvc,
		avail:   avail,
		gridCfg: gridCfg,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the handler clock, for tests.
func (h *SchedulingHandler) WithClock(now func() time.Time) *SchedulingHandler {
	h.now = now
	return h
}

func (h *SchedulingHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/calendar", h.Calendar)
	mux.HandleFunc("/v1/suggestions", h.Suggestions)
	mux.HandleFunc("/v1/workers", h.Workers)
	mux.HandleFunc("/v1/appointments", h.Appointments)
	mux.HandleFunc("/v1/appointments/transition", h.Transition)
	mux.HandleFunc("/v1/appointments/bulk-transition", h.BulkTransition)
	mux.HandleFunc("/v1/stats", h.Stats)
	mux.HandleFunc("/v1/reminders", h.Reminders)
	mux.HandleFunc("/v1/reminders/schedule", h.ScheduleReminders)
}

func (h *SchedulingHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// refresh reloads the snapshot from storage. Handlers call it once per request
// so every read within the request sees a single consistent state.
func (h *SchedulingHandler) refresh(ctx context.Context, w http.ResponseWriter) bool {
	if err := h.store.Load(ctx); err != nil {
		h.logger.Error("snapshot refresh failed", "err", err)
		http.Error(w, "failed to load appointments", http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *SchedulingHandler) mustWorker(ctx context.Context, w http.ResponseWriter, id string) (model.Worker, bool) {
	worker, found, err := h.workers.Get(ctx, id)
	if err != nil {
		h.logger.Error("worker lookup failed", "worker_id", id, "err", err)
		http.Error(w, "failed to load worker", http.StatusInternalServerError)
		return model.Worker{}, false
	}
	if !found {
		http.Error(w, "worker not found", http.StatusNotFound)
		return model.Worker{}, false
	}
	return worker, true
}

const dateLayout = "2006-01-02"

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
