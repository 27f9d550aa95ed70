package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fachline/backend/services/scheduling-service/internal/appointments"
	"github.com/fachline/backend/services/scheduling-service/internal/conflict"
	"github.com/fachline/backend/services/scheduling-service/internal/model"
)

type createAppointmentRequest struct {
	WorkerID         string   `json:"worker_id"`
	ClientID         string   `json:"client_id"`
	ClientName       string   `json:"client_name"`
	Date             string   `json:"date"`
	Start            string   `json:"start"`
	DurationMinutes  int      `json:"duration_minutes"`
	Priority         string   `json:"priority"`
	ServiceType      string   `json:"service_type"`
	Location         string   `json:"location"`
	Notes            string   `json:"notes"`
	ReminderChannels []string `json:"reminder_channels"`
	Force            bool     `json:"force"`
}

type updateAppointmentRequest struct {
	WorkerID        *string `json:"worker_id"`
	ClientID        *string `json:"client_id"`
	ClientName      *string `json:"client_name"`
	Date            *string `json:"date"`
	Start           *string `json:"start"`
	DurationMinutes *int    `json:"duration_minutes"`
	Priority        *string `json:"priority"`
	ServiceType     *string `json:"service_type"`
	Location        *string `json:"location"`
	Notes           *string `json:"notes"`
	Force           bool    `json:"force"`
}

type conflictItem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type appointmentItem struct {
	ID               string   `json:"id"`
	WorkerID         string   `json:"worker_id"`
	ClientID         string   `json:"client_id,omitempty"`
	ClientName       string   `json:"client_name"`
	Date             string   `json:"date"`
	Start            string   `json:"start"`
	End              string   `json:"end"`
	DurationMinutes  int      `json:"duration_minutes"`
	Status           string   `json:"status"`
	Priority         string   `json:"priority"`
	ServiceType      string   `json:"service_type,omitempty"`
	Location         string   `json:"location,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	ReminderChannels []string `json:"reminder_channels,omitempty"`
	CreatedAt        string   `json:"created_at"`
	ConfirmedAt      string   `json:"confirmed_at,omitempty"`
	CompletedAt      string   `json:"completed_at,omitempty"`
	CancelledAt      string   `json:"cancelled_at,omitempty"`
}

type createAppointmentResponse struct {
	Appointment appointmentItem `json:"appointment"`
	Conflicts   []conflictItem  `json:"conflicts"`
}

type transitionRequest struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

type bulkTransitionRequest struct {
	AppointmentIDs []string `json:"appointment_ids"`
	Status         string   `json:"status"`
}

type bulkTransitionResponse struct {
	Requested int `json:"requested"`
	Updated   int `json:"updated"`
}

func toAppointmentItem(a model.Appointment) appointmentItem {
	channels := make([]string, 0, len(a.ReminderChannels))
	for _, ch := range a.ReminderChannels {
		channels = append(channels, string(ch))
	}
	return appointmentItem{
		ID:               a.ID,
		WorkerID:         a.WorkerID,
		ClientID:         a.ClientID,
		ClientName:       a.ClientName,
		Date:             a.Date.Format(dateLayout),
		Start:            a.Start.String(),
		End:              a.End().String(),
		DurationMinutes:  a.DurationMinutes,
		Status:           string(a.Status),
		Priority:         string(a.Priority),
		ServiceType:      a.ServiceType,
		Location:         a.Location,
		Notes:            a.Notes,
		ReminderChannels: channels,
		CreatedAt:        a.CreatedAt.UTC().Format(time.RFC3339),
		ConfirmedAt:      formatTimePtr(a.ConfirmedAt),
		CompletedAt:      formatTimePtr(a.CompletedAt),
		CancelledAt:      formatTimePtr(a.CancelledAt),
	}
}

func toConflictItems(reasons []conflict.Reason) []conflictItem {
	items := make([]conflictItem, 0, len(reasons))
	for _, r := range reasons {
		items = append(items, conflictItem{Code: string(r.Code), Message: r.Message})
	}
	return items
}

// Appointments dispatches on method: GET lists, POST creates, PATCH edits,
// DELETE removes.
func (h *SchedulingHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listAppointments(w, r)
	case http.MethodPost:
		h.createAppointment(w, r)
	case http.MethodPatch:
		h.updateAppointment(w, r)
	case http.MethodDelete:
		h.deleteAppointment(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SchedulingHandler) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.WorkerID = strings.TrimSpace(req.WorkerID)
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.ClientName = strings.TrimSpace(req.ClientName)
	if req.WorkerID == "" || req.ClientName == "" {
		http.Error(w, "worker_id and client_name required", http.StatusBadRequest)
		return
	}
	if req.DurationMinutes <= 0 {
		http.Error(w, "duration_minutes must be positive", http.StatusBadRequest)
		return
	}

	date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(req.Date), time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	start, err := model.ParseTimeOfDay(strings.TrimSpace(req.Start))
	if err != nil {
		http.Error(w, "invalid start", http.StatusBadRequest)
		return
	}

	channels := make([]model.Channel, 0, len(req.ReminderChannels))
	for _, raw := range req.ReminderChannels {
		ch := model.Channel(strings.ToLower(strings.TrimSpace(raw)))
		if !ch.Valid() {
			http.Error(w, "unknown reminder channel", http.StatusBadRequest)
			return
		}
		channels = append(channels, ch)
	}

	ctx := r.Context()
	worker, ok := h.mustWorker(ctx, w, req.WorkerID)
	if !ok {
		return
	}
	if !h.refresh(ctx, w) {
		return
	}

	// Conflicts are advisory. The admin sees every reason at once and can
	// book anyway with force set.
	reasons := conflict.Detect(conflict.Request{
		Date:            date,
		Start:           start,
		DurationMinutes: req.DurationMinutes,
	}, worker, h.store.List())
	if len(reasons) > 0 && !req.Force {
		h.writeJSON(w, http.StatusConflict, map[string]any{
			"conflicts": toConflictItems(reasons),
		})
		return
	}

	appt, err := h.store.Create(ctx, appointments.CreateInput{
		WorkerID:         req.WorkerID,
		ClientID:         req.ClientID,
		ClientName:       req.ClientName,
		Date:             date,
		Start:            start,
		DurationMinutes:  req.DurationMinutes,
		Priority:         model.Priority(strings.TrimSpace(req.Priority)),
		ServiceType:      strings.TrimSpace(req.ServiceType),
		Location:         strings.TrimSpace(req.Location),
		Notes:            strings.TrimSpace(req.Notes),
		ReminderChannels: channels,
	})
	if err != nil {
		if errors.Is(err, appointments.ErrInvalidInput) {
			http.Error(w, "invalid appointment data", http.StatusBadRequest)
			return
		}
		h.logger.Error("appointment create failed", "err", err)
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}

	h.avail.InvalidateWorker(ctx, req.WorkerID)
	h.logger.Info("appointment created",
		"appointment_id", appt.ID,
		"worker_id", appt.WorkerID,
		"forced", req.Force && len(reasons) > 0,
	)
	h.writeJSON(w, http.StatusCreated, createAppointmentResponse{
		Appointment: toAppointmentItem(appt),
		Conflicts:   toConflictItems(reasons),
	})
}

func (h *SchedulingHandler) updateAppointment(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	var req updateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if !h.refresh(ctx, w) {
		return
	}
	current, found := h.store.Get(id)
	if !found {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}

	var in appointments.UpdateInput
	if req.WorkerID != nil {
		workerID := strings.TrimSpace(*req.WorkerID)
		if workerID == "" {
			http.Error(w, "worker_id must not be empty", http.StatusBadRequest)
			return
		}
		in.WorkerID = &workerID
	}
	if req.ClientID != nil {
		clientID := strings.TrimSpace(*req.ClientID)
		in.ClientID = &clientID
	}
	if req.ClientName != nil {
		clientName := strings.TrimSpace(*req.ClientName)
		if clientName == "" {
			http.Error(w, "client_name must not be empty", http.StatusBadRequest)
			return
		}
		in.ClientName = &clientName
	}
	if req.Date != nil {
		date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(*req.Date), time.UTC)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		in.Date = &date
	}
	if req.Start != nil {
		start, err := model.ParseTimeOfDay(strings.TrimSpace(*req.Start))
		if err != nil {
			http.Error(w, "invalid start", http.StatusBadRequest)
			return
		}
		in.Start = &start
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			http.Error(w, "duration_minutes must be positive", http.StatusBadRequest)
			return
		}
		in.DurationMinutes = req.DurationMinutes
	}
	if req.Priority != nil {
		priority := model.Priority(strings.TrimSpace(*req.Priority))
		in.Priority = &priority
	}
	if req.ServiceType != nil {
		serviceType := strings.TrimSpace(*req.ServiceType)
		in.ServiceType = &serviceType
	}
	if req.Location != nil {
		location := strings.TrimSpace(*req.Location)
		in.Location = &location
	}
	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		in.Notes = &notes
	}

	// Effective schedule after the edit, for the conflict check.
	target := current
	if in.WorkerID != nil {
		target.WorkerID = *in.WorkerID
	}
	if in.Date != nil {
		target.Date = *in.Date
	}
	if in.Start != nil {
		target.Start = *in.Start
	}
	if in.DurationMinutes != nil {
		target.DurationMinutes = *in.DurationMinutes
	}

	worker, ok := h.mustWorker(ctx, w, target.WorkerID)
	if !ok {
		return
	}

	// An appointment never conflicts with its own old slot.
	others := make([]model.Appointment, 0)
	for _, a := range h.store.List() {
		if a.ID == id {
			continue
		}
		others = append(others, a)
	}
	reasons := conflict.Detect(conflict.Request{
		Date:            target.Date,
		Start:           target.Start,
		DurationMinutes: target.DurationMinutes,
	}, worker, others)
	if len(reasons) > 0 && !req.Force {
		h.writeJSON(w, http.StatusConflict, map[string]any{
			"conflicts": toConflictItems(reasons),
		})
		return
	}

	appt, err := h.store.Update(ctx, id, in)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		case errors.Is(err, appointments.ErrClosed):
			http.Error(w, "appointment already closed", http.StatusConflict)
		case errors.Is(err, appointments.ErrInvalidInput):
			http.Error(w, "invalid appointment data", http.StatusBadRequest)
		default:
			h.logger.Error("appointment update failed", "appointment_id", id, "err", err)
			http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		}
		return
	}

	h.avail.InvalidateWorker(ctx, current.WorkerID)
	if appt.WorkerID != current.WorkerID {
		h.avail.InvalidateWorker(ctx, appt.WorkerID)
	}
	h.logger.Info("appointment updated",
		"appointment_id", appt.ID,
		"worker_id", appt.WorkerID,
		"forced", req.Force && len(reasons) > 0,
	)
	h.writeJSON(w, http.StatusOK, createAppointmentResponse{
		Appointment: toAppointmentItem(appt),
		Conflicts:   toConflictItems(reasons),
	})
}

func (h *SchedulingHandler) listAppointments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.refresh(ctx, w) {
		return
	}

	workerID := strings.TrimSpace(r.URL.Query().Get("worker_id"))
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	var date time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	items := make([]appointmentItem, 0)
	for _, a := range h.store.List() {
		if workerID != "" && a.WorkerID != workerID {
			continue
		}
		if status != "" && string(a.Status) != status {
			continue
		}
		if !date.IsZero() && !a.SameDay(date) {
			continue
		}
		items = append(items, toAppointmentItem(a))
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *SchedulingHandler) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	appt, found := h.store.Get(id)
	if !found {
		if !h.refresh(ctx, w) {
			return
		}
		appt, found = h.store.Get(id)
	}
	if !found {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}

	if err := h.store.Remove(ctx, id); err != nil {
		switch {
		case errors.Is(err, appointments.ErrNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		case errors.Is(err, appointments.ErrHasReminders):
			http.Error(w, "appointment has scheduled reminders", http.StatusConflict)
		default:
			h.logger.Error("appointment delete failed", "appointment_id", id, "err", err)
			http.Error(w, "failed to delete appointment", http.StatusInternalServerError)
		}
		return
	}

	h.avail.InvalidateWorker(ctx, appt.WorkerID)
	w.WriteHeader(http.StatusNoContent)
}

// Transition moves one appointment through its status lifecycle.
func (h *SchedulingHandler) Transition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	target, ok := parseStatus(req.Status)
	if req.AppointmentID == "" || !ok {
		http.Error(w, "appointment_id and a valid status required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if !h.refresh(ctx, w) {
		return
	}

	if err := h.store.Transition(ctx, req.AppointmentID, target); err != nil {
		switch {
		case errors.Is(err, appointments.ErrNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		case errors.Is(err, appointments.ErrInvalidTransition):
			http.Error(w, "invalid status transition", http.StatusConflict)
		default:
			h.logger.Error("transition failed", "appointment_id", req.AppointmentID, "err", err)
			http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		}
		return
	}

	appt, _ := h.store.Get(req.AppointmentID)
	h.avail.InvalidateWorker(ctx, appt.WorkerID)
	h.writeJSON(w, http.StatusOK, toAppointmentItem(appt))
}

// BulkTransition applies one target status to many appointments. Failures do
// not roll back earlier successes; the response reports how many changed.
func (h *SchedulingHandler) BulkTransition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bulkTransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	target, ok := parseStatus(req.Status)
	if len(req.AppointmentIDs) == 0 || !ok {
		http.Error(w, "appointment_ids and a valid status required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if !h.refresh(ctx, w) {
		return
	}

	updated := h.store.BulkTransition(ctx, req.AppointmentIDs, target)

	seen := map[string]struct{}{}
	for _, id := range req.AppointmentIDs {
		if appt, found := h.store.Get(id); found {
			if _, done := seen[appt.WorkerID]; done {
				continue
			}
			seen[appt.WorkerID] = struct{}{}
			h.avail.InvalidateWorker(ctx, appt.WorkerID)
		}
	}

	h.writeJSON(w, http.StatusOK, bulkTransitionResponse{
		Requested: len(req.AppointmentIDs),
		Updated:   updated,
	})
}

// Stats returns the dashboard counters, recomputed from the current snapshot.
func (h *SchedulingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.refresh(r.Context(), w) {
		return
	}

	stats := h.store.Stats(h.now().UTC())
	h.writeJSON(w, http.StatusOK, map[string]any{
		"total":           stats.Total,
		"by_status":       stats.ByStatus,
		"today":           stats.Today,
		"this_week":       stats.ThisWeek,
		"this_month":      stats.ThisMonth,
		"by_service_type": stats.ByServiceType,
	})
}

func parseStatus(raw string) (model.Status, bool) {
	s := model.Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case model.StatusPending, model.StatusConfirmed, model.StatusCompleted, model.StatusCancelled:
		return s, true
	}
	return "", false
}
