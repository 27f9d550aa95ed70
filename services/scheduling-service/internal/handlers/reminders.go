package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fachline/backend/services/scheduling-service/internal/model"
	"github.com/fachline/backend/services/scheduling-service/internal/reminders"
)

type scheduleRemindersRequest struct {
	AppointmentID string   `json:"appointment_id"`
	Channels      []string `json:"channels"`
	OffsetsHours  []int    `json:"offsets_hours"`
}

type reminderItem struct {
	ID            string `json:"id"`
	AppointmentID string `json:"appointment_id"`
	Channel       string `json:"channel"`
	OffsetHours   int    `json:"offset_hours"`
	ScheduledFor  string `json:"scheduled_for"`
	Status        string `json:"status"`
	Content       string `json:"content"`
}

func toReminderItems(entries []reminders.Entry) []reminderItem {
	items := make([]reminderItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, reminderItem{
			ID:            e.ID,
			AppointmentID: e.AppointmentID,
			Channel:       string(e.Channel),
			OffsetHours:   e.OffsetHours,
			ScheduledFor:  e.ScheduledFor.UTC().Format(time.RFC3339),
			Status:        string(e.Status),
			Content:       e.Content,
		})
	}
	return items
}

// ScheduleReminders plans reminder entries for an appointment. Channels
// default to the ones chosen at booking time; offsets default to 24 hours.
func (h *SchedulingHandler) ScheduleReminders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req scheduleRemindersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if !h.refresh(ctx, w) {
		return
	}
	appt, found := h.store.Get(req.AppointmentID)
	if !found {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}
	if appt.Status == model.StatusCancelled || appt.Status == model.StatusCompleted {
		http.Error(w, "appointment already closed", http.StatusConflict)
		return
	}

	channels := appt.ReminderChannels
	if len(req.Channels) > 0 {
		channels = make([]model.Channel, 0, len(req.Channels))
		for _, raw := range req.Channels {
			ch := model.Channel(strings.ToLower(strings.TrimSpace(raw)))
			if !ch.Valid() {
				http.Error(w, "unknown reminder channel", http.StatusBadRequest)
				return
			}
			channels = append(channels, ch)
		}
	}
	if len(channels) == 0 {
		http.Error(w, "no reminder channels selected", http.StatusBadRequest)
		return
	}

	offsets := req.OffsetsHours
	if len(offsets) == 0 {
		offsets = []int{24}
	}

	entries, err := h.remsvc.Schedule(ctx, appt, channels, offsets)
	if err != nil {
		h.logger.Error("reminder scheduling failed", "appointment_id", appt.ID, "err", err)
		http.Error(w, "failed to schedule reminders", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, toReminderItems(entries))
}

// Reminders lists the reminder plan of one appointment.
func (h *SchedulingHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	appointmentID := strings.TrimSpace(r.URL.Query().Get("appointment_id"))
	if appointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	entries, err := h.remsvc.ListByAppointment(r.Context(), appointmentID)
	if err != nil {
		h.logger.Error("reminder list failed", "appointment_id", appointmentID, "err", err)
		http.Error(w, "failed to list reminders", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, toReminderItems(entries))
}
