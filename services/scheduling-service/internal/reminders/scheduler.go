package reminders

import (
	"fmt"
	"time"

	"github.com/fachline/backend/services/scheduling-service/internal/model"
	"github.com/fachline/backend/services/scheduling-service/internal/template"
)

// channelOrder fixes the iteration order of the channel set so plans are
// deterministic regardless of request ordering.
var channelOrder = []model.Channel{model.ChannelSMS, model.ChannelEmail, model.ChannelPush, model.ChannelCall}

// Scheduler derives a reminder plan from a confirmed appointment. It is pure:
// the same appointment, channels, offsets and now always produce the same
// entries.
type Scheduler struct {
	registry *Registry
}

func NewScheduler(registry *Registry) *Scheduler {
	if registry == nil {
		registry = NewRegistry(nil)
	}
	return &Scheduler{registry: registry}
}

// Plan produces one entry per (offset x channel) combination, scheduled at
// appointment start minus the offset. Entries whose send time already passed
// are created as sent rather than scheduled, so re-planning close to the
// appointment is a no-op instead of an error.
func (s *Scheduler) Plan(appt model.Appointment, channels []model.Channel, offsetsHours []int, now time.Time) []Entry {
	requested := map[model.Channel]bool{}
	for _, ch := range channels {
		if ch.Valid() {
			requested[ch] = true
		}
	}
	if len(requested) == 0 {
		return nil
	}

	start := appt.StartAt()
	var entries []Entry
	for _, offset := range offsetsHours {
		if offset <= 0 {
			continue
		}
		scheduledFor := start.Add(-time.Duration(offset) * time.Hour)
		for _, ch := range channelOrder {
			if !requested[ch] {
				continue
			}

			tpl := s.registry.ForChannel(ch)
			content := template.Render(tpl.Body, personalization(appt, offset))

			status := StatusScheduled
			if !scheduledFor.After(now) {
				status = StatusSent
			}

			entries = append(entries, Entry{
				ID:            fmt.Sprintf("%s|%s|%dh", appt.ID, ch, offset),
				AppointmentID: appt.ID,
				Channel:       ch,
				OffsetHours:   offset,
				ScheduledFor:  scheduledFor,
				Content:       content,
				Status:        status,
				CreatedAt:     now.UTC(),
			})
		}
	}
	return entries
}

func personalization(appt model.Appointment, offsetHours int) map[string]any {
	return map[string]any{
		"clientName":    appt.ClientName,
		"serviceType":   appt.ServiceType,
		"date":          appt.Date.Format("2006-01-02"),
		"time":          appt.Start.String(),
		"location":      appt.Location,
		"reminderHours": offsetHours,
	}
}
