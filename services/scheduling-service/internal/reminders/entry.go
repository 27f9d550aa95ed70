package reminders

import (
	"time"

	"github.com/fachline/backend/services/scheduling-service/internal/model"
)

type EntryStatus string

const (
	StatusScheduled EntryStatus = "scheduled"
	StatusSent      EntryStatus = "sent"
	StatusFailed    EntryStatus = "failed"
	StatusCancelled EntryStatus = "cancelled"
)

// Entry is one planned reminder send: a channel plus a lead-time offset from
// the appointment start. The ID is deterministic over
// (appointment, channel, offset), which makes re-planning idempotent and
// additive.
type Entry struct {
	ID            string
	AppointmentID string
	Channel       model.Channel
	OffsetHours   int
	ScheduledFor  time.Time
	Content       string
	Status        EntryStatus
	CreatedAt     time.Time
}

// DueReminder is a due entry joined with the booking context the delivery
// pipeline needs to address the message.
type DueReminder struct {
	Entry
	ClientID   string
	ClientName string
}
