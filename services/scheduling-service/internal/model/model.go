package model

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// CanTransition reports whether the lifecycle allows moving from one status to
// the target. The lifecycle is monotonic: pending -> confirmed -> completed,
// with cancelled reachable from pending or confirmed. Terminal statuses never
// transition again.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelCall  Channel = "call"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelSMS, ChannelEmail, ChannelPush, ChannelCall:
		return true
	}
	return false
}

type Appointment struct {
	ID               string
	WorkerID         string
	ClientID         string
	ClientName       string
	Date             time.Time // calendar date, clock component ignored
	Start            TimeOfDay
	DurationMinutes  int
	Status           Status
	Priority         Priority
	ServiceType      string
	Location         string
	Notes            string
	ReminderChannels []Channel
	CreatedAt        time.Time
	ConfirmedAt      *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
}

func (a Appointment) End() TimeOfDay {
	return a.Start.Add(a.DurationMinutes)
}

// StartAt is the appointment start as an absolute timestamp.
func (a Appointment) StartAt() time.Time {
	return a.Start.At(a.Date)
}

// SameDay reports whether the appointment falls on the given calendar date.
func (a Appointment) SameDay(date time.Time) bool {
	ay, am, ad := a.Date.Date()
	y, m, d := date.Date()
	return ay == y && am == m && ad == d
}

type WorkingHours struct {
	Start TimeOfDay
	End   TimeOfDay
}

type Worker struct {
	ID           string
	Name         string
	WorkingHours WorkingHours
	IsAvailable  bool
}
