package appointments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fachline/backend/services/scheduling-service/internal/model"
)

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidInput      = errors.New("invalid appointment data")
	ErrHasReminders      = errors.New("appointment has scheduled reminders")
	ErrClosed            = errors.New("appointment already closed")
)

// Repository is the persistence collaborator. Implementations live at the
// storage boundary; a failed call returns an error and the store leaves its
// in-memory state untouched.
type Repository interface {
	FetchAll(ctx context.Context) ([]model.Appointment, error)
	Insert(ctx context.Context, appt model.Appointment) error
	Update(ctx context.Context, appt model.Appointment) error
	Remove(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status model.Status, at time.Time) error
}

// Reminders is the slice of the reminder subsystem the store needs: cancelling
// the plan of a cancelled appointment and guarding deletion while entries are
// still scheduled.
type Reminders interface {
	CancelForAppointment(ctx context.Context, appointmentID string) (int, error)
	HasScheduled(ctx context.Context, appointmentID string) (bool, error)
}

// Store owns the canonical appointment list. It is the only component that
// mutates appointment state; the grid and the conflict detector read the
// snapshot it serves.
type Store struct {
	mu        sync.Mutex
	repo      Repository
	reminders Reminders
	byID      map[string]*model.Appointment
	order     []string
	now       func() time.Time
	newID     func() string
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithReminders(r Reminders) Option {
	return func(s *Store) { s.reminders = r }
}

func NewStore(repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:  repo,
		byID:  map[string]*model.Appointment{},
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory snapshot with the persisted state. Callers must
// refresh after external mutations so conflict checks run against the same
// snapshot the slot grid was rendered from.
func (s *Store) Load(ctx context.Context) error {
	appts, err := s.repo.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch appointments: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]*model.Appointment, len(appts))
	s.order = make([]string, 0, len(appts))
	for i := range appts {
		a := appts[i]
		s.byID[a.ID] = &a
		s.order = append(s.order, a.ID)
	}
	return nil
}

type CreateInput struct {
	WorkerID         string
	ClientID         string
	ClientName       string
	Date             time.Time
	Start            model.TimeOfDay
	DurationMinutes  int
	Priority         model.Priority
	ServiceType      string
	Location         string
	Notes            string
	ReminderChannels []model.Channel
}

// Create persists a new pending appointment and adds it to the snapshot.
func (s *Store) Create(ctx context.Context, in CreateInput) (model.Appointment, error) {
	if in.WorkerID == "" || in.Date.IsZero() || !in.Start.Valid() || in.DurationMinutes <= 0 {
		return model.Appointment{}, ErrInvalidInput
	}
	for _, ch := range in.ReminderChannels {
		if !ch.Valid() {
			return model.Appointment{}, fmt.Errorf("%w: unknown channel %q", ErrInvalidInput, ch)
		}
	}
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}

	appt := model.Appointment{
		ID:               s.newID(),
		WorkerID:         in.WorkerID,
		ClientID:         in.ClientID,
		ClientName:       in.ClientName,
		Date:             in.Date,
		Start:            in.Start,
		DurationMinutes:  in.DurationMinutes,
		Status:           model.StatusPending,
		Priority:         priority,
		ServiceType:      in.ServiceType,
		Location:         in.Location,
		Notes:            in.Notes,
		ReminderChannels: in.ReminderChannels,
		CreatedAt:        s.now().UTC(),
	}

	if err := s.repo.Insert(ctx, appt); err != nil {
		return model.Appointment{}, fmt.Errorf("insert appointment: %w", err)
	}

	s.mu.Lock()
	s.byID[appt.ID] = &appt
	s.order = append(s.order, appt.ID)
	s.mu.Unlock()
	return appt, nil
}

func (s *Store) Get(id string) (model.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return model.Appointment{}, false
	}
	return *a, true
}

// List returns a copy of the snapshot in insertion order.
func (s *Store) List() []model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Appointment, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

// UpdateInput carries a partial edit. Nil fields keep their current value.
type UpdateInput struct {
	WorkerID        *string
	ClientID        *string
	ClientName      *string
	Date            *time.Time
	Start           *model.TimeOfDay
	DurationMinutes *int
	Priority        *model.Priority
	ServiceType     *string
	Location        *string
	Notes           *string
}

// Update applies a partial edit to an open appointment. Completed and
// cancelled appointments are history and cannot be edited.
func (s *Store) Update(ctx context.Context, id string, in UpdateInput) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.byID[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	if appt.Status == model.StatusCompleted || appt.Status == model.StatusCancelled {
		return model.Appointment{}, ErrClosed
	}

	updated := *appt
	if in.WorkerID != nil {
		updated.WorkerID = *in.WorkerID
	}
	if in.ClientID != nil {
		updated.ClientID = *in.ClientID
	}
	if in.ClientName != nil {
		updated.ClientName = *in.ClientName
	}
	if in.Date != nil {
		updated.Date = *in.Date
	}
	if in.Start != nil {
		updated.Start = *in.Start
	}
	if in.DurationMinutes != nil {
		updated.DurationMinutes = *in.DurationMinutes
	}
	if in.Priority != nil {
		updated.Priority = *in.Priority
	}
	if in.ServiceType != nil {
		updated.ServiceType = *in.ServiceType
	}
	if in.Location != nil {
		updated.Location = *in.Location
	}
	if in.Notes != nil {
		updated.Notes = *in.Notes
	}
	if updated.WorkerID == "" || updated.Date.IsZero() || !updated.Start.Valid() || updated.DurationMinutes <= 0 {
		return model.Appointment{}, ErrInvalidInput
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return model.Appointment{}, fmt.Errorf("update appointment: %w", err)
	}
	*appt = updated
	return updated, nil
}

// Transition moves an appointment to the target status if the lifecycle
// allows it. Rejections do not mutate anything. Cancelling an appointment
// also cancels its scheduled reminder entries; sent history stays untouched.
func (s *Store) Transition(ctx context.Context, id string, target model.Status) error {
	s.mu.Lock()
	appt, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if from := appt.Status; !model.CanTransition(from, target) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, target)
	}

	// The lock stays held across the persist so a concurrent call cannot
	// run the lifecycle check against a stale status.
	at := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, target, at); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist status: %w", err)
	}
	appt.Status = target
	switch target {
	case model.StatusConfirmed:
		appt.ConfirmedAt = &at
	case model.StatusCompleted:
		appt.CompletedAt = &at
	case model.StatusCancelled:
		appt.CancelledAt = &at
	}
	s.mu.Unlock()

	if target == model.StatusCancelled && s.reminders != nil {
		if _, err := s.reminders.CancelForAppointment(ctx, id); err != nil {
			return fmt.Errorf("cancel reminders: %w", err)
		}
	}
	return nil
}

// BulkTransition applies Transition to each id independently and returns the
// number of successes. Not atomic: some ids may transition while others are
// rejected, and the count is the authoritative outcome.
func (s *Store) BulkTransition(ctx context.Context, ids []string, target model.Status) int {
	done := 0
	for _, id := range ids {
		if err := s.Transition(ctx, id, target); err == nil {
			done++
		}
	}
	return done
}

// Remove deletes an appointment that no scheduled reminder still references.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.byID[id]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	if s.reminders != nil {
		pending, err := s.reminders.HasScheduled(ctx, id)
		if err != nil {
			return fmt.Errorf("check reminders: %w", err)
		}
		if pending {
			return ErrHasReminders
		}
	}

	if err := s.repo.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove appointment: %w", err)
	}

	s.mu.Lock()
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}
