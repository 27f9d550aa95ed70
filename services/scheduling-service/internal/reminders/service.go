package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fachline/backend/services/scheduling-service/internal/model"
)

// EntryRepository persists reminder entries. Upsert must be additive: an entry
// whose deterministic ID already exists is left alone, so re-planning with the
// same inputs never duplicates or resets prior entries.
type EntryRepository interface {
	Upsert(ctx context.Context, entries []Entry) error
	ListByAppointment(ctx context.Context, appointmentID string) ([]Entry, error)
	CancelScheduled(ctx context.Context, appointmentID string) (int, error)
	HasScheduled(ctx context.Context, appointmentID string) (bool, error)
}

// TemplateSource supplies the user-authored templates. May be nil, in which
// case only the built-in per-channel defaults apply.
type TemplateSource interface {
	ListActive(ctx context.Context) ([]Template, error)
}

// Service glues the pure planner to persistence. It also implements the
// appointment store's Reminders collaborator.
type Service struct {
	repo      EntryRepository
	templates TemplateSource
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo EntryRepository, templates TemplateSource, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		templates: templates,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Schedule plans and persists reminder entries for the appointment. Planning
// with extra channels or offsets later adds entries without touching the
// earlier set; removing entries requires an explicit cancel.
func (s *Service) Schedule(ctx context.Context, appt model.Appointment, channels []model.Channel, offsetsHours []int) ([]Entry, error) {
	var authored []Template
	if s.templates != nil {
		var err error
		authored, err = s.templates.ListActive(ctx)
		if err != nil {
			s.logger.Warn("template load failed, using defaults", "err", err)
		}
	}
	scheduler := NewScheduler(NewRegistry(authored))

	entries := scheduler.Plan(appt, channels, offsetsHours, s.now())
	if len(entries) == 0 {
		return nil, nil
	}
	if err := s.repo.Upsert(ctx, entries); err != nil {
		return nil, fmt.Errorf("persist reminder plan: %w", err)
	}
	s.logger.Info("reminder plan stored",
		"appointment_id", appt.ID,
		"entries", len(entries),
	)
	return entries, nil
}

func (s *Service) ListByAppointment(ctx context.Context, appointmentID string) ([]Entry, error) {
	return s.repo.ListByAppointment(ctx, appointmentID)
}

// CancelForAppointment moves every scheduled entry of the appointment to
// cancelled. Sent and failed entries are history and stay untouched.
func (s *Service) CancelForAppointment(ctx context.Context, appointmentID string) (int, error) {
	n, err := s.repo.CancelScheduled(ctx, appointmentID)
	if err != nil {
		return 0, fmt.Errorf("cancel reminders: %w", err)
	}
	if n > 0 {
		s.logger.Info("reminders cancelled", "appointment_id", appointmentID, "count", n)
	}
	return n, nil
}

func (s *Service) HasScheduled(ctx context.Context, appointmentID string) (bool, error) {
	return s.repo.HasScheduled(ctx, appointmentID)
}
