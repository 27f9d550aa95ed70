package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fachline/backend/libs/db"
	"github.com/fachline/backend/services/scheduling-service/internal/model"
)

// AppointmentRepository is the persistence collaborator behind the appointment
// store.
type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

const appointmentColumns = `
	id, worker_id, COALESCE(client_id, ''), COALESCE(client_name, ''),
	date, start_minutes, duration_minutes, status, priority,
	COALESCE(service_type, ''), COALESCE(location, ''), COALESCE(notes, ''),
	reminder_channels, created_at, confirmed_at, completed_at, cancelled_at`

func (r *AppointmentRepository) FetchAll(ctx context.Context) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY date, start_minutes, created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (r *AppointmentRepository) Insert(ctx context.Context, appt model.Appointment) error {
	channels := make([]string, 0, len(appt.ReminderChannels))
	for _, ch := range appt.ReminderChannels {
		channels = append(channels, string(ch))
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments
			(id, worker_id, client_id, client_name, date, start_minutes, duration_minutes,
			 status, priority, service_type, location, notes, reminder_channels, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, appt.ID, appt.WorkerID, appt.ClientID, appt.ClientName, appt.Date, int(appt.Start),
		appt.DurationMinutes, appt.Status, appt.Priority, appt.ServiceType, appt.Location,
		appt.Notes, channels, appt.CreatedAt)
	return err
}

func (r *AppointmentRepository) Update(ctx context.Context, appt model.Appointment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET worker_id = $2,
			client_id = $3,
			client_name = $4,
			date = $5,
			start_minutes = $6,
			duration_minutes = $7,
			priority = $8,
			service_type = $9,
			location = $10,
			notes = $11
		WHERE id = $1
	`, appt.ID, appt.WorkerID, appt.ClientID, appt.ClientName, appt.Date, int(appt.Start),
		appt.DurationMinutes, appt.Priority, appt.ServiceType, appt.Location, appt.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *AppointmentRepository) Remove(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status model.Status, at time.Time) error {
	var column string
	switch status {
	case model.StatusConfirmed:
		column = "confirmed_at"
	case model.StatusCompleted:
		column = "completed_at"
	case model.StatusCancelled:
		column = "cancelled_at"
	default:
		return errors.New("unsupported target status")
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = $2, `+column+` = $3
		WHERE id = $1
	`, id, status, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanAppointment(rows pgx.Rows) (model.Appointment, error) {
	var appt model.Appointment
	var startMinutes int
	var channels []string
	var confirmedAt, completedAt, cancelledAt *time.Time
	if err := rows.Scan(
		&appt.ID,
		&appt.WorkerID,
		&appt.ClientID,
		&appt.ClientName,
		&appt.Date,
		&startMinutes,
		&appt.DurationMinutes,
		&appt.Status,
		&appt.Priority,
		&appt.ServiceType,
		&appt.Location,
		&appt.Notes,
		&channels,
		&appt.CreatedAt,
		&confirmedAt,
		&completedAt,
		&cancelledAt,
	); err != nil {
		return model.Appointment{}, err
	}
	appt.Start = model.TimeOfDay(startMinutes)
	for _, ch := range channels {
		appt.ReminderChannels = append(appt.ReminderChannels, model.Channel(ch))
	}
	appt.ConfirmedAt = confirmedAt
	appt.CompletedAt = completedAt
	appt.CancelledAt = cancelledAt
	return appt, nil
}

// IsNotFound reports whether err is the driver's empty-result sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
