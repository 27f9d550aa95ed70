package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fachline/backend/libs/db"
	"github.com/fachline/backend/services/scheduling-service/internal/model"
	"github.com/fachline/backend/services/scheduling-service/internal/reminders"
)

// ReminderRepository persists reminder entries and serves the dispatch worker
// its due batches.
type ReminderRepository struct {
	pool *db.Pool
}

func NewReminderRepository(pool *db.Pool) *ReminderRepository {
	return &ReminderRepository{pool: pool}
}

// Upsert inserts entries, leaving already known IDs untouched so re-planning
// stays additive.
func (r *ReminderRepository) Upsert(ctx context.Context, entries []reminders.Entry) error {
	for _, e := range entries {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO reminder_entries
				(id, appointment_id, channel, offset_hours, scheduled_for, content, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING
		`, e.ID, e.AppointmentID, e.Channel, e.OffsetHours, e.ScheduledFor, e.Content, e.Status, e.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ReminderRepository) ListByAppointment(ctx context.Context, appointmentID string) ([]reminders.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, channel, offset_hours, scheduled_for, content, status, created_at
		FROM reminder_entries
		WHERE appointment_id = $1
		ORDER BY scheduled_for, channel
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *ReminderRepository) CancelScheduled(ctx context.Context, appointmentID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminder_entries
		SET status = 'cancelled'
		WHERE appointment_id = $1 AND status = 'scheduled'
	`, appointmentID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *ReminderRepository) HasScheduled(ctx context.Context, appointmentID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reminder_entries
			WHERE appointment_id = $1 AND status = 'scheduled'
		)
	`, appointmentID).Scan(&exists)
	return exists, err
}

// FetchDue locks a batch of entries whose send time has arrived. Row locks are
// skipped so concurrent dispatch workers never double-send. The appointment
// join supplies the client context the delivery event carries downstream.
func (r *ReminderRepository) FetchDue(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]reminders.DueReminder, error) {
	rows, err := tx.Query(ctx, `
		SELECT e.id, e.appointment_id, e.channel, e.offset_hours, e.scheduled_for,
		       e.content, e.status, e.created_at,
		       COALESCE(a.client_id, ''), COALESCE(a.client_name, '')
		FROM reminder_entries e
		LEFT JOIN appointments a ON a.id = e.appointment_id
		WHERE e.status = 'scheduled' AND e.scheduled_for <= $1
		ORDER BY e.scheduled_for
		LIMIT $2
		FOR UPDATE OF e SKIP LOCKED
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []reminders.DueReminder
	for rows.Next() {
		var d reminders.DueReminder
		var channel string
		var status string
		if err := rows.Scan(&d.ID, &d.AppointmentID, &channel, &d.OffsetHours, &d.ScheduledFor,
			&d.Content, &status, &d.CreatedAt, &d.ClientID, &d.ClientName); err != nil {
			return nil, err
		}
		d.Channel = model.Channel(channel)
		d.Status = reminders.EntryStatus(status)
		due = append(due, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return due, nil
}

func (r *ReminderRepository) MarkSent(ctx context.Context, tx pgx.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE reminder_entries
		SET status = 'sent'
		WHERE id = ANY($1)
	`, ids)
	return err
}

func (r *ReminderRepository) MarkFailed(ctx context.Context, tx pgx.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE reminder_entries
		SET status = 'failed'
		WHERE id = ANY($1)
	`, ids)
	return err
}

func scanEntries(rows pgx.Rows) ([]reminders.Entry, error) {
	var entries []reminders.Entry
	for rows.Next() {
		var e reminders.Entry
		var channel string
		var status string
		if err := rows.Scan(&e.ID, &e.AppointmentID, &channel, &e.OffsetHours, &e.ScheduledFor, &e.Content, &status, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Channel = model.Channel(channel)
		e.Status = reminders.EntryStatus(status)
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return entries, nil
}
