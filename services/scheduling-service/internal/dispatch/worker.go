// Package dispatch moves due reminder entries out of the scheduling database
// and into the delivery pipeline. The hand-off is transactional: an entry is
// marked sent in the same transaction that writes its outbox event.
package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fachline/backend/libs/db"
	"github.com/fachline/backend/services/scheduling-service/internal/outbox"
	"github.com/fachline/backend/services/scheduling-service/internal/reminders"
)

const EventReminderDue = "scheduling.reminder.due.v1"

// DueFetcher is the slice of the reminder repository the worker needs.
type DueFetcher interface {
	FetchDue(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]reminders.DueReminder, error)
	MarkSent(ctx context.Context, tx pgx.Tx, ids []string) error
	MarkFailed(ctx context.Context, tx pgx.Tx, ids []string) error
}

type Worker struct {
	pool      *db.Pool
	entries   DueFetcher
	outbox    *outbox.Repository
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

type Config struct {
	Interval  time.Duration
	BatchSize int
}

func NewWorker(pool *db.Pool, entries DueFetcher, outboxRepo *outbox.Repository, logger *slog.Logger, cfg Config) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Worker{
		pool:      pool,
		entries:   entries,
		outbox:    outboxRepo,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		now:       time.Now,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				w.logger.Error("reminder dispatch batch failed", "err", err)
			}
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	due, err := w.entries.FetchDue(ctx, tx, w.now().UTC(), w.batchSize)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return tx.Commit(ctx)
	}

	var sent, failed []string
	for _, entry := range due {
		payload, err := json.Marshal(map[string]any{
			"reminder_id":    entry.ID,
			"appointment_id": entry.AppointmentID,
			"client_id":      entry.ClientID,
			"client_name":    entry.ClientName,
			"channel":        entry.Channel,
			"scheduled_for":  entry.ScheduledFor.UTC().Format(time.RFC3339),
			"content":        entry.Content,
		})
		if err != nil {
			failed = append(failed, entry.ID)
			continue
		}
		if err := w.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: "reminder",
			AggregateID:   entry.AppointmentID,
			EventType:     EventReminderDue,
			Payload:       payload,
		}); err != nil {
			failed = append(failed, entry.ID)
			continue
		}
		sent = append(sent, entry.ID)
	}

	if err := w.entries.MarkSent(ctx, tx, sent); err != nil {
		return err
	}
	if err := w.entries.MarkFailed(ctx, tx, failed); err != nil {
		return err
	}

	w.logger.Info("reminders dispatched", "sent", len(sent), "failed", len(failed))
	return tx.Commit(ctx)
}
