// Package delivery turns a due-reminder event into a channel send plus an
// audit record. Transient failures (database, event sink) are returned so the
// consumer retries; bad payloads and provider rejections are terminal and
// recorded as failed deliveries.
package delivery

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/fachline/backend/services/notification-service/internal/senders"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Payload is the scheduling side's due-reminder event.
type Payload struct {
	ReminderID    string `json:"reminder_id"`
	AppointmentID string `json:"appointment_id"`
	ClientID      string `json:"client_id"`
	ClientName    string `json:"client_name"`
	Channel       string `json:"channel"`
	ScheduledFor  string `json:"scheduled_for"`
	Content       string `json:"content"`
}

// Record is one delivery attempt, kept for the audit trail.
type Record struct {
	ReminderID    string
	AppointmentID string
	ClientID      string
	Channel       string
	Recipient     string
	Content       string
	Status        string
	ProviderID    string
	ErrorReason   string
}

// Contacts resolves the recipient address for a client on a given channel.
type Contacts interface {
	Recipient(ctx context.Context, clientID string, channel string) (string, bool, error)
}

type Deliveries interface {
	Insert(ctx context.Context, rec Record) error
}

// EventSink publishes the delivery outcome back to the platform.
type EventSink interface {
	Sent(ctx context.Context, rec Record) error
	Failed(ctx context.Context, rec Record) error
}

type Processor struct {
	senders    map[string]senders.Sender
	contacts   Contacts
	deliveries Deliveries
	events     EventSink
	logger     *slog.Logger
}

func NewProcessor(byChannel map[string]senders.Sender, contacts Contacts, deliveries Deliveries, events EventSink, logger *slog.Logger) *Processor {
	return &Processor{
		senders:    byChannel,
		contacts:   contacts,
		deliveries: deliveries,
		events:     events,
		logger:     logger,
	}
}

// Handle processes one consumed message. A nil return acknowledges the
// message; malformed payloads are dropped, never retried.
func (p *Processor) Handle(ctx context.Context, msg kafka.Message) error {
	var payload Payload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		p.logger.Error("invalid reminder payload", "err", err)
		return nil
	}
	if payload.ReminderID == "" || payload.AppointmentID == "" || payload.Channel == "" || payload.Content == "" {
		p.logger.Error("missing reminder fields", "reminder_id", payload.ReminderID)
		return nil
	}

	rec := Record{
		ReminderID:    payload.ReminderID,
		AppointmentID: payload.AppointmentID,
		ClientID:      payload.ClientID,
		Channel:       strings.ToLower(payload.Channel),
		Content:       payload.Content,
		Status:        StatusSent,
	}

	sender, known := p.senders[rec.Channel]
	switch {
	case !known:
		rec.Status = StatusFailed
		rec.ErrorReason = "unsupported channel: " + rec.Channel
	default:
		recipient, found, err := p.contacts.Recipient(ctx, payload.ClientID, rec.Channel)
		if err != nil {
			return err
		}
		if !found {
			rec.Status = StatusFailed
			rec.ErrorReason = "no recipient on file"
			break
		}
		rec.Recipient = recipient
		if err := sender.Send(ctx, recipient, payload.Content); err != nil {
			rec.Status = StatusFailed
			rec.ErrorReason = err.Error()
			p.logger.Error("send failed", "channel", rec.Channel, "reminder_id", rec.ReminderID, "err", err)
		} else {
			rec.ProviderID = sender.ProviderID()
		}
	}

	if err := p.deliveries.Insert(ctx, rec); err != nil {
		p.logger.Error("failed to persist delivery", "err", err)
		return err
	}

	var err error
	if rec.Status == StatusFailed {
		err = p.events.Failed(ctx, rec)
	} else {
		err = p.events.Sent(ctx, rec)
	}
	if err != nil {
		p.logger.Error("failed to enqueue delivery event", "err", err)
		return err
	}

	p.logger.Info("reminder processed",
		"reminder_id", rec.ReminderID,
		"appointment_id", rec.AppointmentID,
		"channel", rec.Channel,
		"status", rec.Status,
	)
	return nil
}
