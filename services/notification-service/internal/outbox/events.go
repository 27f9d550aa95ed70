package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fachline/backend/services/notification-service/internal/delivery"
)

const (
	EventDeliverySent   = "notification.sent.v1"
	EventDeliveryFailed = "notification.failed.v1"
)

// Events adapts the outbox to the delivery processor's event sink.
type Events struct {
	repo *Repository
}

func NewEvents(repo *Repository) *Events {
	return &Events{repo: repo}
}

func (e *Events) Sent(ctx context.Context, rec delivery.Record) error {
	payload, err := json.Marshal(map[string]any{
		"reminder_id":    rec.ReminderID,
		"appointment_id": rec.AppointmentID,
		"channel":        rec.Channel,
		"provider_id":    rec.ProviderID,
		"sent_at":        time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return e.repo.InsertOne(ctx, Event{
		AggregateType: "delivery",
		AggregateID:   rec.AppointmentID,
		EventType:     EventDeliverySent,
		Payload:       payload,
	})
}

func (e *Events) Failed(ctx context.Context, rec delivery.Record) error {
	payload, err := json.Marshal(map[string]any{
		"reminder_id":    rec.ReminderID,
		"appointment_id": rec.AppointmentID,
		"channel":        rec.Channel,
		"error_reason":   rec.ErrorReason,
		"failed_at":      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return e.repo.InsertOne(ctx, Event{
		AggregateType: "delivery",
		AggregateID:   rec.AppointmentID,
		EventType:     EventDeliveryFailed,
		Payload:       payload,
	})
}
