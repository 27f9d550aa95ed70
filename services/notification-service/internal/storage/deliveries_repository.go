package storage

import (
	"context"

	"github.com/fachline/backend/libs/db"
	"github.com/fachline/backend/services/notification-service/internal/delivery"
)

// DeliveriesRepository keeps the delivery audit trail.
type DeliveriesRepository struct {
	pool *db.Pool
}

func NewDeliveriesRepository(pool *db.Pool) *DeliveriesRepository {
	return &DeliveriesRepository{pool: pool}
}

func (r *DeliveriesRepository) Insert(ctx context.Context, rec delivery.Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO deliveries
			(reminder_id, appointment_id, client_id, channel, recipient, content, status, provider_id, error_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ReminderID, rec.AppointmentID, rec.ClientID, rec.Channel, rec.Recipient,
		rec.Content, rec.Status, rec.ProviderID, rec.ErrorReason)
	return err
}
