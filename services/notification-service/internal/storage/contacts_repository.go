package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/fachline/backend/libs/db"
)

// ContactsRepository reads the per-client contact directory. The notification
// side owns contact data; the scheduling side never sees addresses.
type ContactsRepository struct {
	pool *db.Pool
}

func NewContactsRepository(pool *db.Pool) *ContactsRepository {
	return &ContactsRepository{pool: pool}
}

// Recipient returns the address for the channel: phone for sms and call,
// email address for email, device token for push.
func (r *ContactsRepository) Recipient(ctx context.Context, clientID string, channel string) (string, bool, error) {
	if clientID == "" {
		return "", false, nil
	}

	var phone, email, pushToken string
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(phone, ''), COALESCE(email, ''), COALESCE(push_token, '')
		FROM client_contacts
		WHERE client_id = $1
	`, clientID).Scan(&phone, &email, &pushToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	var recipient string
	switch channel {
	case "sms", "call":
		recipient = phone
	case "email":
		recipient = email
	case "push":
		recipient = pushToken
	}
	return recipient, recipient != "", nil
}
