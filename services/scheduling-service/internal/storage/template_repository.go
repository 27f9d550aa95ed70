package storage

import (
	"context"

	"github.com/fachline/backend/libs/db"
	"github.com/fachline/backend/services/scheduling-service/internal/model"
	"github.com/fachline/backend/services/scheduling-service/internal/reminders"
)

// TemplateRepository reads user-authored reminder templates.
type TemplateRepository struct {
	pool *db.Pool
}

func NewTemplateRepository(pool *db.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

func (r *TemplateRepository) ListActive(ctx context.Context) ([]reminders.Template, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, channel, COALESCE(name, ''), body, is_active
		FROM reminder_templates
		WHERE is_active
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []reminders.Template
	for rows.Next() {
		var t reminders.Template
		var channel string
		if err := rows.Scan(&t.ID, &channel, &t.Name, &t.Body, &t.IsActive); err != nil {
			return nil, err
		}
		t.Channel = model.Channel(channel)
		templates = append(templates, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return templates, nil
}
