package storage

import (
	"context"

	"github.com/fachline/backend/libs/db"
	"github.com/fachline/backend/services/scheduling-service/internal/model"
)

// WorkerRepository reads the worker directory. The scheduling core only needs
// id, working hours and the availability flag.
type WorkerRepository struct {
	pool *db.Pool
}

func NewWorkerRepository(pool *db.Pool) *WorkerRepository {
	return &WorkerRepository{pool: pool}
}

func (r *WorkerRepository) List(ctx context.Context) ([]model.Worker, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, COALESCE(name, ''), work_start_minutes, work_end_minutes, is_available
		FROM workers
		ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []model.Worker
	for rows.Next() {
		var w model.Worker
		var start, end int
		if err := rows.Scan(&w.ID, &w.Name, &start, &end, &w.IsAvailable); err != nil {
			return nil, err
		}
		w.WorkingHours = model.WorkingHours{
			Start: model.TimeOfDay(start),
			End:   model.TimeOfDay(end),
		}
		workers = append(workers, w)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return workers, nil
}

func (r *WorkerRepository) Get(ctx context.Context, id string) (model.Worker, bool, error) {
	var w model.Worker
	var start, end int
	err := r.pool.QueryRow(ctx, `
		SELECT id, COALESCE(name, ''), work_start_minutes, work_end_minutes, is_available
		FROM workers
		WHERE id = $1
	`, id).Scan(&w.ID, &w.Name, &start, &end, &w.IsAvailable)
	if IsNotFound(err) {
		return model.Worker{}, false, nil
	}
	if err != nil {
		return model.Worker{}, false, err
	}
	w.WorkingHours = model.WorkingHours{
		Start: model.TimeOfDay(start),
		End:   model.TimeOfDay(end),
	}
	return w, true, nil
}
