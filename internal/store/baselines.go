package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/forgelift/planner/internal/model"
)

// BaselineStore persists per-exercise baseline load estimates.
type BaselineStore struct {
	db *sql.DB
}

// NewBaselineStore wraps db for baseline access.
func NewBaselineStore(db *sql.DB) *BaselineStore {
	return &BaselineStore{db: db}
}

// Upsert records or replaces a baseline value for one exercise/context pair.
func (s *BaselineStore) Upsert(ctx context.Context, b model.Baseline) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO baselines (exercise_id, context, value) VALUES (?, ?, ?)
		ON CONFLICT(exercise_id, context) DO UPDATE SET value = excluded.value
	`, b.ExerciseID, string(b.Context), b.Value)
	if err != nil {
		return fmt.Errorf("upsert baseline %s/%s: %w", b.ExerciseID, b.Context, err)
	}
	return nil
}

// List returns every stored baseline.
func (s *BaselineStore) List(ctx context.Context) ([]model.Baseline, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT exercise_id, context, value FROM baselines ORDER BY exercise_id`)
	if err != nil {
		return nil, fmt.Errorf("list baselines: %w", err)
	}
	defer rows.Close()

	var out []model.Baseline
	for rows.Next() {
		var b model.Baseline
		var context string
		if err := rows.Scan(&b.ExerciseID, &context, &b.Value); err != nil {
			return nil, fmt.Errorf("scan baseline: %w", err)
		}
		b.Context = model.BaselineContextTag(context)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list baselines: %w", err)
	}
	return out, nil
}
