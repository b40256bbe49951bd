package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/forgelift/planner/internal/planner/rotation"
)

// RotationStore caches a rotation.Index for read access outside of a Plan
// call (dashboards, exports). It never feeds Plan directly — the core
// always rebuilds the index from history at call time.
type RotationStore struct {
	db *sql.DB
}

// NewRotationStore wraps db for rotation-index cache access.
func NewRotationStore(db *sql.DB) *RotationStore {
	return &RotationStore{db: db}
}

// Replace overwrites the cached index with idx.
func (s *RotationStore) Replace(ctx context.Context, idx rotation.Index) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rotation_index`); err != nil {
		return fmt.Errorf("clear rotation index: %w", err)
	}

	for name, entry := range idx {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rotation_index (exercise_name, last_used, weeks_since_last_use, total_usage_count, trend)
			VALUES (?, ?, ?, ?, ?)
		`, name, entry.LastUsed.UTC().Format(time.RFC3339), entry.WeeksSinceLastUse, entry.TotalUsageCount, string(entry.Trend)); err != nil {
			return fmt.Errorf("insert rotation entry %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Load reads the cached index back.
func (s *RotationStore) Load(ctx context.Context) (rotation.Index, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT exercise_name, last_used, weeks_since_last_use, total_usage_count, trend FROM rotation_index`)
	if err != nil {
		return nil, fmt.Errorf("load rotation index: %w", err)
	}
	defer rows.Close()

	idx := make(rotation.Index)
	for rows.Next() {
		var (
			name, lastUsedStr, trend string
			weeksSince               float64
			totalUsage               int
		)
		if err := rows.Scan(&name, &lastUsedStr, &weeksSince, &totalUsage, &trend); err != nil {
			return nil, fmt.Errorf("scan rotation entry: %w", err)
		}
		lastUsed, err := time.Parse(time.RFC3339, lastUsedStr)
		if err != nil {
			return nil, fmt.Errorf("parse last_used: %w", err)
		}
		idx[name] = rotation.Entry{
			LastUsed:          lastUsed,
			WeeksSinceLastUse: weeksSince,
			TotalUsageCount:   totalUsage,
			Trend:             rotation.Trend(trend),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load rotation index: %w", err)
	}
	return idx, nil
}
