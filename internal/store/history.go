package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/forgelift/planner/internal/model"
)

// HistoryStore persists workout history entries and their set logs.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore wraps db for workout history access.
func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Append inserts one completed/skipped/etc. history entry along with its
// per-exercise set logs, inside a single transaction.
func (s *HistoryStore) Append(ctx context.Context, entry model.WorkoutHistoryEntry) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var intentSplit sql.NullString
	if entry.Intent != nil {
		intentSplit = sql.NullString{String: string(entry.Intent.Split), Valid: true}
	}
	var selectionMode sql.NullString
	if entry.SelectionMode != nil {
		selectionMode = sql.NullString{String: string(*entry.SelectionMode), Valid: true}
	}
	var phase sql.NullString
	if entry.Phase != nil {
		phase = sql.NullString{String: string(*entry.Phase), Valid: true}
	}
	var readiness sql.NullInt64
	if entry.Readiness != nil {
		readiness = sql.NullInt64{Int64: int64(*entry.Readiness), Valid: true}
	}
	var week sql.NullInt64
	if entry.Week != nil {
		week = sql.NullInt64{Int64: int64(*entry.Week), Valid: true}
	}
	var advancesSplit sql.NullInt64
	if entry.AdvancesSplit != nil {
		advancesSplit = sql.NullInt64{Int64: int64(boolToInt(*entry.AdvancesSplit)), Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO workout_history_entries (date, status, readiness, intent_split, selection_mode, phase, week, advances_split)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.Date.UTC().Format(time.RFC3339), string(entry.Status), readiness, intentSplit, selectionMode, phase, week, advancesSplit)
	if err != nil {
		return 0, fmt.Errorf("insert history entry: %w", err)
	}
	entryID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	for _, ex := range entry.Exercises {
		primary, marshalErr := json.Marshal(ex.PrimaryMuscles)
		if marshalErr != nil {
			return 0, fmt.Errorf("marshal primary muscles: %w", marshalErr)
		}
		patterns, marshalErr := json.Marshal(ex.Patterns)
		if marshalErr != nil {
			return 0, fmt.Errorf("marshal patterns: %w", marshalErr)
		}

		res, err = tx.ExecContext(ctx, `
			INSERT INTO history_exercises (history_entry_id, exercise_id, exercise_name, primary_muscles, patterns)
			VALUES (?, ?, ?, ?, ?)
		`, entryID, ex.ExerciseID, ex.ExerciseName, string(primary), string(patterns))
		if err != nil {
			return 0, fmt.Errorf("insert history exercise: %w", err)
		}
		historyExerciseID, idErr := res.LastInsertId()
		if idErr != nil {
			return 0, fmt.Errorf("last insert id: %w", idErr)
		}

		for i, set := range ex.Sets {
			var rpe, load sql.NullFloat64
			if set.RPE != nil {
				rpe = sql.NullFloat64{Float64: *set.RPE, Valid: true}
			}
			if set.Load != nil {
				load = sql.NullFloat64{Float64: *set.Load, Valid: true}
			}
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO set_logs (history_exercise_id, set_index, reps, rpe, load)
				VALUES (?, ?, ?, ?, ?)
			`, historyExerciseID, i, set.Reps, rpe, load); err != nil {
				return 0, fmt.Errorf("insert set log: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return entryID, nil
}

// ListSince returns history entries on or after since, ordered oldest first,
// for feeding into the planner.
func (s *HistoryStore) ListSince(ctx context.Context, since time.Time) ([]model.WorkoutHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, status, readiness, intent_split, selection_mode, phase, week, advances_split
		FROM workout_history_entries WHERE date >= ? ORDER BY date ASC
	`, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("list history entries: %w", err)
	}
	defer rows.Close()

	var entries []model.WorkoutHistoryEntry
	var ids []int64
	for rows.Next() {
		var (
			id                                            int64
			dateStr, status                                string
			readiness, week, advancesSplit                sql.NullInt64
			intentSplit, selectionMode, phase              sql.NullString
		)
		if err := rows.Scan(&id, &dateStr, &status, &readiness, &intentSplit, &selectionMode, &phase, &week, &advancesSplit); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		date, err := time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse date: %w", err)
		}
		entry := model.WorkoutHistoryEntry{Date: date, Status: model.SessionStatus(status)}
		if readiness.Valid {
			v := int(readiness.Int64)
			entry.Readiness = &v
		}
		if intentSplit.Valid {
			entry.Intent = &model.Intent{Split: model.SplitTag(intentSplit.String)}
		}
		if selectionMode.Valid {
			v := model.SelectionMode(selectionMode.String)
			entry.SelectionMode = &v
		}
		if phase.Valid {
			v := model.MesocyclePhase(phase.String)
			entry.Phase = &v
		}
		if week.Valid {
			v := int(week.Int64)
			entry.Week = &v
		}
		if advancesSplit.Valid {
			v := advancesSplit.Int64 != 0
			entry.AdvancesSplit = &v
		}
		entries = append(entries, entry)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history entries: %w", err)
	}

	for i, id := range ids {
		exercises, err := s.loadExercises(ctx, id)
		if err != nil {
			return nil, err
		}
		entries[i].Exercises = exercises
	}
	return entries, nil
}

func (s *HistoryStore) loadExercises(ctx context.Context, historyEntryID int64) ([]model.HistoryExercise, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, exercise_id, exercise_name, primary_muscles, patterns
		FROM history_exercises WHERE history_entry_id = ? ORDER BY id
	`, historyEntryID)
	if err != nil {
		return nil, fmt.Errorf("list history exercises: %w", err)
	}
	defer rows.Close()

	var out []model.HistoryExercise
	var ids []int64
	for rows.Next() {
		var (
			id                      int64
			primaryJSON, patternsJSON string
			ex                      model.HistoryExercise
		)
		if err := rows.Scan(&id, &ex.ExerciseID, &ex.ExerciseName, &primaryJSON, &patternsJSON); err != nil {
			return nil, fmt.Errorf("scan history exercise: %w", err)
		}
		if err := json.Unmarshal([]byte(primaryJSON), &ex.PrimaryMuscles); err != nil {
			return nil, fmt.Errorf("unmarshal primary muscles: %w", err)
		}
		if err := json.Unmarshal([]byte(patternsJSON), &ex.Patterns); err != nil {
			return nil, fmt.Errorf("unmarshal patterns: %w", err)
		}
		out = append(out, ex)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history exercises: %w", err)
	}

	for i, id := range ids {
		sets, err := s.loadSets(ctx, id)
		if err != nil {
			return nil, err
		}
		out[i].Sets = sets
	}
	return out, nil
}

func (s *HistoryStore) loadSets(ctx context.Context, historyExerciseID int64) ([]model.SetLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT set_index, reps, rpe, load FROM set_logs
		WHERE history_exercise_id = ? ORDER BY set_index
	`, historyExerciseID)
	if err != nil {
		return nil, fmt.Errorf("list set logs: %w", err)
	}
	defer rows.Close()

	var sets []model.SetLog
	for rows.Next() {
		var set model.SetLog
		var rpe, load sql.NullFloat64
		if err := rows.Scan(&set.SetIndex, &set.Reps, &rpe, &load); err != nil {
			return nil, fmt.Errorf("scan set log: %w", err)
		}
		if rpe.Valid {
			v := rpe.Float64
			set.RPE = &v
		}
		if load.Valid {
			v := load.Float64
			set.Load = &v
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list set logs: %w", err)
	}
	return sets, nil
}
