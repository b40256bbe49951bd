package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/forgelift/planner/internal/model"
)

// ExerciseStore persists the exercise library.
type ExerciseStore struct {
	db *sql.DB
}

// NewExerciseStore wraps db for exercise library access.
func NewExerciseStore(db *sql.DB) *ExerciseStore {
	return &ExerciseStore{db: db}
}

// Upsert inserts or replaces an exercise definition.
func (s *ExerciseStore) Upsert(ctx context.Context, e model.Exercise) error {
	primary, err := json.Marshal(e.PrimaryMuscles)
	if err != nil {
		return fmt.Errorf("marshal primary muscles: %w", err)
	}
	secondary, err := json.Marshal(e.SecondaryMuscles)
	if err != nil {
		return fmt.Errorf("marshal secondary muscles: %w", err)
	}
	patterns, err := json.Marshal(e.Patterns)
	if err != nil {
		return fmt.Errorf("marshal patterns: %w", err)
	}
	splitTags, err := json.Marshal(e.SplitTags)
	if err != nil {
		return fmt.Errorf("marshal split tags: %w", err)
	}
	equipment, err := json.Marshal(e.Equipment)
	if err != nil {
		return fmt.Errorf("marshal equipment: %w", err)
	}
	sraHours, err := json.Marshal(e.SRAHours)
	if err != nil {
		return fmt.Errorf("marshal sra hours: %w", err)
	}
	contraindications, err := json.Marshal(e.Contraindications)
	if err != nil {
		return fmt.Errorf("marshal contraindications: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exercises (
			id, name, primary_muscles, secondary_muscles, patterns, split_tags,
			joint_stress, equipment, rep_range_min, rep_range_max, compound,
			main_lift_eligible, fatigue_cost, sfr_score, length_position,
			time_per_set_seconds, sra_hours, contraindications, plate_increment,
			bodyweight_only
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			primary_muscles = excluded.primary_muscles,
			secondary_muscles = excluded.secondary_muscles,
			patterns = excluded.patterns,
			split_tags = excluded.split_tags,
			joint_stress = excluded.joint_stress,
			equipment = excluded.equipment,
			rep_range_min = excluded.rep_range_min,
			rep_range_max = excluded.rep_range_max,
			compound = excluded.compound,
			main_lift_eligible = excluded.main_lift_eligible,
			fatigue_cost = excluded.fatigue_cost,
			sfr_score = excluded.sfr_score,
			length_position = excluded.length_position,
			time_per_set_seconds = excluded.time_per_set_seconds,
			sra_hours = excluded.sra_hours,
			contraindications = excluded.contraindications,
			plate_increment = excluded.plate_increment,
			bodyweight_only = excluded.bodyweight_only
	`,
		e.ID, e.Name, string(primary), string(secondary), string(patterns), string(splitTags),
		string(e.JointStress), string(equipment), e.RepRangeMin, e.RepRangeMax, boolToInt(e.Compound),
		boolToInt(e.MainLiftEligible), e.FatigueCost, e.SFRScore, e.LengthPosition,
		e.TimePerSetSeconds, string(sraHours), string(contraindications), e.PlateIncrement,
		boolToInt(e.BodyweightOnly),
	)
	if err != nil {
		return fmt.Errorf("upsert exercise %s: %w", e.ID, err)
	}
	return nil
}

// List returns every exercise in the library, ordered by id.
func (s *ExerciseStore) List(ctx context.Context) ([]model.Exercise, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, primary_muscles, secondary_muscles, patterns, split_tags,
			joint_stress, equipment, rep_range_min, rep_range_max, compound,
			main_lift_eligible, fatigue_cost, sfr_score, length_position,
			time_per_set_seconds, sra_hours, contraindications, plate_increment,
			bodyweight_only
		FROM exercises ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	var out []model.Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return out, nil
}

// GetByID returns a single exercise, or (zero, false, nil) if absent.
func (s *ExerciseStore) GetByID(ctx context.Context, id string) (model.Exercise, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, primary_muscles, secondary_muscles, patterns, split_tags,
			joint_stress, equipment, rep_range_min, rep_range_max, compound,
			main_lift_eligible, fatigue_cost, sfr_score, length_position,
			time_per_set_seconds, sra_hours, contraindications, plate_increment,
			bodyweight_only
		FROM exercises WHERE id = ?
	`, id)
	e, err := scanExercise(row)
	if err == sql.ErrNoRows {
		return model.Exercise{}, false, nil
	}
	if err != nil {
		return model.Exercise{}, false, fmt.Errorf("get exercise %s: %w", id, err)
	}
	return e, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExercise(row rowScanner) (model.Exercise, error) {
	var (
		e                              model.Exercise
		primary, secondary, patterns   string
		splitTags, equipment           string
		sraHours, contraindications    string
		compound, mainLiftEligible     int
		bodyweightOnly                 int
		jointStress                    string
	)
	if err := row.Scan(
		&e.ID, &e.Name, &primary, &secondary, &patterns, &splitTags,
		&jointStress, &equipment, &e.RepRangeMin, &e.RepRangeMax, &compound,
		&mainLiftEligible, &e.FatigueCost, &e.SFRScore, &e.LengthPosition,
		&e.TimePerSetSeconds, &sraHours, &contraindications, &e.PlateIncrement,
		&bodyweightOnly,
	); err != nil {
		return model.Exercise{}, err
	}

	e.JointStress = model.JointStress(jointStress)
	e.Compound = compound != 0
	e.MainLiftEligible = mainLiftEligible != 0
	e.BodyweightOnly = bodyweightOnly != 0

	if err := json.Unmarshal([]byte(primary), &e.PrimaryMuscles); err != nil {
		return model.Exercise{}, fmt.Errorf("unmarshal primary muscles: %w", err)
	}
	if err := json.Unmarshal([]byte(secondary), &e.SecondaryMuscles); err != nil {
		return model.Exercise{}, fmt.Errorf("unmarshal secondary muscles: %w", err)
	}
	if err := json.Unmarshal([]byte(patterns), &e.Patterns); err != nil {
		return model.Exercise{}, fmt.Errorf("unmarshal patterns: %w", err)
	}
	if err := json.Unmarshal([]byte(splitTags), &e.SplitTags); err != nil {
		return model.Exercise{}, fmt.Errorf("unmarshal split tags: %w", err)
	}
	if err := json.Unmarshal([]byte(equipment), &e.Equipment); err != nil {
		return model.Exercise{}, fmt.Errorf("unmarshal equipment: %w", err)
	}
	if err := json.Unmarshal([]byte(sraHours), &e.SRAHours); err != nil {
		return model.Exercise{}, fmt.Errorf("unmarshal sra hours: %w", err)
	}
	if err := json.Unmarshal([]byte(contraindications), &e.Contraindications); err != nil {
		return model.Exercise{}, fmt.Errorf("unmarshal contraindications: %w", err)
	}
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
