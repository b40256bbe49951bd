package assembly

import (
	"testing"

	"github.com/forgelift/planner/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planned(id string, primaryCount int, isolation bool) model.PlannedExercise {
	ex := model.Exercise{ID: id, Name: id}
	for i := 0; i < primaryCount; i++ {
		ex.PrimaryMuscles = append(ex.PrimaryMuscles, model.Muscle(id+string(rune('a'+i))))
	}
	if isolation {
		ex.Patterns = []model.MovementPattern{model.PatternIsolation}
	}
	return model.PlannedExercise{Exercise: ex}
}

func fixedEstimate(minutes float64) TimeEstimator {
	return func(model.PlannedExercise) float64 { return minutes }
}

func TestAssemble_OrdersMainLiftsByDescendingRequiredMuscleOverlap(t *testing.T) {
	chestOnly := model.PlannedExercise{Exercise: model.Exercise{ID: "chest-only", Name: "chest-only", PrimaryMuscles: []model.Muscle{model.MuscleChest}}}
	chestAndBack := model.PlannedExercise{Exercise: model.Exercise{ID: "chest-and-back", Name: "chest-and-back", PrimaryMuscles: []model.Muscle{model.MuscleChest, model.MuscleBack}}}

	out := Assemble(Params{
		MainLifts:       []model.PlannedExercise{chestOnly, chestAndBack},
		RequiredMuscles: []model.Muscle{model.MuscleChest, model.MuscleBack},
		Estimate:        fixedEstimate(10),
	})
	require.Len(t, out.MainLifts, 2)
	assert.Equal(t, "chest-and-back", out.MainLifts[0].Exercise.ID)
}

func TestAssemble_MainLiftRankingIgnoresNonRequiredPrimaryMuscles(t *testing.T) {
	// "wide" has more total primary muscles but covers only one required
	// muscle; "focused" covers both required muscles with fewer total.
	wide := model.PlannedExercise{Exercise: model.Exercise{ID: "wide", Name: "wide", PrimaryMuscles: []model.Muscle{model.MuscleChest, model.MuscleTriceps, model.MuscleFrontDelts}}}
	focused := model.PlannedExercise{Exercise: model.Exercise{ID: "focused", Name: "focused", PrimaryMuscles: []model.Muscle{model.MuscleChest, model.MuscleBack}}}

	out := Assemble(Params{
		MainLifts:       []model.PlannedExercise{wide, focused},
		RequiredMuscles: []model.Muscle{model.MuscleChest, model.MuscleBack},
		Estimate:        fixedEstimate(10),
	})
	require.Len(t, out.MainLifts, 2)
	assert.Equal(t, "focused", out.MainLifts[0].Exercise.ID)
}

func TestAssemble_AccessoriesPutIsolationLast(t *testing.T) {
	out := Assemble(Params{
		Accessories: []model.PlannedExercise{planned("iso", 1, true), planned("compound-ish", 2, false)},
		Estimate:    fixedEstimate(10),
	})
	require.Len(t, out.Accessories, 2)
	assert.Equal(t, "compound-ish", out.Accessories[0].Exercise.ID)
	assert.Equal(t, "iso", out.Accessories[1].Exercise.ID)
}

func TestAssemble_TrimsAccessoriesToFitBudget(t *testing.T) {
	out := Assemble(Params{
		MainLifts:      []model.PlannedExercise{planned("squat", 2, false)},
		Accessories:    []model.PlannedExercise{planned("leg-ext", 1, true), planned("curl", 1, true)},
		SessionMinutes: 25,
		MinExercises:   1,
		Estimate:       fixedEstimate(10),
	})
	assert.LessOrEqual(t, out.EstimatedMinutes, 25.0)
	assert.Len(t, out.Trimmed, 1)
}

func TestAssemble_NeverTrimsBelowMinExercises(t *testing.T) {
	out := Assemble(Params{
		MainLifts:      []model.PlannedExercise{planned("squat", 2, false)},
		Accessories:    []model.PlannedExercise{planned("leg-ext", 1, true)},
		SessionMinutes: 5,
		MinExercises:   2,
		Estimate:       fixedEstimate(10),
	})
	assert.False(t, out.ConstraintsSatisfied)
	assert.Len(t, out.Accessories, 1)
}

func TestAssemble_UnboundedSessionMinutesNeverTrims(t *testing.T) {
	out := Assemble(Params{
		Accessories: []model.PlannedExercise{planned("a", 1, true), planned("b", 1, true)},
		Estimate:    fixedEstimate(100),
	})
	assert.True(t, out.ConstraintsSatisfied)
	assert.Empty(t, out.Trimmed)
}
