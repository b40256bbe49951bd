package split

import (
	"testing"
	"time"

	"github.com/forgelift/planner/internal/model"
	"github.com/stretchr/testify/assert"
)

func completedEntry(date time.Time, muscles ...model.Muscle) model.WorkoutHistoryEntry {
	return model.WorkoutHistoryEntry{
		Date:   date,
		Status: model.StatusCompleted,
		Exercises: []model.HistoryExercise{
			{PrimaryMuscles: muscles},
		},
	}
}

func TestClassify_PicksSplitWithMostMuscleHits(t *testing.T) {
	entry := model.WorkoutHistoryEntry{
		Status: model.StatusCompleted,
		Exercises: []model.HistoryExercise{
			{PrimaryMuscles: []model.Muscle{model.MuscleChest, model.MuscleTriceps}},
			{PrimaryMuscles: []model.Muscle{model.MuscleBack}},
		},
	}
	assert.Equal(t, model.SplitPush, Classify(entry))
}

func TestClassify_TiesBreakByIterationOrder(t *testing.T) {
	entry := model.WorkoutHistoryEntry{
		Status: model.StatusCompleted,
		Exercises: []model.HistoryExercise{
			{PrimaryMuscles: []model.Muscle{model.MuscleChest}},
			{PrimaryMuscles: []model.Muscle{model.MuscleBack}},
		},
	}
	assert.Equal(t, model.SplitPush, Classify(entry))
}

func TestAdvancesSplit_DefaultsByStatus(t *testing.T) {
	completed := model.WorkoutHistoryEntry{Status: model.StatusCompleted}
	skipped := model.WorkoutHistoryEntry{Status: model.StatusSkipped}
	assert.True(t, AdvancesSplit(completed))
	assert.False(t, AdvancesSplit(skipped))
}

func TestAdvancesSplit_ExplicitFlagWins(t *testing.T) {
	no := false
	entry := model.WorkoutHistoryEntry{Status: model.StatusCompleted, AdvancesSplit: &no}
	assert.False(t, AdvancesSplit(entry))
}

func TestDeriveNextPPL_PrefersAbsentSplit(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	history := []model.WorkoutHistoryEntry{
		completedEntry(now.AddDate(0, 0, -1), model.MuscleChest, model.MuscleTriceps),
		completedEntry(now.AddDate(0, 0, -2), model.MuscleBack, model.MuscleLats),
	}
	assert.Equal(t, model.SplitLegs, DeriveNextPPL(history, now))
}

func TestDeriveNextPPL_LeastRecentlyTrainedWhenAllPresent(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	history := []model.WorkoutHistoryEntry{
		completedEntry(now.AddDate(0, 0, -1), model.MuscleBack),
		completedEntry(now.AddDate(0, 0, -2), model.MuscleQuads),
		completedEntry(now.AddDate(0, 0, -3), model.MuscleChest),
	}
	assert.Equal(t, model.SplitPush, DeriveNextPPL(history, now))
}

func TestDeriveNextPPL_SkippedEntriesDoNotCountByDefault(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	skippedPull := completedEntry(now.AddDate(0, 0, -1), model.MuscleBack)
	skippedPull.Status = model.StatusSkipped
	history := []model.WorkoutHistoryEntry{
		skippedPull,
		completedEntry(now.AddDate(0, 0, -2), model.MuscleChest),
		completedEntry(now.AddDate(0, 0, -3), model.MuscleQuads),
	}
	// pull is absent from the advancing window, so it should be preferred
	// even though a skipped pull session exists.
	assert.Equal(t, model.SplitPull, DeriveNextPPL(history, now))
}

func TestQueueFor_UpperLowerAlternates(t *testing.T) {
	q := QueueFor(model.SystemUpperLower)
	assert.Equal(t, model.SplitUpper, q.NextByDayIndex(0))
	assert.Equal(t, model.SplitLower, q.NextByDayIndex(1))
	assert.Equal(t, model.SplitUpper, q.NextByDayIndex(2))
}

func TestQueueFor_FullBodyIsSingleEntryQueue(t *testing.T) {
	q := QueueFor(model.SystemFullBody)
	assert.Equal(t, model.SplitFullBody, q.NextByDayIndex(0))
	assert.Equal(t, model.SplitFullBody, q.NextByDayIndex(5))
}

func TestDeriveNextIntent_DispatchesBySystem(t *testing.T) {
	now := time.Now()
	intent := DeriveNextIntent(nil, model.SystemUpperLower, 3, now)
	assert.Equal(t, model.SplitLower, intent.Split)
}
