package candidate

import (
	"testing"
	"time"

	"github.com/forgelift/planner/internal/model"
	"github.com/forgelift/planner/internal/planner/rotation"
	"github.com/forgelift/planner/internal/planner/volume"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseParams() Params {
	return Params{
		Targets: map[model.Muscle]float64{model.MuscleChest: 10},
		VolumeCtx: volume.Context{
			Current:  model.NewVolumeState(),
			Previous: model.NewVolumeState(),
		},
		Rotation: rotation.Index{},
		Weights:  model.DefaultScoreWeights(),
		Now:      time.Now(),
	}
}

func TestBuild_PainConflictTakesPrecedenceOverUserAvoided(t *testing.T) {
	p := baseParams()
	p.Library = []model.Exercise{{ID: "bench", PrimaryMuscles: []model.Muscle{model.MuscleChest}}}
	p.User.Preferences.PainConflictIDs = map[string]bool{"bench": true}
	p.User.Preferences.AvoidIDs = map[string]bool{"bench": true}

	res := Build(p)
	require.Len(t, res.Rejections, 1)
	assert.Equal(t, model.RejectPainConflict, res.Rejections[0].Reason)
	assert.Empty(t, res.Candidates)
}

func TestBuild_UserAvoidedRejectsWithoutPainConflict(t *testing.T) {
	p := baseParams()
	p.Library = []model.Exercise{{ID: "bench", PrimaryMuscles: []model.Muscle{model.MuscleChest}}}
	p.User.Preferences.AvoidIDs = map[string]bool{"bench": true}

	res := Build(p)
	require.Len(t, res.Rejections, 1)
	assert.Equal(t, model.RejectUserAvoided, res.Rejections[0].Reason)
}

func TestBuild_UnavailableEquipmentExcludesSilently(t *testing.T) {
	p := baseParams()
	p.Library = []model.Exercise{{ID: "bb-bench", PrimaryMuscles: []model.Muscle{model.MuscleChest}, Equipment: []string{"barbell"}}}
	p.User.Constraints.AvailableEquipment = []string{"dumbbell"}

	res := Build(p)
	assert.Empty(t, res.Candidates)
	assert.Empty(t, res.Rejections)
}

func TestBuild_EmptyAvailableEquipmentMeansUnconstrained(t *testing.T) {
	p := baseParams()
	p.Library = []model.Exercise{{ID: "bb-bench", PrimaryMuscles: []model.Muscle{model.MuscleChest}, Equipment: []string{"barbell"}}}

	res := Build(p)
	require.Len(t, res.Candidates, 1)
}

func TestProposedSets_ScalesWithDeficitAndClamps(t *testing.T) {
	p := baseParams()
	p.Targets = map[model.Muscle]float64{model.MuscleChest: 20}
	ex := model.Exercise{ID: "bench", PrimaryMuscles: []model.Muscle{model.MuscleChest}}
	sets := proposedSets(ex, p, map[model.Muscle]bool{})
	assert.Equal(t, maxProposedSetsDefault, sets)
}

func TestProposedSets_FloorsToContinuityFloorWhenRequired(t *testing.T) {
	p := baseParams()
	p.Targets = map[model.Muscle]float64{model.MuscleChest: 0}
	ex := model.Exercise{ID: "bench", PrimaryMuscles: []model.Muscle{model.MuscleChest}}
	sets := proposedSets(ex, p, map[model.Muscle]bool{model.MuscleChest: true})
	assert.Equal(t, continuityFloorSets, sets)
}

func TestProposedSets_RespectsContinuityMinimum(t *testing.T) {
	p := baseParams()
	p.Targets = map[model.Muscle]float64{model.MuscleChest: 0}
	p.ContinuityMinimums = map[string]int{"bench": 6}
	ex := model.Exercise{ID: "bench", PrimaryMuscles: []model.Muscle{model.MuscleChest}}
	sets := proposedSets(ex, p, map[model.Muscle]bool{})
	assert.Equal(t, 6, sets)
}

func TestDeficitFillScore_FullWhenNoTargetSet(t *testing.T) {
	p := baseParams()
	p.Targets = map[model.Muscle]float64{}
	ex := model.Exercise{ID: "curl", PrimaryMuscles: []model.Muscle{model.MuscleBiceps}}
	score := deficitFillScore(ex, nil, p)
	assert.Equal(t, 1.0, score)
}

func TestRotationNoveltyScore_UnknownExerciseIsMaximallyNovel(t *testing.T) {
	p := baseParams()
	ex := model.Exercise{Name: "unknown lift"}
	assert.Equal(t, 1.0, rotationNoveltyScore(ex, p))
}

func TestRotationNoveltyScore_CapsAtOneAfterThreeWeeks(t *testing.T) {
	p := baseParams()
	p.Rotation = rotation.Index{"bench press": rotation.Entry{WeeksSinceLastUse: 10}}
	ex := model.Exercise{Name: "bench press"}
	assert.Equal(t, 1.0, rotationNoveltyScore(ex, p))
}

func TestSFRScore_DefaultsWhenMissing(t *testing.T) {
	assert.Equal(t, 0.6, sfrScore(model.Exercise{}))
}

func TestUserPreferenceScore_FavoriteAvoidNeutral(t *testing.T) {
	user := model.UserContext{Preferences: model.Preferences{
		FavoriteIDs: map[string]bool{"a": true},
		AvoidIDs:    map[string]bool{"b": true},
	}}
	assert.Equal(t, 1.0, userPreferenceScore(model.Exercise{ID: "a"}, user))
	assert.Equal(t, 0.0, userPreferenceScore(model.Exercise{ID: "b"}, user))
	assert.Equal(t, 0.5, userPreferenceScore(model.Exercise{ID: "c"}, user))
}

func TestTimeContribution_MainLiftAddsWarmupMinutes(t *testing.T) {
	ex := model.Exercise{TimePerSetSeconds: 45, MainLiftEligible: true}
	withWarmup := timeContribution(ex, 3, nil)
	withoutWarmup := timeContribution(model.Exercise{TimePerSetSeconds: 45}, 3, nil)
	assert.Greater(t, withWarmup, withoutWarmup)
}

func TestRestSecondsFor_VariesByPhase(t *testing.T) {
	assert.Equal(t, float64(restSecondsDeload), restSecondsFor(&model.BlockContext{Phase: model.PhaseDeload}))
	assert.Equal(t, float64(restSecondsRealization), restSecondsFor(&model.BlockContext{Phase: model.PhaseRealization}))
	assert.Equal(t, float64(restSecondsDefault), restSecondsFor(nil))
}
