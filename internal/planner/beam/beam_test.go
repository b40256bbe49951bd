package beam

import (
	"testing"

	"github.com/forgelift/planner/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cand(id string, primary model.Muscle, score float64, sets float64) model.SelectionCandidate {
	return model.SelectionCandidate{
		Exercise: model.Exercise{ID: id, Name: id, PrimaryMuscles: []model.Muscle{primary}},
		Volume:   []model.VolumeContribution{{Muscle: primary, Direct: sets}},
		Total:    score,
	}
}

func TestRun_SelectsHighestScoringFeasibleCandidates(t *testing.T) {
	p := Params{
		Candidates:     []model.SelectionCandidate{cand("a", model.MuscleChest, 0.9, 3), cand("b", model.MuscleBack, 0.5, 3)},
		StartingVolume: model.NewVolumeState(),
		Weights:        model.DefaultScoreWeights(),
	}
	res := Run(p)
	require.Len(t, res.Selected, 2)
}

func TestRun_VolumeCeilingRejectsOverLimitCandidate(t *testing.T) {
	p := Params{
		Candidates:     []model.SelectionCandidate{cand("a", model.MuscleChest, 0.9, 20)},
		StartingVolume: model.NewVolumeState(),
		Ceilings:       map[model.Muscle]float64{model.MuscleChest: 10},
		Weights:        model.DefaultScoreWeights(),
	}
	res := Run(p)
	assert.Empty(t, res.Selected)
	require.Len(t, res.Rejections, 1)
	assert.Equal(t, model.RejectVolumeCeiling, res.Rejections[0].Reason)
}

func TestRun_DirectSetCeilingRejectsOverLimitCandidate(t *testing.T) {
	p := Params{
		Candidates:     []model.SelectionCandidate{cand("a", model.MuscleChest, 0.9, 13)},
		StartingVolume: model.NewVolumeState(),
		Weights:        model.DefaultScoreWeights(),
	}
	res := Run(p)
	assert.Empty(t, res.Selected)
	require.Len(t, res.Rejections, 1)
	assert.Equal(t, model.RejectDirectSetCeiling, res.Rejections[0].Reason)
}

func TestRun_PatternCapRejectsThirdExerciseOfSamePattern(t *testing.T) {
	mkPattern := func(id string, score float64) model.SelectionCandidate {
		c := cand(id, model.MuscleChest, score, 2)
		c.Exercise.Patterns = []model.MovementPattern{model.PatternHorizontalPush}
		return c
	}
	p := Params{
		Candidates: []model.SelectionCandidate{
			mkPattern("a", 0.9), mkPattern("b", 0.8), mkPattern("c", 0.7),
		},
		StartingVolume: model.NewVolumeState(),
		Weights:        model.DefaultScoreWeights(),
	}
	res := Run(p)
	assert.Len(t, res.Selected, 2)
	require.Len(t, res.Rejections, 1)
	assert.Equal(t, model.RejectPatternCap, res.Rejections[0].Reason)
}

func TestRun_TricepsIsolationCapAllowsOnlyOne(t *testing.T) {
	mkIso := func(id string, score float64) model.SelectionCandidate {
		c := cand(id, model.MuscleTriceps, score, 2)
		c.Exercise.Patterns = []model.MovementPattern{model.PatternIsolation}
		return c
	}
	p := Params{
		Candidates:     []model.SelectionCandidate{mkIso("a", 0.9), mkIso("b", 0.8)},
		StartingVolume: model.NewVolumeState(),
		Weights:        model.DefaultScoreWeights(),
	}
	res := Run(p)
	assert.Len(t, res.Selected, 1)
	assert.Equal(t, "a", res.Selected[0].Exercise.ID)
	require.Len(t, res.Rejections, 1)
	assert.Equal(t, model.RejectTricepsIsolationCap, res.Rejections[0].Reason)
}

func TestRun_SessionMinutesBudgetBlocksOvershoot(t *testing.T) {
	a := cand("a", model.MuscleChest, 0.9, 2)
	a.TimeMinutes = 40
	b := cand("b", model.MuscleBack, 0.8, 2)
	b.TimeMinutes = 40

	p := Params{
		Candidates:     []model.SelectionCandidate{a, b},
		StartingVolume: model.NewVolumeState(),
		SessionMinutes: 50,
		Weights:        model.DefaultScoreWeights(),
	}
	res := Run(p)
	require.Len(t, res.Selected, 1)
	assert.Equal(t, "a", res.Selected[0].Exercise.ID)
}

func TestRun_DominationFilterDropsStrictlyWorseDuplicate(t *testing.T) {
	good := cand("good", model.MuscleChest, 0.9, 3)
	good.TimeMinutes = 5
	worse := cand("worse", model.MuscleChest, 0.5, 3)
	worse.TimeMinutes = 5

	filtered := dominationFilter([]model.SelectionCandidate{good, worse})
	require.Len(t, filtered, 1)
	assert.Equal(t, "good", filtered[0].Exercise.ID)
}

func TestExpand_IncrementsFavoriteCountForUserPreferenceOne(t *testing.T) {
	favorite := cand("fav", model.MuscleChest, 0.9, 3)
	favorite.Scores.UserPreference = 1.0
	notFavorite := cand("plain", model.MuscleBack, 0.9, 3)
	notFavorite.Scores.UserPreference = 0.5

	st := newState(model.NewVolumeState())
	st = expand(st, favorite, Params{Weights: model.DefaultScoreWeights()})
	assert.Equal(t, 1, st.favoriteCount)

	st = expand(st, notFavorite, Params{Weights: model.DefaultScoreWeights()})
	assert.Equal(t, 1, st.favoriteCount, "non-favorite candidate must not bump the count")
}

func TestPrune_FavoriteCountBreaksTiesWhenScoresAreEqual(t *testing.T) {
	p := Params{Weights: model.DefaultScoreWeights()}

	plain := newState(model.NewVolumeState())
	plainCand := cand("plain", model.MuscleChest, 0.9, 3)
	plainCand.Scores.UserPreference = 0.5
	plain = expand(plain, plainCand, p)

	fav := newState(model.NewVolumeState())
	favCand := cand("fav", model.MuscleBack, 0.9, 3)
	favCand.Scores.UserPreference = 1.0
	fav = expand(fav, favCand, p)

	// Equalize score so favoriteCount is the only distinguishing tiebreaker.
	fav.score = plain.score

	kept := prune([]*state{plain, fav}, 2, 0)
	require.Len(t, kept, 2)
	assert.Equal(t, "fav", kept[0].selected[0].Exercise.ID, "higher favoriteCount must sort first on an exact score tie")
}

func TestMovementNovelty_FullyNovelWhenNothingUsedYet(t *testing.T) {
	ex := model.Exercise{Patterns: []model.MovementPattern{model.PatternSquat}}
	assert.Equal(t, 1.0, movementNovelty(ex, map[model.MovementPattern]bool{}))
}

func TestMovementNovelty_ZeroWhenPatternAlreadyUsed(t *testing.T) {
	ex := model.Exercise{Patterns: []model.MovementPattern{model.PatternSquat}}
	used := map[model.MovementPattern]bool{model.PatternSquat: true}
	assert.Equal(t, 0.0, movementNovelty(ex, used))
}
