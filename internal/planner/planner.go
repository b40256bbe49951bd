// Package planner wires the ten pipeline stages — volume accounting,
// rotation indexing, split classification, candidate scoring, beam search
// selection, stretch upgrades, prescription, load assignment, warmup
// generation, and session assembly — into the single Plan entry point.
package planner

import (
	"context"
	"time"

	"go.uber.org/multierr"

	"github.com/forgelift/planner/internal/model"
	"github.com/forgelift/planner/internal/planner/assembly"
	"github.com/forgelift/planner/internal/planner/beam"
	"github.com/forgelift/planner/internal/planner/candidate"
	"github.com/forgelift/planner/internal/planner/errdefs"
	"github.com/forgelift/planner/internal/planner/load"
	"github.com/forgelift/planner/internal/planner/prescription"
	"github.com/forgelift/planner/internal/planner/rotation"
	"github.com/forgelift/planner/internal/planner/split"
	"github.com/forgelift/planner/internal/planner/stretch"
	"github.com/forgelift/planner/internal/planner/volume"
	"github.com/forgelift/planner/internal/planner/warmup"
)

// Plan runs the full session-planning pipeline. intent may be nil, in which
// case the next session's focus is derived from history and the user's
// split system. seed only matters when every candidate ties on total score
// (a cold-start library with no differentiating history): it deterministically
// reorders the tied pool instead of leaving tie order to map/slice iteration
// accidents. A zero seed always yields input order.
func Plan(ctx context.Context, library []model.Exercise, user model.UserContext, history []model.WorkoutHistoryEntry, baselines []model.Baseline, intent *model.Intent, seed int64, cfg ...Config) (model.SessionPlan, error) {
	if err := ctx.Err(); err != nil {
		return model.SessionPlan{}, err
	}

	c := DefaultConfig()
	if len(cfg) > 0 {
		c = cfg[0]
	}
	c = c.WithDefaults()

	now := time.Now()
	var combinedErr error

	resolvedIntent := resolveIntent(intent, history, user, now)
	requiredMuscles := requiredMusclesFor(resolvedIntent)

	volCtx := volume.Build(history, library, now)
	rotIdx := rotation.Build(history, now)

	targets, ceilings := volumeLandmarks(library, user, c)
	for m := range ceilings {
		if _, ok := targets[m]; !ok {
			combinedErr = multierr.Append(combinedErr, errdefs.InconsistentInput)
		}
	}

	continuity := continuityMinimums(history, now)

	candParams := candidate.Params{
		Library:            library,
		User:               user,
		VolumeCtx:          volCtx,
		Targets:            targets,
		Rotation:           rotIdx,
		RequiredMuscles:    requiredMuscles,
		ContinuityMinimums: continuity,
		Weights:            c.Weights,
		Block:              user.Block,
		Now:                now,
	}
	candResult := candidate.Build(candParams)

	pool := candResult.Candidates
	if seed != 0 && allScoresTied(pool) {
		pool = deterministicShuffle(pool, seed)
	}

	if len(pool) == 0 {
		combinedErr = multierr.Append(combinedErr, errdefs.EmptyFeasiblePool)
	}

	sessionMinutes := float64(user.Constraints.SessionMinutes)
	beamCeilings := map[model.Muscle]float64{}
	if c.UseEffectiveVolumeCaps {
		beamCeilings = ceilings
	}

	beamResult := beam.Run(beam.Params{
		Candidates:      pool,
		StartingVolume:  volCtx.Current,
		Ceilings:        beamCeilings,
		SessionMinutes:  sessionMinutes,
		RequiredMuscles: requiredMuscles,
		Weights:         c.Weights,
		BeamWidth:       c.BeamWidth,
		MaxDepth:        c.MaxDepth,
		Epsilon:         c.TieBreakerEpsilon,
	})

	selected := beamResult.Selected
	rationale := make([]model.RationaleEntry, 0, len(selected))

	selected, stretched := stretch.Upgrade(selected, pool)
	rationale = append(rationale, stretched...)

	historyByExercise := groupHistoryByExercise(history)
	donorExercises, donorHistory := buildDonorIndex(library, historyByExercise)

	mainLifts, accessories, loadRationale := prescribeAndLoad(selected, user, historyByExercise, baselines, donorExercises, donorHistory, volCtx.Fatigue, resolvedIntent, c)
	rationale = append(rationale, loadRationale...)

	warmupExercises := buildWarmup(mainLifts, user.Profile.TrainingAge)

	asmOut := assembly.Assemble(assembly.Params{
		Warmup:          warmupExercises,
		MainLifts:       mainLifts,
		Accessories:     accessories,
		SessionMinutes:  sessionMinutes,
		MinExercises:    c.MinExercises,
		RequiredMuscles: requiredMuscles,
		Estimate:        estimateMinutes,
	})

	finalVolume := model.NewVolumeState()
	for k, v := range volCtx.Current.WeeklyDirect {
		finalVolume.WeeklyDirect[k] = v
	}
	for k, v := range volCtx.Current.WeeklyEffective {
		finalVolume.WeeklyEffective[k] = v
	}
	for _, cand := range selected {
		for _, v := range cand.Volume {
			finalVolume.Add(v.Muscle, v.Direct, v.Indirect)
		}
	}

	remaining := map[model.Muscle]float64{}
	for m, target := range targets {
		d := target - finalVolume.WeeklyEffective[m]
		if d < 0 {
			d = 0
		}
		remaining[m] = d
	}

	rejections := append([]model.Rejection{}, candResult.Rejections...)
	rejections = append(rejections, beamResult.Rejections...)
	for _, trimmed := range asmOut.Trimmed {
		rejections = append(rejections, model.Rejection{ExerciseID: trimmed.Exercise.ID, Reason: model.RejectStructureConstraint, Detail: "trimmed to fit session time budget"})
	}

	var notes string
	if combinedErr != nil {
		// Input inconsistencies and an empty feasible pool are not fatal:
		// the pipeline still returns its best-effort plan, noting what it
		// had to work around instead of failing the caller's request.
		notes = combinedErr.Error()
	}

	plan := model.SessionPlan{
		ScheduledDate:        now,
		Warmup:               asmOut.Warmup,
		MainLifts:            asmOut.MainLifts,
		Accessories:          asmOut.Accessories,
		EstimatedMinutes:     asmOut.EstimatedMinutes,
		Notes:                notes,
		Intent:               resolvedIntent,
		ConstraintsSatisfied: asmOut.ConstraintsSatisfied,
		Rationale:            rationale,
		Rejections:           rejections,
		FilledVolume:         finalVolume,
		RemainingDeficit:     remaining,
	}

	return plan, nil
}

func resolveIntent(intent *model.Intent, history []model.WorkoutHistoryEntry, user model.UserContext, now time.Time) model.Intent {
	if intent != nil {
		return *intent
	}
	dayIndex := len(history)
	return split.DeriveNextIntent(history, user.Constraints.SplitType, dayIndex, now)
}

func requiredMusclesFor(intent model.Intent) []model.Muscle {
	if len(intent.TargetMuscles) > 0 {
		return intent.TargetMuscles
	}
	return nil
}

// volumeLandmarks derives per-muscle weekly targets and ceilings. In the
// absence of a richer landmark table input, targets scale off the user's
// goal and ceilings sit at 1.5x target — a simple, documented placeholder;
// see DESIGN.md.
func volumeLandmarks(library []model.Exercise, user model.UserContext, c Config) (targets, ceilings map[model.Muscle]float64) {
	targets = map[model.Muscle]float64{}
	ceilings = map[model.Muscle]float64{}

	base := 14.0
	if user.Goals.Primary == model.GoalStrength {
		base = 10.0
	}
	if c.UseRevisedFatLossPolicy && user.Goals.Primary == model.GoalFatLoss {
		base = 12.0
	}

	seen := map[model.Muscle]bool{}
	for _, ex := range library {
		for _, m := range append(append([]model.Muscle{}, ex.PrimaryMuscles...), ex.SecondaryMuscles...) {
			if seen[m] {
				continue
			}
			seen[m] = true
			targets[m] = base
			ceilings[m] = base * 1.5
		}
	}
	return targets, ceilings
}

// continuityMinimums floors an exercise's proposed sets at what it carried
// in the most recent session, so day-to-day set counts don't whipsaw.
func continuityMinimums(history []model.WorkoutHistoryEntry, now time.Time) map[string]int {
	out := map[string]int{}
	var latest *model.WorkoutHistoryEntry
	for i := range history {
		if !history[i].Status.Performed() {
			continue
		}
		if latest == nil || history[i].Date.After(latest.Date) {
			latest = &history[i]
		}
	}
	if latest == nil {
		return out
	}
	for _, ex := range latest.Exercises {
		out[ex.ExerciseID] = len(ex.Sets)
	}
	return out
}

func allScoresTied(pool []model.SelectionCandidate) bool {
	if len(pool) < 2 {
		return false
	}
	first := pool[0].Total
	for _, c := range pool[1:] {
		if c.Total != first {
			return false
		}
	}
	return true
}

// deterministicShuffle reorders a tied pool using a simple splitmix64-style
// generator seeded by seed, so repeated calls with the same seed always
// produce the same order.
func deterministicShuffle(pool []model.SelectionCandidate, seed int64) []model.SelectionCandidate {
	out := append([]model.SelectionCandidate{}, pool...)
	state := uint64(seed)
	next := func() uint64 {
		state += 0x9E3779B97F4A7C15
		z := state
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		return z ^ (z >> 31)
	}
	for i := len(out) - 1; i > 0; i-- {
		j := int(next() % uint64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func groupHistoryByExercise(history []model.WorkoutHistoryEntry) map[string][]model.WorkoutHistoryEntry {
	out := map[string][]model.WorkoutHistoryEntry{}
	for _, entry := range history {
		for _, ex := range entry.Exercises {
			single := entry
			single.Exercises = []model.HistoryExercise{ex}
			out[ex.ExerciseID] = append(out[ex.ExerciseID], single)
		}
	}
	return out
}

func buildDonorIndex(library []model.Exercise, historyByExercise map[string][]model.WorkoutHistoryEntry) ([]model.Exercise, map[string][]model.WorkoutHistoryEntry) {
	donorHistory := map[string][]model.WorkoutHistoryEntry{}
	for id, h := range historyByExercise {
		donorHistory[id] = h
	}
	return library, donorHistory
}

func prescribeAndLoad(selected []model.SelectionCandidate, user model.UserContext, historyByExercise map[string][]model.WorkoutHistoryEntry, baselines []model.Baseline, donorExercises []model.Exercise, donorHistory map[string][]model.WorkoutHistoryEntry, fatigue volume.FatigueState, intent model.Intent, c Config) ([]model.PlannedExercise, []model.PlannedExercise, []model.RationaleEntry) {
	var mainLifts, accessories []model.PlannedExercise
	var rationale []model.RationaleEntry

	for _, cand := range selected {
		role := model.RoleAccessory
		if cand.Exercise.MainLiftEligible {
			role = model.RoleMainLift
		}

		loadRes := load.Assign(load.Params{
			Exercise:       cand.Exercise,
			History:        historyByExercise[cand.Exercise.ID],
			Baselines:      baselines,
			TrainingAge:    user.Profile.TrainingAge,
			Goal:           user.Goals.Primary,
			Intent:         &intent,
			Block:          user.Block,
			BodyWeight:     user.Profile.BodyWeight,
			DonorHistory:   donorHistory,
			DonorExercises: donorsFor(cand.Exercise, donorExercises),
		})

		if loadRes.PlateauDetected && c.UseMainLiftPlateauDetection {
			rationale = append(rationale, model.RationaleEntry{
				ExerciseID: cand.Exercise.ID,
				Component:  "load",
				Reason:     "load held flat: no increase across the last few sessions",
			})
		}
		if loadRes.HoldReason != "" {
			rationale = append(rationale, model.RationaleEntry{
				ExerciseID: cand.Exercise.ID,
				Component:  "load",
				Reason:     loadRes.HoldReason,
			})
		}
		if loadRes.Source == "unavailable" {
			rationale = append(rationale, model.RationaleEntry{
				ExerciseID: cand.Exercise.ID,
				Component:  "load",
				Reason:     "no load could be assigned: no history, baseline, donor, or body weight available",
			})
		}

		sets := prescription.Prescribe(prescription.Params{
			Candidate:         cand,
			Role:              role,
			Goal:              user.Goals.Primary,
			TrainingAge:       user.Profile.TrainingAge,
			Readiness:         fatigue.Readiness,
			MissedLastSession: fatigue.MissedLastSession,
			Block:             user.Block,
			RPEOverrides:      user.Preferences.RPEOverrides,
		})
		for i := range sets {
			sets[i].Load = loadRes.Load
		}

		planned := model.PlannedExercise{Exercise: cand.Exercise, Role: role, Sets: sets}
		if role == model.RoleMainLift {
			mainLifts = append(mainLifts, planned)
		} else {
			accessories = append(accessories, planned)
		}
	}

	return mainLifts, accessories, rationale
}

func donorsFor(ex model.Exercise, library []model.Exercise) []model.Exercise {
	var out []model.Exercise
	for _, other := range library {
		if other.ID == ex.ID {
			continue
		}
		if ex.SharesMuscle(other) || ex.SharesPattern(other) {
			out = append(out, other)
		}
	}
	return out
}

func buildWarmup(mainLifts []model.PlannedExercise, age model.TrainingAge) []model.PlannedExercise {
	out := make([]model.PlannedExercise, 0, len(mainLifts))
	for _, ex := range mainLifts {
		var anchor *float64
		for _, s := range ex.Sets {
			if s.Load != nil {
				anchor = s.Load
				break
			}
		}
		sets := warmup.Generate(anchor, age, ex.Exercise)
		if len(sets) == 0 {
			continue
		}
		out = append(out, model.PlannedExercise{Exercise: ex.Exercise, Role: ex.Role, Sets: sets})
	}
	return out
}

func estimateMinutes(ex model.PlannedExercise) float64 {
	var total float64
	for _, s := range ex.Sets {
		work := float64(ex.Exercise.TimePerSetSeconds)
		if work <= 0 {
			work = 45
		}
		rest := float64(s.RestSeconds)
		if rest <= 0 {
			rest = 90
		}
		total += (work + rest) / 60
	}
	return total
}
