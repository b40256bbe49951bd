// Package load assigns a target working load to a prescribed exercise:
// anchoring on the modal load of the most recent same-intent performed
// session, applying double progression gated on whether the top set hit its
// rep/RPE target, falling back to a baseline, donor exercise, or body-weight
// ratio when no usable history exists, and rounding to the exercise's plate
// increment. It generalizes the teacher's load-estimation and
// weight-rounding helpers.
package load

import (
	"math"
	"sort"
	"time"

	"github.com/forgelift/planner/internal/model"
)

const (
	manualWeight = 0.7
	intentWeight = 1.0

	defaultPlateIncrement = 5.0
	plateauWindow         = 3

	doubleProgressionIncrementPct = 0.025
	doubleProgressionDecrementPct = 0.03
	lowConfidenceFactor          = 0.8
	highConfidenceFactor         = 1.0
	highConfidenceSessionCount   = 3

	beginnerLinearIncrement     = 5.0
	beginnerLinearDecrement     = 2.5
	advancedPeriodizedIncrement = 2.5

	modalRPEHoldThreshold = 9.0
	loadVarianceThreshold = 0.20
	minWarmupRPE          = 6.0
)

// bodyWeightRatio is a coarse per-pattern fraction of body weight used as the
// final fallback when no history or donor estimate exists.
var bodyWeightRatio = map[model.MovementPattern]float64{
	model.PatternSquat:          0.75,
	model.PatternHinge:          1.0,
	model.PatternHorizontalPush: 0.5,
	model.PatternVerticalPush:   0.35,
	model.PatternHorizontalPull: 0.4,
	model.PatternVerticalPull:   0.3,
}

const defaultBodyWeightRatio = 0.3

// Params bundles the inputs needed to assign a load to one exercise.
type Params struct {
	Exercise    model.Exercise
	History     []model.WorkoutHistoryEntry // this exercise's own history only
	Baselines   []model.Baseline
	TrainingAge model.TrainingAge
	Goal        model.Goal
	// Intent is the session currently being planned; when set, only history
	// entries with a matching (or absent) Intent.Split anchor the load.
	Intent         *model.Intent
	Block          *model.BlockContext
	BodyWeight     *float64
	DonorHistory   map[string][]model.WorkoutHistoryEntry // donor exercise id -> its history
	DonorExercises []model.Exercise
}

// Result is the assigned load plus whether a plateau was detected, for the
// caller to fold into the session's rationale log.
type Result struct {
	Load            *float64
	PlateauDetected bool
	HoldReason      string // non-empty when progression held rather than moved load
	Source          string // "history", "baseline", "donor", "bodyweight", "unavailable"
}

// Assign computes the working load for p.Exercise.
func Assign(p Params) Result {
	if ctx, ok := resolveAnchor(p); ok {
		next, holdReason := progress(ctx, p)
		return Result{Load: round(next, p.Exercise), PlateauDetected: detectPlateau(p), HoldReason: holdReason, Source: "history"}
	}

	if base, ok := latestBaseline(p.Baselines, p.Exercise.ID); ok {
		return Result{Load: round(base, p.Exercise), Source: "baseline"}
	}

	if donor, ok := donorEstimate(p); ok {
		return Result{Load: round(donor, p.Exercise), Source: "donor"}
	}

	if p.Exercise.BodyweightOnly {
		zero := 0.0
		return Result{Load: &zero, Source: "bodyweight"}
	}

	if p.BodyWeight != nil {
		ratio := defaultBodyWeightRatio
		for _, pat := range p.Exercise.Patterns {
			if r, ok := bodyWeightRatio[pat]; ok {
				ratio = r
				break
			}
		}
		est := *p.BodyWeight * ratio
		return Result{Load: round(est, p.Exercise), Source: "bodyweight"}
	}

	return Result{Load: nil, Source: "unavailable"}
}

// session is one performed, non-deload history entry's qualifying
// (non-warmup) sets for this exercise, plus the MANUAL/INTENT weight used to
// rank same-date sessions.
type session struct {
	date   time.Time
	weight float64
	sets   []model.SetLog
}

// qualifyingSessions collects, most-recent-first, every performed non-deload
// entry for this exercise whose Intent.Split matches p.Intent (entries with
// no Intent recorded are never excluded by this filter), keeping only sets
// with RPE >= 6 (or no RPE recorded) since lighter sets are warmups.
func qualifyingSessions(p Params) []session {
	var out []session
	for _, entry := range p.History {
		if !entry.Status.Performed() {
			continue
		}
		if entry.Phase != nil && *entry.Phase == model.PhaseDeload {
			continue
		}
		if p.Intent != nil && entry.Intent != nil && entry.Intent.Split != p.Intent.Split {
			continue
		}
		w := intentWeight
		if entry.SelectionMode != nil && *entry.SelectionMode == model.SelectionManual {
			w = manualWeight
		}
		for _, ex := range entry.Exercises {
			if ex.ExerciseID != p.Exercise.ID {
				continue
			}
			var qualifying []model.SetLog
			for _, s := range ex.Sets {
				if s.Load == nil {
					continue
				}
				if s.RPE != nil && *s.RPE < minWarmupRPE {
					continue
				}
				qualifying = append(qualifying, s)
			}
			if len(qualifying) > 0 {
				out = append(out, session{date: entry.Date, weight: w, sets: qualifying})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].date.Equal(out[j].date) {
			return out[i].date.After(out[j].date)
		}
		return out[i].weight > out[j].weight
	})
	return out
}

// anchorContext is everything progress needs from the most recent qualifying
// session: its modal load and RPE, the top set's reps/RPE, whether its
// per-set load variance is too high to trust, and how many same-intent
// sessions back the confidence-scaled increment.
type anchorContext struct {
	modalLoad    float64
	modalRPE     *float64
	topReps      int
	topRPE       *float64
	highVariance bool
	sessionCount int
}

// resolveAnchor finds the most recent qualifying session and summarizes it.
// The modal load is the most frequent load in that session, ties broken
// toward the heavier value, per the "modal load" definition in the glossary.
func resolveAnchor(p Params) (anchorContext, bool) {
	sessions := qualifyingSessions(p)
	if len(sessions) == 0 {
		return anchorContext{}, false
	}
	anchor := sessions[0]

	var loads, rpes []float64
	for _, s := range anchor.sets {
		loads = append(loads, *s.Load)
		if s.RPE != nil {
			rpes = append(rpes, *s.RPE)
		}
	}

	ctx := anchorContext{
		modalLoad:    modalValue(loads),
		highVariance: highVariance(loads),
		sessionCount: len(sessions),
	}
	if len(rpes) > 0 {
		m := modalValue(rpes)
		ctx.modalRPE = &m
	}

	top := topSet(anchor.sets)
	ctx.topReps = top.Reps
	ctx.topRPE = top.RPE

	return ctx, true
}

// topSet is the set with the lowest SetIndex, whether the caller's history
// uses 0-based or 1-based indexing.
func topSet(sets []model.SetLog) model.SetLog {
	best := sets[0]
	for _, s := range sets[1:] {
		if s.SetIndex < best.SetIndex {
			best = s
		}
	}
	return best
}

// modalValue returns the most frequent value in vals, tie-breaking toward
// the largest value.
func modalValue(vals []float64) float64 {
	sorted := append([]float64{}, vals...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	counts := make(map[float64]int, len(vals))
	for _, v := range vals {
		counts[v]++
	}

	best := sorted[0]
	bestCount := counts[best]
	for _, v := range sorted[1:] {
		if c := counts[v]; c > bestCount {
			best, bestCount = v, c
		}
	}
	return best
}

// highVariance reports whether the session's per-set load standard
// deviation exceeds 20% of its mean — too noisy a session to trust for
// progression, so the caller should hold at the conservative modal load.
func highVariance(loads []float64) bool {
	if len(loads) < 2 {
		return false
	}
	var sum float64
	for _, v := range loads {
		sum += v
	}
	mean := sum / float64(len(loads))
	if mean == 0 {
		return false
	}
	var sumSq float64
	for _, v := range loads {
		d := v - mean
		sumSq += d * d
	}
	stdev := math.Sqrt(sumSq / float64(len(loads)))
	return stdev/mean > loadVarianceThreshold
}

// confidenceFactor scales the double-progression increment by how many
// same-intent sessions back it: a single prior session is a weaker signal
// than three or more.
func confidenceFactor(sessionCount int) float64 {
	if sessionCount >= highConfidenceSessionCount {
		return highConfidenceFactor
	}
	return lowConfidenceFactor
}

// targetRPE is the goal's baseline top-set RPE, mirroring the prescription
// package's per-goal table — the reference point progress compares the
// anchor session's RPE against.
func targetRPE(goal model.Goal) float64 {
	switch goal {
	case model.GoalStrength:
		return 8.5
	case model.GoalFatLoss:
		return 7.0
	case model.GoalAthleticism:
		return 7.5
	case model.GoalGeneralHealth:
		return 7.0
	default: // hypertrophy
		return 8.0
	}
}

// progress applies double progression to ctx.modalLoad: increment only if
// the top set hit the top of the rep range at or under target RPE,
// decrement if it fell short of the range or ran hot, otherwise hold.
// A deload block scales the modal load by the block's back-off multiplier;
// bodyweight-continuity, high modal RPE, and high load variance all
// short-circuit straight to a hold. A detected plateau is reported through
// Result.PlateauDetected and does not hold the load.
func progress(ctx anchorContext, p Params) (float64, string) {
	if p.Block != nil && p.Block.ShouldDeload {
		backoff := p.Block.BackoffMultiplier
		if backoff <= 0 {
			backoff = 0.8
		}
		return ctx.modalLoad * backoff, ""
	}

	if ctx.modalLoad == 0 {
		return 0, "bodyweight exercise — rep progression only"
	}

	if ctx.modalRPE != nil && *ctx.modalRPE >= modalRPEHoldThreshold {
		return ctx.modalLoad, "modal RPE at or above 9: hold load"
	}

	if ctx.highVariance {
		return ctx.modalLoad, "high load variance in last session: hold at modal load"
	}

	target := targetRPE(p.Goal)
	hi, lo := p.Exercise.RepRangeMax, p.Exercise.RepRangeMin
	hitTop := hi > 0 && ctx.topReps >= hi
	rpeOK := ctx.topRPE == nil || *ctx.topRPE <= target
	belowBottom := lo > 0 && ctx.topReps < lo
	rpeTooHigh := ctx.topRPE != nil && *ctx.topRPE >= target+1

	switch p.TrainingAge {
	case model.TrainingBeginner:
		switch {
		case hitTop && rpeOK:
			return ctx.modalLoad + beginnerLinearIncrement, ""
		case belowBottom || rpeTooHigh:
			return ctx.modalLoad - beginnerLinearDecrement, ""
		default:
			return ctx.modalLoad, ""
		}
	case model.TrainingAdvanced:
		switch {
		case hitTop && rpeOK:
			return ctx.modalLoad + advancedPeriodizedIncrement, ""
		case belowBottom || rpeTooHigh:
			return ctx.modalLoad - advancedPeriodizedIncrement, ""
		default:
			return ctx.modalLoad, ""
		}
	default: // intermediate: confidence-scaled double progression
		switch {
		case hitTop && rpeOK:
			conf := confidenceFactor(ctx.sessionCount)
			return ctx.modalLoad * (1 + doubleProgressionIncrementPct*conf), ""
		case belowBottom || rpeTooHigh:
			return ctx.modalLoad * (1 - doubleProgressionDecrementPct), ""
		default:
			return ctx.modalLoad, ""
		}
	}
}

// detectPlateau reports whether the last plateauWindow performed entries for
// this exercise show no load increase.
func detectPlateau(p Params) bool {
	var loads []float64
	for _, entry := range p.History {
		if !entry.Status.Performed() {
			continue
		}
		for _, ex := range entry.Exercises {
			if ex.ExerciseID != p.Exercise.ID {
				continue
			}
			var maxLoad *float64
			for _, s := range ex.Sets {
				if s.Load != nil && (maxLoad == nil || *s.Load > *maxLoad) {
					l := *s.Load
					maxLoad = &l
				}
			}
			if maxLoad != nil {
				loads = append(loads, *maxLoad)
			}
		}
	}
	if len(loads) < plateauWindow {
		return false
	}
	recent := loads[len(loads)-plateauWindow:]
	for i := 1; i < len(recent); i++ {
		if recent[i] > recent[i-1] {
			return false
		}
	}
	return true
}

func latestBaseline(baselines []model.Baseline, exerciseID string) (float64, bool) {
	for _, b := range baselines {
		if b.ExerciseID == exerciseID {
			return b.Value, true
		}
	}
	return 0, false
}

// donorEstimate picks the donor exercise with the highest muscle/pattern
// overlap with p.Exercise that has its own usable history, and carries its
// modal anchor load forward unscaled — a rough but deterministic estimate.
func donorEstimate(p Params) (float64, bool) {
	type scored struct {
		overlap float64
		load    float64
	}
	var best *scored

	for _, donor := range p.DonorExercises {
		history := p.DonorHistory[donor.ID]
		if len(history) == 0 {
			continue
		}
		overlap := overlapScore(p.Exercise, donor)
		if overlap <= 0 {
			continue
		}
		ctx, ok := resolveAnchor(Params{Exercise: donor, History: history})
		if !ok {
			continue
		}
		if best == nil || overlap > best.overlap {
			best = &scored{overlap: overlap, load: ctx.modalLoad}
		}
	}
	if best == nil {
		return 0, false
	}
	return best.load, true
}

// overlapScore is shared-primary-muscles plus shared-patterns divided by the
// union size of both sets, in [0, 1].
func overlapScore(a, b model.Exercise) float64 {
	shared := 0
	union := make(map[string]bool)
	for _, m := range a.PrimaryMuscles {
		union["m:"+string(m)] = true
	}
	for _, m := range b.PrimaryMuscles {
		key := "m:" + string(m)
		if union[key] {
			shared++
		}
		union[key] = true
	}
	for _, pt := range a.Patterns {
		union["p:"+string(pt)] = true
	}
	for _, pt := range b.Patterns {
		key := "p:" + string(pt)
		if union[key] {
			shared++
		}
		union[key] = true
	}
	if len(union) == 0 {
		return 0
	}
	return float64(shared) / float64(len(union))
}

// round snaps w to the exercise's plate increment, defaulting when unset.
func round(w float64, ex model.Exercise) *float64 {
	inc := ex.PlateIncrement
	if inc <= 0 {
		inc = defaultPlateIncrement
	}
	rounded := math.Round(w/inc) * inc
	return &rounded
}
