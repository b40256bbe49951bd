// Package assembly orders a session's warmup, main lifts, and accessories,
// and trims accessories to fit a time budget without dropping below a
// minimum exercise count.
package assembly

import (
	"sort"

	"github.com/forgelift/planner/internal/model"
)

// TimeEstimator returns the number of minutes one planned exercise (its
// warmup and working sets combined) is expected to take.
type TimeEstimator func(model.PlannedExercise) float64

// Params bundles the assembly inputs.
type Params struct {
	Warmup          []model.PlannedExercise
	MainLifts       []model.PlannedExercise
	Accessories     []model.PlannedExercise
	SessionMinutes  float64 // 0 means unbounded
	MinExercises    int     // floor on len(MainLifts)+len(Accessories) after trimming
	RequiredMuscles []model.Muscle // the session's target muscles for main-lift ranking
	Estimate        TimeEstimator
}

// Output is the ordered, trimmed session plus bookkeeping for the caller's
// rationale log.
type Output struct {
	Warmup               []model.PlannedExercise
	MainLifts            []model.PlannedExercise
	Accessories          []model.PlannedExercise
	EstimatedMinutes     float64
	ConstraintsSatisfied bool
	Trimmed              []model.PlannedExercise
}

// Assemble orders main lifts by descending primary-muscle overlap with the
// session's required muscles (the lift most central to the session's intent
// leads), orders accessories with isolation work last, then trims
// accessories from the end until the session fits its time budget or
// MinExercises is reached.
func Assemble(p Params) Output {
	mainLifts := append([]model.PlannedExercise{}, p.MainLifts...)
	sort.SliceStable(mainLifts, func(i, j int) bool {
		return rankMainLift(mainLifts[i], p.RequiredMuscles) > rankMainLift(mainLifts[j], p.RequiredMuscles)
	})

	accessories := append([]model.PlannedExercise{}, p.Accessories...)
	sort.SliceStable(accessories, func(i, j int) bool {
		return rankAccessory(accessories[i]) > rankAccessory(accessories[j])
	})

	out := Output{Warmup: p.Warmup, MainLifts: mainLifts, Accessories: accessories}
	out.EstimatedMinutes = totalMinutes(out, p.Estimate)
	out.ConstraintsSatisfied = true

	if p.SessionMinutes <= 0 {
		return out
	}

	for out.EstimatedMinutes > p.SessionMinutes {
		if len(out.Accessories) == 0 {
			out.ConstraintsSatisfied = false
			break
		}
		total := len(out.MainLifts) + len(out.Accessories)
		if total <= p.MinExercises {
			out.ConstraintsSatisfied = false
			break
		}
		last := out.Accessories[len(out.Accessories)-1]
		out.Trimmed = append(out.Trimmed, last)
		out.Accessories = out.Accessories[:len(out.Accessories)-1]
		out.EstimatedMinutes = totalMinutes(out, p.Estimate)
	}

	return out
}

// rankMainLift ranks by how many of the session's required muscles the
// exercise's primary muscles cover; a lift touching more of the target
// muscle set leads the session regardless of how many primary muscles it
// has overall.
func rankMainLift(ex model.PlannedExercise, requiredMuscles []model.Muscle) int {
	count := 0
	for _, m := range requiredMuscles {
		if ex.Exercise.HasPrimary(m) {
			count++
		}
	}
	return count
}

// rankAccessory ranks non-isolation accessories above isolation ones, then
// by primary-muscle count within each group.
func rankAccessory(ex model.PlannedExercise) int {
	base := len(ex.Exercise.PrimaryMuscles)
	if ex.Exercise.HasPattern(model.PatternIsolation) {
		return base
	}
	return base + 100
}

func totalMinutes(out Output, estimate TimeEstimator) float64 {
	if estimate == nil {
		return 0
	}
	var total float64
	for _, ex := range out.Warmup {
		total += estimate(ex)
	}
	for _, ex := range out.MainLifts {
		total += estimate(ex)
	}
	for _, ex := range out.Accessories {
		total += estimate(ex)
	}
	return total
}
