// Package prescription resolves a selected candidate's proposed sets into a
// fully specified list of working sets: target reps, target RPE, and rest
// seconds. It is adapted from the teacher's rep-range set-scheme generator,
// generalized to vary by goal, role, training age, and fatigue.
package prescription

import "github.com/forgelift/planner/internal/model"

const (
	beginnerMaxWorkSets = 3
	lowReadinessFloor   = 2
	minWorkSets         = 1

	restMainLiftStrength = 180
	restMainLiftDefault  = 150
	restCompoundAccessory = 120
	restIsolation         = 75
)

// Params bundles the inputs needed to prescribe one candidate's working sets.
type Params struct {
	Candidate         model.SelectionCandidate
	Role              model.Role
	Goal              model.Goal
	TrainingAge       model.TrainingAge
	Readiness         *int
	MissedLastSession bool
	Block             *model.BlockContext
	RPEOverrides      []model.RPEOverride
}

// Prescribe returns the working-set list for p.Candidate. Warmup sets are
// generated separately by the warmup package.
func Prescribe(p Params) []model.SetPrescription {
	sets := workSetCount(p)
	reps := targetReps(p.Candidate.Exercise, p.Goal, p.Role)
	rpe := targetRPE(p)
	rest := restSeconds(p.Role, p.Candidate.Exercise)

	out := make([]model.SetPrescription, sets)
	for i := range out {
		out[i] = model.SetPrescription{
			SetIndex:    i,
			TargetReps:  reps,
			TargetRPE:   rpe,
			RestSeconds: rest,
		}
	}
	return out
}

func workSetCount(p Params) int {
	sets := p.Candidate.ProposedSets
	if sets <= 0 {
		sets = minWorkSets
	}
	if p.TrainingAge == model.TrainingBeginner && sets > beginnerMaxWorkSets {
		sets = beginnerMaxWorkSets
	}
	if p.Readiness != nil && *p.Readiness <= lowReadinessFloor && sets > minWorkSets {
		sets--
	}
	if p.MissedLastSession && sets > minWorkSets {
		sets--
	}
	if p.Block != nil && p.Block.ShouldDeload && sets > minWorkSets {
		sets--
	}
	return sets
}

// targetReps picks a single representative rep target within the exercise's
// supported range, biased by goal and role.
func targetReps(ex model.Exercise, goal model.Goal, role model.Role) int {
	lo, hi := ex.RepRangeMin, ex.RepRangeMax
	if lo <= 0 {
		lo = 6
	}
	if hi <= 0 || hi < lo {
		hi = lo + 4
	}

	switch {
	case goal == model.GoalStrength && role == model.RoleMainLift:
		return lo
	case goal == model.GoalFatLoss:
		return hi
	case goal == model.GoalAthleticism:
		return lo + (hi-lo)/3
	default: // hypertrophy, general_health
		return lo + (hi-lo)/2
	}
}

func baselineRPE(goal model.Goal) float64 {
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

// targetRPE applies the goal baseline, a block's RIR ramp, and any
// user-supplied RPE override for the resolved rep target, in that order —
// the user override is the most specific signal and always wins.
func targetRPE(p Params) *float64 {
	rpe := baselineRPE(p.Goal)
	if p.Block != nil && p.Block.RIRAdjustment != 0 {
		rpe = 10 - p.Block.RIRAdjustment
	}

	reps := targetReps(p.Candidate.Exercise, p.Goal, p.Role)
	for _, o := range p.RPEOverrides {
		if reps >= o.RepMin && reps <= o.RepMax {
			rpe = o.RPE
			break
		}
	}

	if rpe < 1 {
		rpe = 1
	}
	if rpe > 10 {
		rpe = 10
	}
	return &rpe
}

func restSeconds(role model.Role, ex model.Exercise) int {
	if role == model.RoleMainLift {
		if ex.Compound {
			return restMainLiftStrength
		}
		return restMainLiftDefault
	}
	if ex.HasPattern(model.PatternIsolation) {
		return restIsolation
	}
	return restCompoundAccessory
}
