// Package candidate builds and scores the feasible exercise pool for a
// session: proposed sets, volume and time contribution, and the seven
// normalized sub-scores that together drive selection.
package candidate

import (
	"math"
	"time"

	"github.com/forgelift/planner/internal/model"
	"github.com/forgelift/planner/internal/planner/rotation"
	"github.com/forgelift/planner/internal/planner/volume"
)

// restSecondsAccumulation etc. are the rest-time defaults by block phase.
const (
	restSecondsAccumulation    = 120
	restSecondsIntensification = 120
	restSecondsRealization     = 180
	restSecondsDeload          = 60
	restSecondsDefault         = 90

	defaultWorkSecondsPerSet = 45
	warmupRampSets           = 3
	warmupRampSecondsPerSet  = 75
	minProposedSets          = 2
	maxProposedSetsDefault   = 5
	absoluteMaxSets          = 12
	continuityFloorSets      = 3
)

// Params bundles every input the candidate builder needs.
type Params struct {
	Library             []model.Exercise
	User                model.UserContext
	VolumeCtx           volume.Context
	Targets             map[model.Muscle]float64 // weekly_target per muscle (e.g. MAV)
	Rotation            rotation.Index
	RequiredMuscles     []model.Muscle
	ContinuityMinimums  map[string]int // exercise id -> minimum sets (same exercise used last session)
	Weights             model.ScoreWeights
	Block               *model.BlockContext
	Now                 time.Time
}

// Result is the candidate pool plus the hard-filter rejections encountered
// while building it, in library iteration order.
type Result struct {
	Candidates []model.SelectionCandidate
	Rejections []model.Rejection
}

// Build computes the feasible candidate pool.
func Build(p Params) Result {
	res := Result{}
	requiredSet := toMuscleSet(p.RequiredMuscles)

	for _, ex := range p.Library {
		if reason, ok := hardFilterReject(ex, p.User); ok {
			res.Rejections = append(res.Rejections, model.Rejection{ExerciseID: ex.ID, Reason: reason})
			continue
		}
		if !equipmentAvailable(ex, p.User.Constraints.AvailableEquipment) {
			continue
		}

		proposed := proposedSets(ex, p, requiredSet)
		volContrib := buildVolumeContribution(ex, proposed)
		timeMinutes := timeContribution(ex, proposed, p.Block)
		scores := scoreCandidate(ex, proposed, volContrib, p)

		res.Candidates = append(res.Candidates, model.SelectionCandidate{
			Exercise:     ex,
			ProposedSets: proposed,
			Volume:       volContrib,
			TimeMinutes:  timeMinutes,
			Scores:       scores,
			Total:        p.Weights.Total(scores),
		})
	}
	return res
}

// hardFilterReject applies the pain-conflict and user-avoided hard filters.
// Pain conflict takes precedence over user-avoided when both apply.
func hardFilterReject(ex model.Exercise, user model.UserContext) (model.RejectionReason, bool) {
	if user.Preferences.PainConflictIDs[ex.ID] {
		return model.RejectPainConflict, true
	}
	if user.Preferences.AvoidIDs[ex.ID] {
		return model.RejectUserAvoided, true
	}
	return "", false
}

func equipmentAvailable(ex model.Exercise, available []string) bool {
	if len(available) == 0 {
		return true
	}
	have := make(map[string]bool, len(available))
	for _, e := range available {
		have[e] = true
	}
	for _, need := range ex.Equipment {
		if !have[need] {
			return false
		}
	}
	return true
}

func toMuscleSet(muscles []model.Muscle) map[model.Muscle]bool {
	out := make(map[model.Muscle]bool, len(muscles))
	for _, m := range muscles {
		out[m] = true
	}
	return out
}

// remainingDeficit returns max(0, target - effectiveActual) for muscle m.
func remainingDeficit(m model.Muscle, p Params) float64 {
	target := p.Targets[m]
	actual := p.VolumeCtx.Current.WeeklyEffective[m]
	d := target - actual
	if d < 0 {
		return 0
	}
	return d
}

// proposedSets implements the proposed-sets heuristic: scale with the
// largest remaining deficit across an exercise's primary muscles, floored
// for exercises that hit a required muscle or carry a continuity minimum.
func proposedSets(ex model.Exercise, p Params, required map[model.Muscle]bool) int {
	maxDeficit := 0.0
	for _, m := range ex.PrimaryMuscles {
		if d := remainingDeficit(m, p); d > maxDeficit {
			maxDeficit = d
		}
	}

	sets := int(math.Ceil(maxDeficit / 2))
	if sets < minProposedSets {
		sets = minProposedSets
	}
	if sets > maxProposedSetsDefault {
		sets = maxProposedSetsDefault
	}

	for _, m := range ex.PrimaryMuscles {
		if required[m] && sets < continuityFloorSets {
			sets = continuityFloorSets
			break
		}
	}

	if min, ok := p.ContinuityMinimums[ex.ID]; ok && sets < min {
		sets = min
	}

	if sets > absoluteMaxSets {
		sets = absoluteMaxSets
	}
	return sets
}

func buildVolumeContribution(ex model.Exercise, proposed int) []model.VolumeContribution {
	contrib := make([]model.VolumeContribution, 0, len(ex.PrimaryMuscles)+len(ex.SecondaryMuscles))
	for _, m := range ex.PrimaryMuscles {
		contrib = append(contrib, model.VolumeContribution{Muscle: m, Direct: float64(proposed)})
	}
	for _, m := range ex.SecondaryMuscles {
		contrib = append(contrib, model.VolumeContribution{Muscle: m, Indirect: float64(proposed)})
	}
	return contrib
}

func restSecondsFor(block *model.BlockContext) float64 {
	if block == nil {
		return restSecondsDefault
	}
	switch block.Phase {
	case model.PhaseAccumulation:
		return restSecondsAccumulation
	case model.PhaseIntensification:
		return restSecondsIntensification
	case model.PhaseRealization:
		return restSecondsRealization
	case model.PhaseDeload:
		return restSecondsDeload
	default:
		return restSecondsDefault
	}
}

func timeContribution(ex model.Exercise, proposed int, block *model.BlockContext) float64 {
	work := float64(ex.TimePerSetSeconds)
	if work <= 0 {
		work = defaultWorkSecondsPerSet
	}
	rest := restSecondsFor(block)
	minutes := (work + rest) * float64(proposed) / 60

	if ex.MainLiftEligible {
		minutes += float64(warmupRampSets*warmupRampSecondsPerSet) / 60
	}
	return minutes
}

func scoreCandidate(ex model.Exercise, proposed int, contrib []model.VolumeContribution, p Params) model.SubScores {
	return model.SubScores{
		DeficitFill:     deficitFillScore(ex, contrib, p),
		RotationNovelty: rotationNoveltyScore(ex, p),
		SFR:             sfrScore(ex),
		Lengthened:      lengthenedScore(ex),
		MovementNovelty: 1.0, // frozen placeholder; beam.go recomputes dynamically
		SRAAlignment:    sraAlignmentScore(ex, p),
		UserPreference:  userPreferenceScore(ex, p.User),
	}
}

func deficitFillScore(ex model.Exercise, contrib []model.VolumeContribution, p Params) float64 {
	var filled, total float64
	muscles := append(append([]model.Muscle{}, ex.PrimaryMuscles...), ex.SecondaryMuscles...)
	effectiveByMuscle := make(map[model.Muscle]float64, len(contrib))
	for _, c := range contrib {
		effectiveByMuscle[c.Muscle] += c.Direct + model.IndirectMultiplier*c.Indirect
	}
	for _, m := range muscles {
		deficit := remainingDeficit(m, p)
		total += deficit
		if eff := effectiveByMuscle[m]; eff < deficit {
			filled += eff
		} else {
			filled += deficit
		}
	}
	if total == 0 {
		return 1.0
	}
	return filled / total
}

func rotationNoveltyScore(ex model.Exercise, p Params) float64 {
	entry, ok := p.Rotation.Lookup(ex.Name)
	if !ok {
		return 1.0
	}
	weeksAgo := entry.WeeksSinceLastUse
	score := weeksAgo / 3
	if score > 1 {
		score = 1
	}
	return score
}

func sfrScore(ex model.Exercise) float64 {
	if ex.SFRScore <= 0 {
		return 3.0 / 5.0
	}
	return float64(ex.SFRScore) / 5.0
}

func lengthenedScore(ex model.Exercise) float64 {
	if ex.LengthPosition <= 0 {
		return 3.0 / 5.0
	}
	return float64(ex.LengthPosition) / 5.0
}

// sraAlignmentScore estimates mean recovery across primary muscles from how
// much effective volume has already accumulated for each muscle this week.
// Only muscles with an entry in the exercise's SRA hours are estimated (the
// hour values themselves are not used); other muscles score 1.0. This
// is a deliberately simple recovery proxy; see DESIGN.md for the derivation
// rationale.
func sraAlignmentScore(ex model.Exercise, p Params) float64 {
	if len(ex.PrimaryMuscles) == 0 {
		return 1.0
	}
	var sum float64
	for _, m := range ex.PrimaryMuscles {
		if _, ok := ex.SRAHours[m]; !ok {
			sum += 1.0
			continue
		}
		target := p.Targets[m]
		if target <= 0 {
			sum += 1.0
			continue
		}
		used := p.VolumeCtx.Current.WeeklyEffective[m]
		recovery := 1 - used/(2*target)
		if recovery < 0 {
			recovery = 0
		}
		if recovery > 1 {
			recovery = 1
		}
		sum += recovery
	}
	return sum / float64(len(ex.PrimaryMuscles))
}

func userPreferenceScore(ex model.Exercise, user model.UserContext) float64 {
	if user.Preferences.FavoriteIDs[ex.ID] {
		return 1.0
	}
	if user.Preferences.AvoidIDs[ex.ID] {
		return 0.0
	}
	return 0.5
}
