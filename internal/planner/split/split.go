// Package split classifies a past session's push/pull/legs focus, and
// derives the next session's intent when the caller does not supply one.
package split

import (
	"time"

	"github.com/forgelift/planner/internal/model"
)

var pushMuscles = map[model.Muscle]bool{
	model.MuscleChest: true, model.MuscleTriceps: true,
	model.MuscleFrontDelts: true, model.MuscleSideDelts: true,
}

var pullMuscles = map[model.Muscle]bool{
	model.MuscleBack: true, model.MuscleUpperBack: true, model.MuscleLats: true,
	model.MuscleRearDelts: true, model.MuscleBiceps: true,
}

var legMuscles = map[model.Muscle]bool{
	model.MuscleQuads: true, model.MuscleHamstrings: true, model.MuscleGlutes: true,
	model.MuscleCalves: true, model.MuscleAdductors: true,
}

// iterationOrder is the final, deterministic tie-break.
var iterationOrder = []model.SplitTag{model.SplitPush, model.SplitPull, model.SplitLegs}

func patternFamily(p model.MovementPattern) (model.SplitTag, bool) {
	switch p {
	case model.PatternHorizontalPush, model.PatternVerticalPush:
		return model.SplitPush, true
	case model.PatternHorizontalPull, model.PatternVerticalPull:
		return model.SplitPull, true
	case model.PatternSquat, model.PatternHinge, model.PatternLunge:
		return model.SplitLegs, true
	default:
		return "", false
	}
}

// Classify labels a single history entry's push/pull/legs focus by counting
// per-split muscle hits across its exercises, tie-breaking first by the
// entry's first exercise's movement-pattern family, then by iteration order.
func Classify(entry model.WorkoutHistoryEntry) model.SplitTag {
	counts := map[model.SplitTag]int{model.SplitPush: 0, model.SplitPull: 0, model.SplitLegs: 0}
	for _, ex := range entry.Exercises {
		for _, m := range ex.PrimaryMuscles {
			switch {
			case pushMuscles[m]:
				counts[model.SplitPush]++
			case pullMuscles[m]:
				counts[model.SplitPull]++
			case legMuscles[m]:
				counts[model.SplitLegs]++
			}
		}
	}

	best := iterationOrder[0]
	bestCount := counts[best]
	tied := []model.SplitTag{best}
	for _, s := range iterationOrder[1:] {
		switch {
		case counts[s] > bestCount:
			best, bestCount = s, counts[s]
			tied = []model.SplitTag{s}
		case counts[s] == bestCount:
			tied = append(tied, s)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}

	if fam, ok := firstExercisePatternFamily(entry); ok && containsSplit(tied, fam) {
		return fam
	}

	for _, s := range iterationOrder {
		if containsSplit(tied, s) {
			return s
		}
	}
	return tied[0]
}

// firstExercisePatternFamily resolves the first exercise's primary movement
// pattern to a split family, if the history entry carries one.
func firstExercisePatternFamily(entry model.WorkoutHistoryEntry) (model.SplitTag, bool) {
	if len(entry.Exercises) == 0 {
		return "", false
	}
	for _, p := range entry.Exercises[0].Patterns {
		if fam, ok := patternFamily(p); ok {
			return fam, true
		}
	}
	return "", false
}

func containsSplit(splits []model.SplitTag, target model.SplitTag) bool {
	for _, s := range splits {
		if s == target {
			return true
		}
	}
	return false
}

// AdvancesSplit resolves whether an entry counts toward split rotation:
// the entry's explicit flag if set, else true for COMPLETED and false for
// SKIPPED.
func AdvancesSplit(entry model.WorkoutHistoryEntry) bool {
	if entry.AdvancesSplit != nil {
		return *entry.AdvancesSplit
	}
	return entry.Status != model.StatusSkipped
}

// DeriveNextPPL chooses the next push/pull/legs intent: the split least
// recently trained among entries that advance the split, preferring any
// split wholly absent from the window, in iteration order.
func DeriveNextPPL(history []model.WorkoutHistoryEntry, now time.Time) model.SplitTag {
	lastSeen := map[model.SplitTag]time.Time{}
	for _, entry := range history {
		if !AdvancesSplit(entry) {
			continue
		}
		s := Classify(entry)
		if t, ok := lastSeen[s]; !ok || entry.Date.After(t) {
			lastSeen[s] = entry.Date
		}
	}

	for _, s := range iterationOrder {
		if _, ok := lastSeen[s]; !ok {
			return s
		}
	}

	oldest := iterationOrder[0]
	oldestTime := lastSeen[oldest]
	for _, s := range iterationOrder[1:] {
		if lastSeen[s].Before(oldestTime) {
			oldest, oldestTime = s, lastSeen[s]
		}
	}
	return oldest
}

// Queue is a fixed rotation of split tags for non-PPL split systems.
type Queue []model.SplitTag

// QueueFor returns the default rotation queue for a non-PPL split system.
func QueueFor(system model.SplitSystem) Queue {
	switch system {
	case model.SystemUpperLower:
		return Queue{model.SplitUpper, model.SplitLower}
	default:
		return Queue{model.SplitFullBody}
	}
}

// NextByDayIndex cycles the queue by day index modulo its length.
func (q Queue) NextByDayIndex(dayIndex int) model.SplitTag {
	if len(q) == 0 {
		return model.SplitFullBody
	}
	i := dayIndex % len(q)
	if i < 0 {
		i += len(q)
	}
	return q[i]
}

// DeriveNextIntent derives the session intent when the caller supplies none,
// dispatching to PPL rotation-index logic or fixed day-index cycling
// depending on the user's split system.
func DeriveNextIntent(history []model.WorkoutHistoryEntry, system model.SplitSystem, dayIndex int, now time.Time) model.Intent {
	if system == model.SystemPushPullLegs {
		return model.Intent{Split: DeriveNextPPL(history, now)}
	}
	return model.Intent{Split: QueueFor(system).NextByDayIndex(dayIndex)}
}
