// Package stretch applies the post-beam stretch upgrade: swapping a selected
// isolation exercise for an unselected alternative that shares its muscle
// and movement footprint but sits further down the length-tension curve at
// no worse a stimulus-to-fatigue ratio, without touching the selection's
// main lifts.
package stretch

import "github.com/forgelift/planner/internal/model"

const maxPasses = 2

// Upgrade scans selected for isolation exercises that a better pool
// candidate could replace, applying upgrades until a fixed point (no pass
// changes anything) or maxPasses is reached, whichever comes first.
func Upgrade(selected []model.SelectionCandidate, pool []model.SelectionCandidate) ([]model.SelectionCandidate, []model.RationaleEntry) {
	current := append([]model.SelectionCandidate{}, selected...)
	var rationale []model.RationaleEntry

	for pass := 0; pass < maxPasses; pass++ {
		next, entries, changed := onePass(current, pool)
		current = next
		rationale = append(rationale, entries...)
		if !changed {
			break
		}
	}
	return current, rationale
}

func onePass(selected, pool []model.SelectionCandidate) ([]model.SelectionCandidate, []model.RationaleEntry, bool) {
	selectedIDs := make(map[string]bool, len(selected))
	for _, c := range selected {
		selectedIDs[c.Exercise.ID] = true
	}

	out := append([]model.SelectionCandidate{}, selected...)
	var rationale []model.RationaleEntry
	changed := false

	for i, c := range out {
		if c.Exercise.Compound || c.Exercise.MainLiftEligible {
			continue
		}
		best := bestUpgradeFor(c, pool, selectedIDs)
		if best == nil {
			continue
		}
		rationale = append(rationale, model.RationaleEntry{
			ExerciseID: best.Exercise.ID,
			Component:  "stretch",
			Reason:     "upgraded " + c.Exercise.Name + " to " + best.Exercise.Name + " for a longer length-position stretch at no worse an SFR",
		})
		delete(selectedIDs, c.Exercise.ID)
		selectedIDs[best.Exercise.ID] = true
		out[i] = *best
		changed = true
	}
	return out, rationale, changed
}

// bestUpgradeFor finds the non-compound, non-main-lift candidate in pool that shares at least one
// primary muscle and at least one movement pattern with c, is not already
// selected, scores strictly higher on length-position, scores no lower on
// SFR, and costs no more time. Among qualifying candidates it prefers the
// largest length-position gain, breaking ties on SFR.
func bestUpgradeFor(c model.SelectionCandidate, pool []model.SelectionCandidate, selectedIDs map[string]bool) *model.SelectionCandidate {
	var best *model.SelectionCandidate
	for idx := range pool {
		cand := pool[idx]
		if selectedIDs[cand.Exercise.ID] || cand.Exercise.ID == c.Exercise.ID {
			continue
		}
		if cand.Exercise.Compound || cand.Exercise.MainLiftEligible {
			continue
		}
		if !c.Exercise.SharesMuscle(cand.Exercise) || !c.Exercise.SharesPattern(cand.Exercise) {
			continue
		}
		if cand.Scores.Lengthened <= c.Scores.Lengthened {
			continue
		}
		if cand.Scores.SFR < c.Scores.SFR {
			continue
		}
		if cand.TimeMinutes > c.TimeMinutes {
			continue
		}
		if best == nil || cand.Scores.Lengthened > best.Scores.Lengthened ||
			(cand.Scores.Lengthened == best.Scores.Lengthened && cand.Scores.SFR > best.Scores.SFR) {
			best = &cand
		}
	}
	return best
}
