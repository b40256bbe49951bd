// Package beam implements the constrained beam search that turns a scored
// candidate pool into a session's selected exercises.
package beam

import (
	"sort"

	"github.com/forgelift/planner/internal/model"
)

const (
	DefaultBeamWidth    = 7
	DefaultMaxDepth     = 8
	DefaultEpsilon      = 0.05
	patternCap          = 2
	directSetCeiling    = 12
	tricepsIsolationCap = 1
)

// Params bundles every input the beam search needs.
type Params struct {
	Candidates      []model.SelectionCandidate
	StartingVolume  model.VolumeState
	Ceilings        map[model.Muscle]float64 // weekly MRV ceiling per muscle
	SessionMinutes  float64                  // 0 means unbounded
	RequiredMuscles []model.Muscle
	Weights         model.ScoreWeights
	BeamWidth       int
	MaxDepth        int
	Epsilon         float64
}

// Result is the final selection and every rejection observed along the way.
type Result struct {
	Selected   []model.SelectionCandidate
	Rejections []model.Rejection
}

// state is one beam search node: a partial selection plus its running cost.
type state struct {
	selected      []model.SelectionCandidate
	selectedIDs   map[string]bool
	volume        model.VolumeState // session-start weekly effective volume plus this state's contributions
	timeMinutes   float64
	score         float64
	favoriteCount int
	patternCount  map[model.MovementPattern]int
	patternsUsed  map[model.MovementPattern]bool
	directSets    map[model.Muscle]float64
	isolationByMuscle map[model.Muscle]bool
	tricepsIsolations int
	hasCompoundPress  bool
}

func newState(startingVolume model.VolumeState) *state {
	return &state{
		selectedIDs:       make(map[string]bool),
		volume:            startingVolume.Clone(),
		patternCount:      make(map[model.MovementPattern]int),
		patternsUsed:      make(map[model.MovementPattern]bool),
		directSets:        make(map[model.Muscle]float64),
		isolationByMuscle: make(map[model.Muscle]bool),
	}
}

func (s *state) clone() *state {
	out := &state{
		selected:          append([]model.SelectionCandidate{}, s.selected...),
		selectedIDs:       make(map[string]bool, len(s.selectedIDs)),
		volume:            s.volume.Clone(),
		timeMinutes:       s.timeMinutes,
		score:             s.score,
		favoriteCount:     s.favoriteCount,
		patternCount:      make(map[model.MovementPattern]int, len(s.patternCount)),
		patternsUsed:      make(map[model.MovementPattern]bool, len(s.patternsUsed)),
		directSets:        make(map[model.Muscle]float64, len(s.directSets)),
		isolationByMuscle: make(map[model.Muscle]bool, len(s.isolationByMuscle)),
		tricepsIsolations: s.tricepsIsolations,
		hasCompoundPress:  s.hasCompoundPress,
	}
	for k, v := range s.selectedIDs {
		out.selectedIDs[k] = v
	}
	for k, v := range s.patternCount {
		out.patternCount[k] = v
	}
	for k, v := range s.patternsUsed {
		out.patternsUsed[k] = v
	}
	for k, v := range s.directSets {
		out.directSets[k] = v
	}
	for k, v := range s.isolationByMuscle {
		out.isolationByMuscle[k] = v
	}
	return out
}

// Run executes the constrained beam search and returns the best final state's
// selection along with every rejection reason observed for exercises that
// never made it into that selection.
func Run(p Params) Result {
	if p.BeamWidth <= 0 {
		p.BeamWidth = DefaultBeamWidth
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = DefaultMaxDepth
	}
	if p.Epsilon <= 0 {
		p.Epsilon = DefaultEpsilon
	}

	candidates := dominationFilter(p.Candidates)
	rejectionReasons := make(map[string]model.RejectionReason)

	beam := []*state{newState(p.StartingVolume)}
	for depth := 0; depth < p.MaxDepth; depth++ {
		var next []*state
		anyExpanded := false

		for _, st := range beam {
			for _, cand := range candidates {
				if st.selectedIDs[cand.Exercise.ID] {
					continue
				}
				reason, ok := feasible(st, cand, p)
				if !ok {
					if _, seen := rejectionReasons[cand.Exercise.ID]; !seen {
						rejectionReasons[cand.Exercise.ID] = reason
					}
					continue
				}
				next = append(next, expand(st, cand, p))
				anyExpanded = true
			}
		}

		if !anyExpanded {
			break
		}
		next = append(next, beam...) // a state may also choose to stop growing
		beam = prune(next, p.BeamWidth, p.Epsilon)
	}

	best := bestOf(beam)
	if best == nil {
		return Result{}
	}

	for _, ex := range best.selected {
		delete(rejectionReasons, ex.Exercise.ID)
	}
	var rejections []model.Rejection
	for _, cand := range p.Candidates {
		if reason, ok := rejectionReasons[cand.Exercise.ID]; ok {
			rejections = append(rejections, model.Rejection{ExerciseID: cand.Exercise.ID, Reason: reason})
		}
	}

	return Result{Selected: best.selected, Rejections: rejections}
}

// dominationFilter drops candidates that are strictly dominated by another
// candidate with the identical primary+secondary muscle footprint: equal or
// lower time cost and a strictly higher total score.
func dominationFilter(candidates []model.SelectionCandidate) []model.SelectionCandidate {
	out := make([]model.SelectionCandidate, 0, len(candidates))
	for i, c := range candidates {
		dominated := false
		for j, other := range candidates {
			if i == j || !sameMuscleFootprint(c.Exercise, other.Exercise) {
				continue
			}
			if other.Total > c.Total && other.TimeMinutes <= c.TimeMinutes {
				dominated = true
				break
			}
			if other.Total == c.Total && other.TimeMinutes < c.TimeMinutes {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, c)
		}
	}
	return out
}

func sameMuscleFootprint(a, b model.Exercise) bool {
	return muscleSetKey(a.PrimaryMuscles) == muscleSetKey(b.PrimaryMuscles) &&
		muscleSetKey(a.SecondaryMuscles) == muscleSetKey(b.SecondaryMuscles)
}

func muscleSetKey(muscles []model.Muscle) string {
	sorted := append([]model.Muscle{}, muscles...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	out := ""
	for _, m := range sorted {
		out += string(m) + ","
	}
	return out
}

// feasible runs every hard constraint against adding cand to st.
func feasible(st *state, cand model.SelectionCandidate, p Params) (model.RejectionReason, bool) {
	ex := cand.Exercise

	if p.SessionMinutes > 0 && st.timeMinutes+cand.TimeMinutes > p.SessionMinutes {
		return model.RejectStructureConstraint, false
	}

	for _, v := range cand.Volume {
		if ceiling, ok := p.Ceilings[v.Muscle]; ok {
			projected := st.volume.WeeklyEffective[v.Muscle] + v.Direct + model.IndirectMultiplier*v.Indirect
			if projected > ceiling {
				return model.RejectVolumeCeiling, false
			}
		}
	}

	for _, v := range cand.Volume {
		if v.Direct > 0 && st.directSets[v.Muscle]+v.Direct > directSetCeiling {
			return model.RejectDirectSetCeiling, false
		}
	}

	for _, pat := range ex.Patterns {
		if st.patternCount[pat] >= patternCap {
			return model.RejectPatternCap, false
		}
	}

	isolation := ex.HasPattern(model.PatternIsolation)
	if isolation {
		if ex.HasPrimary(model.MuscleTriceps) && st.tricepsIsolations >= tricepsIsolationCap {
			return model.RejectTricepsIsolationCap, false
		}
		if ex.HasPrimary(model.MuscleFrontDelts) && st.hasCompoundPress {
			return model.RejectFrontDeltSuppression, false
		}
		for _, m := range ex.PrimaryMuscles {
			if st.isolationByMuscle[m] {
				return model.RejectIsolationDuplicate, false
			}
		}
	}

	if len(st.selected) == 0 && len(p.RequiredMuscles) > 0 && !ex.SharesMuscle(model.Exercise{PrimaryMuscles: p.RequiredMuscles}) {
		return model.RejectStructureConstraint, false
	}

	return "", true
}

// expand clones st, adds cand, and recomputes its dynamic movement-novelty
// sub-score and total against st's already-selected patterns.
func expand(st *state, cand model.SelectionCandidate, p Params) *state {
	next := st.clone()

	novelty := movementNovelty(cand.Exercise, next.patternsUsed)
	scores := cand.Scores
	scores.MovementNovelty = novelty
	rescored := cand
	rescored.Scores = scores
	// Adjust only the movement-novelty term rather than recomputing the full
	// weighted sum, so candidates built without every sub-score populated
	// still carry their original total forward correctly.
	rescored.Total = cand.Total - p.Weights.MovementNovelty*cand.Scores.MovementNovelty + p.Weights.MovementNovelty*novelty

	next.selected = append(next.selected, rescored)
	next.selectedIDs[cand.Exercise.ID] = true
	next.timeMinutes += cand.TimeMinutes
	next.score += rescored.Total
	if cand.Scores.UserPreference >= 1.0 {
		next.favoriteCount++
	}

	for _, v := range cand.Volume {
		next.volume.Add(v.Muscle, v.Direct, v.Indirect)
		if v.Direct > 0 {
			next.directSets[v.Muscle] += v.Direct
		}
	}
	for _, pat := range cand.Exercise.Patterns {
		next.patternCount[pat]++
		next.patternsUsed[pat] = true
	}
	if cand.Exercise.HasPattern(model.PatternIsolation) {
		for _, m := range cand.Exercise.PrimaryMuscles {
			next.isolationByMuscle[m] = true
		}
		if cand.Exercise.HasPrimary(model.MuscleTriceps) {
			next.tricepsIsolations++
		}
	}
	if cand.Exercise.Compound && (cand.Exercise.HasPattern(model.PatternHorizontalPush) || cand.Exercise.HasPattern(model.PatternVerticalPush)) {
		next.hasCompoundPress = true
	}

	return next
}

func movementNovelty(ex model.Exercise, used map[model.MovementPattern]bool) float64 {
	if len(ex.Patterns) == 0 {
		return 1.0
	}
	novel := 0
	for _, p := range ex.Patterns {
		if !used[p] {
			novel++
		}
	}
	return float64(novel) / float64(len(ex.Patterns))
}

// prune sorts candidate next-states by (score desc, favoriteCount desc, name
// asc) and keeps the top beamWidth, retaining ties within epsilon of the
// cutoff score.
func prune(states []*state, beamWidth int, epsilon float64) []*state {
	sort.SliceStable(states, func(i, j int) bool {
		if states[i].score != states[j].score {
			return states[i].score > states[j].score
		}
		if states[i].favoriteCount != states[j].favoriteCount {
			return states[i].favoriteCount > states[j].favoriteCount
		}
		return stateName(states[i]) < stateName(states[j])
	})

	if len(states) <= beamWidth {
		return dedupe(states)
	}
	cutoff := states[beamWidth-1].score
	kept := states[:beamWidth]
	for _, s := range states[beamWidth:] {
		if cutoff-s.score <= epsilon {
			kept = append(kept, s)
		}
	}
	return dedupe(kept)
}

// dedupe drops states whose selected-exercise-id sets are identical, keeping
// the first (best-scoring, post-sort) occurrence.
func dedupe(states []*state) []*state {
	seen := make(map[string]bool, len(states))
	out := make([]*state, 0, len(states))
	for _, s := range states {
		key := stateKey(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func stateKey(s *state) string {
	ids := make([]string, 0, len(s.selectedIDs))
	for id := range s.selectedIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	key := ""
	for _, id := range ids {
		key += id + ","
	}
	return key
}

func stateName(s *state) string {
	if len(s.selected) == 0 {
		return ""
	}
	return s.selected[len(s.selected)-1].Exercise.Name
}

func bestOf(states []*state) *state {
	if len(states) == 0 {
		return nil
	}
	best := states[0]
	for _, s := range states[1:] {
		if s.score > best.score {
			best = s
		}
	}
	return best
}
