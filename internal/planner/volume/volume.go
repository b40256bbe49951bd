// Package volume builds weekly volume context: aggregating direct and
// effective weekly sets per muscle from completed history, and deriving the
// fatigue/readiness signals used by later stages.
package volume

import (
	"sort"
	"time"

	"github.com/forgelift/planner/internal/model"
)

// Window is a half-open [Start, End) date range used to bucket history
// entries into "this week" and "the week before" for spike-cap baselines.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within w ([Start, End)).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// CurrentWindow returns the window [now-7 days, now+1 day): the trailing
// seven days plus one day past now, so entries dated later on the same
// day as now still fall inside it.
func CurrentWindow(now time.Time) Window {
	return Window{Start: now.AddDate(0, 0, -7), End: now.AddDate(0, 0, 1)}
}

// PreviousWindow returns the seven-day window immediately preceding
// CurrentWindow(now), used as the spike-cap baseline.
func PreviousWindow(now time.Time) Window {
	cur := CurrentWindow(now)
	return Window{Start: cur.Start.AddDate(0, 0, -7), End: cur.Start}
}

// FatigueState is derived from the most recent history entry by date.
type FatigueState struct {
	Readiness         *int
	MissedLastSession bool
}

// Context is the output of the volume context builder.
type Context struct {
	Current  model.VolumeState
	Previous model.VolumeState
	Fatigue  FatigueState
}

// secondaryMusclesByID is built once per call from the library so indirect
// contributions (which a history entry does not carry directly) can be
// resolved without repeated linear scans.
func secondaryMusclesByID(library []model.Exercise) map[string][]model.Muscle {
	out := make(map[string][]model.Muscle, len(library))
	for _, e := range library {
		out[e.ID] = e.SecondaryMuscles
	}
	return out
}

// Build aggregates history into a volume Context for the window ending at
// now. Absent data yields empty maps, never an error.
func Build(history []model.WorkoutHistoryEntry, library []model.Exercise, now time.Time) Context {
	secondary := secondaryMusclesByID(library)
	current := model.NewVolumeState()
	previous := model.NewVolumeState()

	curWindow := CurrentWindow(now)
	prevWindow := PreviousWindow(now)

	for _, entry := range history {
		if !entry.Status.Performed() {
			continue
		}
		var target *model.VolumeState
		switch {
		case curWindow.Contains(entry.Date):
			target = &current
		case prevWindow.Contains(entry.Date):
			target = &previous
		default:
			continue
		}
		for _, ex := range entry.Exercises {
			for range ex.Sets {
				for _, m := range ex.PrimaryMuscles {
					target.Add(m, 1, 0)
				}
				for _, m := range secondary[ex.ExerciseID] {
					target.Add(m, 0, 1)
				}
			}
		}
	}

	return Context{
		Current:  current,
		Previous: previous,
		Fatigue:  deriveFatigue(history),
	}
}

// deriveFatigue finds the most recent entry by date (not input order) and
// reports its readiness score and whether it was skipped.
func deriveFatigue(history []model.WorkoutHistoryEntry) FatigueState {
	if len(history) == 0 {
		return FatigueState{}
	}
	sorted := make([]model.WorkoutHistoryEntry, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })

	latest := sorted[0]
	return FatigueState{
		Readiness:         latest.Readiness,
		MissedLastSession: latest.Status == model.StatusSkipped,
	}
}
