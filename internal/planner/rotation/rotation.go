// Package rotation builds the rotation & exposure index: a map from exercise
// name — not id — to how recently and how often it has been used, plus a
// short-term performance trend.
//
// The index is keyed by name rather than id because that is the durable key
// across exercise-library renumbering; see DESIGN.md for the migration path
// a stable-UUID library would take instead.
package rotation

import (
	"sort"
	"time"

	"github.com/forgelift/planner/internal/model"
)

// Trend is a short-term performance direction for an exercise.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStalled   Trend = "stalled"
)

// Entry is one exercise's rotation/exposure record.
type Entry struct {
	LastUsed          time.Time
	WeeksSinceLastUse  float64
	TotalUsageCount    int
	Trend              Trend
}

// Index maps exercise name to its rotation Entry.
type Index map[string]Entry

// Lookup returns the Entry for name and whether one exists. An exercise
// absent from the index is "never used" and should be scored as maximally
// novel by the caller, rather than treated as an error.
func (idx Index) Lookup(name string) (Entry, bool) {
	e, ok := idx[name]
	return e, ok
}

type occurrence struct {
	date     time.Time
	sumReps  int
	maxLoad  *float64
}

// Build constructs the rotation Index from history as of now.
func Build(history []model.WorkoutHistoryEntry, now time.Time) Index {
	byName := make(map[string][]occurrence)

	for _, entry := range history {
		if !entry.Status.Performed() {
			continue
		}
		for _, ex := range entry.Exercises {
			occ := occurrence{date: entry.Date}
			for _, s := range ex.Sets {
				occ.sumReps += s.Reps
				if s.Load != nil && (occ.maxLoad == nil || *s.Load > *occ.maxLoad) {
					l := *s.Load
					occ.maxLoad = &l
				}
			}
			byName[ex.ExerciseName] = append(byName[ex.ExerciseName], occ)
		}
	}

	idx := make(Index, len(byName))
	for name, occs := range byName {
		sort.Slice(occs, func(i, j int) bool { return occs[i].date.Before(occs[j].date) })
		last := occs[len(occs)-1]
		idx[name] = Entry{
			LastUsed:         last.date,
			WeeksSinceLastUse: weeksSince(last.date, now),
			TotalUsageCount:   len(occs),
			Trend:             trendOf(occs),
		}
	}
	return idx
}

func weeksSince(last, now time.Time) float64 {
	days := now.Sub(last).Hours() / 24
	if days < 0 {
		days = 0
	}
	return days / 7
}

// trendOf compares the last two performed occurrences. Load is preferred
// over reps as the comparison metric when both occurrences recorded one,
// since load is the more direct progression signal; reps are the fallback
// when load was not logged (bodyweight work, RPE-only logging, etc.).
func trendOf(occs []occurrence) Trend {
	if len(occs) < 2 {
		return TrendStalled
	}
	prev, last := occs[len(occs)-2], occs[len(occs)-1]

	if prev.maxLoad != nil && last.maxLoad != nil {
		switch {
		case *last.maxLoad > *prev.maxLoad:
			return TrendImproving
		case *last.maxLoad < *prev.maxLoad:
			return TrendDeclining
		default:
			return TrendStalled
		}
	}

	switch {
	case last.sumReps > prev.sumReps:
		return TrendImproving
	case last.sumReps < prev.sumReps:
		return TrendDeclining
	default:
		return TrendStalled
	}
}
