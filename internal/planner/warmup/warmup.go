// Package warmup generates the ramp-up sets preceding an exercise's working
// sets, adapted from the teacher's percentage-ramp set scheme.
package warmup

import (
	"math"

	"github.com/forgelift/planner/internal/model"
)

// RampStep is one warmup set's percentage of the working load and its
// target reps.
type RampStep struct {
	Percentage float64
	Reps       int
}

var beginnerRamp = []RampStep{
	{Percentage: 50, Reps: 8},
	{Percentage: 70, Reps: 5},
}

var standardRamp = []RampStep{
	{Percentage: 50, Reps: 8},
	{Percentage: 70, Reps: 5},
	{Percentage: 85, Reps: 3},
}

const defaultPlateIncrement = 5.0

// Generate builds the warmup set list for an exercise given its resolved
// working load. A nil workingLoad (no load could be assigned) yields no
// warmup sets: there is nothing to ramp toward.
func Generate(workingLoad *float64, trainingAge model.TrainingAge, ex model.Exercise) []model.SetPrescription {
	if workingLoad == nil {
		return nil
	}

	steps := standardRamp
	if trainingAge == model.TrainingBeginner {
		steps = beginnerRamp
	}

	out := make([]model.SetPrescription, len(steps))
	for i, step := range steps {
		w := *workingLoad * (step.Percentage / 100)
		rounded := round(w, ex)
		out[i] = model.SetPrescription{
			SetIndex:   i,
			TargetReps: step.Reps,
			Load:       rounded,
			IsWarmup:   true,
		}
	}
	return out
}

func round(w float64, ex model.Exercise) *float64 {
	inc := ex.PlateIncrement
	if inc <= 0 {
		inc = defaultPlateIncrement
	}
	rounded := math.Round(w/inc) * inc
	return &rounded
}
