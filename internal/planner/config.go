package planner

import "github.com/forgelift/planner/internal/model"

// Config holds the tunable knobs for one Plan call. ZeroConfig-safe: a
// Config built with Go's zero value and passed through WithDefaults yields
// the documented defaults.
type Config struct {
	BeamWidth     int
	MaxDepth      int
	TieBreakerEpsilon float64
	Weights       model.ScoreWeights
	MinExercises  int

	// Feature flags. All default to true; set explicitly to false to
	// disable a stage for experimentation or a controlled rollout.
	UseMainLiftPlateauDetection bool
	UseEffectiveVolumeCaps      bool
	UseRevisedFatLossPolicy     bool

	enabledSet bool // internal: distinguishes an explicit false from zero-value
}

// DefaultConfig returns the documented default tuning.
func DefaultConfig() Config {
	return Config{
		BeamWidth:                   7,
		MaxDepth:                    8,
		TieBreakerEpsilon:           0.05,
		Weights:                     model.DefaultScoreWeights(),
		MinExercises:                3,
		UseMainLiftPlateauDetection: true,
		UseEffectiveVolumeCaps:      true,
		UseRevisedFatLossPolicy:     true,
		enabledSet:                  true,
	}
}

// WithDefaults fills any zero-valued numeric field with DefaultConfig's
// value, leaving explicit non-zero caller values untouched. Feature flags
// are only defaulted when the Config was never constructed via
// DefaultConfig (enabledSet is false), since Go's zero value for bool is
// indistinguishable from an explicit "off".
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.BeamWidth <= 0 {
		c.BeamWidth = d.BeamWidth
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.TieBreakerEpsilon <= 0 {
		c.TieBreakerEpsilon = d.TieBreakerEpsilon
	}
	if c.Weights == (model.ScoreWeights{}) {
		c.Weights = d.Weights
	}
	if c.MinExercises <= 0 {
		c.MinExercises = d.MinExercises
	}
	if !c.enabledSet {
		c.UseMainLiftPlateauDetection = true
		c.UseEffectiveVolumeCaps = true
		c.UseRevisedFatLossPolicy = true
		c.enabledSet = true
	}
	return c
}
