package planner

import (
	"testing"

	"github.com/forgelift/planner/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_MatchesDocumentedDefaults(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, 7, c.BeamWidth)
	assert.Equal(t, 8, c.MaxDepth)
	assert.Equal(t, 0.05, c.TieBreakerEpsilon)
	assert.Equal(t, 3, c.MinExercises)
	assert.True(t, c.UseMainLiftPlateauDetection)
	assert.True(t, c.UseEffectiveVolumeCaps)
	assert.True(t, c.UseRevisedFatLossPolicy)
	assert.Equal(t, model.DefaultScoreWeights(), c.Weights)
}

func TestConfig_WithDefaultsFillsOnlyZeroFields(t *testing.T) {
	c := Config{BeamWidth: 3}
	filled := c.WithDefaults()

	assert.Equal(t, 3, filled.BeamWidth, "explicit non-zero value preserved")
	assert.Equal(t, 8, filled.MaxDepth, "zero value defaulted")
	assert.Equal(t, 0.05, filled.TieBreakerEpsilon)
	assert.Equal(t, 3, filled.MinExercises)
	assert.Equal(t, model.DefaultScoreWeights(), filled.Weights)
}

func TestConfig_WithDefaultsEnablesFlagsWhenNeverConstructedViaDefaultConfig(t *testing.T) {
	c := Config{}
	filled := c.WithDefaults()

	assert.True(t, filled.UseMainLiftPlateauDetection)
	assert.True(t, filled.UseEffectiveVolumeCaps)
	assert.True(t, filled.UseRevisedFatLossPolicy)
}

func TestConfig_WithDefaultsPreservesExplicitlyDisabledFlags(t *testing.T) {
	c := DefaultConfig()
	c.UseEffectiveVolumeCaps = false

	filled := c.WithDefaults()

	assert.True(t, filled.UseMainLiftPlateauDetection)
	assert.False(t, filled.UseEffectiveVolumeCaps, "explicit false must survive WithDefaults")
	assert.True(t, filled.UseRevisedFatLossPolicy)
}

func TestConfig_WithDefaultsIsIdempotent(t *testing.T) {
	c := Config{}.WithDefaults()
	again := c.WithDefaults()
	assert.Equal(t, c, again)
}
