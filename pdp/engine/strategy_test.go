package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrategyCombine(t *testing.T) {
	verdicts := []bool{true, true, false, false}

	tests := []struct {
		strategy Strategy
		expected bool
	}{
		{StrategyAll, false},
		{StrategyAny, true},
		{StrategyMajority, false},
		{StrategyWeighted, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.strategy.Combine(verdicts, DefaultWeightedThreshold))
		})
	}
}

func TestStrategyCombineEdges(t *testing.T) {
	assert.True(t, StrategyAll.Combine([]bool{true, true, true, true}, 0))
	assert.False(t, StrategyAny.Combine([]bool{false, false, false, false}, 0))
	assert.True(t, StrategyMajority.Combine([]bool{true, true, true, false}, 0))

	// Weighted threshold is configurable.
	assert.False(t, StrategyWeighted.Combine([]bool{true, true, false, false}, 3))
	assert.True(t, StrategyWeighted.Combine([]bool{true, true, true, false}, 3))

	// Unknown strategies fall back to the strictest combination.
	assert.False(t, Strategy("BOGUS").Combine([]bool{true, true, true, false}, 1))
}

func TestParseStrategy(t *testing.T) {
	strategy, err := ParseStrategy("weighted")
	assert.NoError(t, err)
	assert.Equal(t, StrategyWeighted, strategy)

	strategy, err = ParseStrategy(" ALL ")
	assert.NoError(t, err)
	assert.Equal(t, StrategyAll, strategy)

	strategy, err = ParseStrategy("quorum")
	assert.Error(t, err)
	assert.Equal(t, StrategyAll, strategy)
}
