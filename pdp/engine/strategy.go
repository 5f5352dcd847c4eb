package engine

import (
	"fmt"
	"strings"
)

// Strategy selects how the four component verdicts combine into the
// composite decision.
type Strategy string

const (
	// StrategyAll allows only when every component verdict is true.
	StrategyAll Strategy = "ALL"
	// StrategyAny allows when at least one component verdict is true.
	StrategyAny Strategy = "ANY"
	// StrategyMajority allows when more than half the verdicts are true.
	StrategyMajority Strategy = "MAJORITY"
	// StrategyWeighted allows when at least the configured number of
	// verdicts are true.
	StrategyWeighted Strategy = "WEIGHTED"
)

// DefaultWeightedThreshold is the number of true verdicts StrategyWeighted
// requires unless overridden.
const DefaultWeightedThreshold = 2

// ParseStrategy maps a configuration value onto a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToUpper(strings.TrimSpace(s))) {
	case StrategyAll:
		return StrategyAll, nil
	case StrategyAny:
		return StrategyAny, nil
	case StrategyMajority:
		return StrategyMajority, nil
	case StrategyWeighted:
		return StrategyWeighted, nil
	default:
		return StrategyAll, fmt.Errorf("unknown combination strategy %q", s)
	}
}

// Combine folds the component verdicts into one. Unknown strategies fall
// back to ALL, the strictest combination.
func (s Strategy) Combine(verdicts []bool, weightedThreshold int) bool {
	trueCount := 0
	for _, v := range verdicts {
		if v {
			trueCount++
		}
	}

	switch s {
	case StrategyAny:
		return trueCount > 0
	case StrategyMajority:
		return trueCount*2 > len(verdicts)
	case StrategyWeighted:
		if weightedThreshold < 1 {
			weightedThreshold = DefaultWeightedThreshold
		}
		return trueCount >= weightedThreshold
	default: // StrategyAll
		return trueCount == len(verdicts)
	}
}
