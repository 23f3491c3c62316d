package evaluator

import (
	"math"
	"strings"
)

const baseTokenEstimate = 120

// EstimateTokens approximates the token cost of sending prompt to a model.
func EstimateTokens(prompt string) int {
	words := len(strings.Fields(prompt))
	estimate := int(math.Round(float64(words) * 1.4))
	if estimate < baseTokenEstimate {
		return baseTokenEstimate
	}
	return estimate
}
