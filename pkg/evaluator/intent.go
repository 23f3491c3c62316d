package evaluator

import (
	"math"
	"strings"
	"unicode/utf8"
)

const minIntentTokenLength = 3

// MatchIntent scores the lexical overlap between the stated intent and the prompt.
// It returns IntentNotApplicable when intent is blank or has no token longer
// than three characters.
func MatchIntent(prompt, intent string) int {
	if strings.TrimSpace(intent) == "" {
		return IntentNotApplicable
	}

	lowerPrompt := strings.ToLower(prompt)
	tokens := make([]string, 0)
	for _, token := range strings.Fields(strings.ToLower(intent)) {
		if utf8.RuneCountInString(token) > minIntentTokenLength {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) == 0 {
		return IntentNotApplicable
	}

	matched := 0
	for _, token := range tokens {
		if strings.Contains(lowerPrompt, token) {
			matched++
		}
	}

	return int(math.Round(float64(matched) / float64(len(tokens)) * 100))
}
