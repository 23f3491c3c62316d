package evaluator

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const goalQuoteLimit = 140

const (
	goalUnclearLine = "Goal unclear; state the outcome in one sentence."
	modelChoiceLine = "Model choice impacts style and latency; keep it visible to the user."
	whyFallback     = "Prompt is reasonably structured; emphasize reflection and iteration."
	improveFallback = "Compare this version with the previous one; note why it improved."
)

// narrativeOrder is the order in which per-dimension lines are emitted.
var narrativeOrder = []Dimension{
	DimensionContext,
	DimensionOutputFormat,
	DimensionConstraints,
	DimensionScope,
}

var whyLines = map[Dimension]string{
	DimensionContext:      "Without audience, region or examples, the model will fill gaps with generic content.",
	DimensionOutputFormat: "No output format leads to variable structure and harder comparison.",
	DimensionConstraints:  "Missing constraints make answers verbose or off-tone.",
	DimensionScope:        "Unbounded asks risk drift and hallucination; limit tasks per run.",
}

var improvementLines = map[Dimension]string{
	DimensionContext:      "Add audience, region, timeframe or examples so the model stops guessing.",
	DimensionOutputFormat: "Specify the output shape (bullets, table, JSON schema).",
	DimensionConstraints:  "Add constraints: tone, length, must-include facts, and exclusions.",
	DimensionScope:        "Narrow the ask to one clear task; ask for unknowns to be flagged.",
}

var rewriteSteps = []string{
	"State the goal and audience in one sentence.",
	"Add key context (region/timeframe/examples).",
	"Specify format (e.g., 4 bullets + 1 risk; or JSON with fields).",
	"Set constraints (tone/length) and what to do if data is unknown.",
}

// Narrative is the human-readable part of an evaluation.
type Narrative struct {
	WhatHappened []string
	Why          []string
	Improvements []string
	Rewrite      string
}

// Compose builds the explanation lines for the missing dimensions of prompt.
func Compose(missing []Dimension, prompt string) Narrative {
	return Narrative{
		WhatHappened: []string{goalLine(prompt), modelChoiceLine},
		Why:          linesFor(missing, whyLines, whyFallback),
		Improvements: linesFor(missing, improvementLines, improveFallback),
		Rewrite:      strings.Join(rewriteSteps, " "),
	}
}

func goalLine(prompt string) string {
	goal := quoteGoal(prompt)
	if goal == "" {
		return goalUnclearLine
	}
	return fmt.Sprintf("Detected goal: \"%s\"", goal)
}

// quoteGoal collapses whitespace and truncates to goalQuoteLimit runes.
func quoteGoal(prompt string) string {
	collapsed := strings.Join(strings.Fields(prompt), " ")
	if utf8.RuneCountInString(collapsed) <= goalQuoteLimit {
		return collapsed
	}
	runes := []rune(collapsed)
	return string(runes[:goalQuoteLimit]) + "…"
}

func linesFor(missing []Dimension, lines map[Dimension]string, fallback string) []string {
	out := make([]string, 0, len(missing))
	for _, dimension := range narrativeOrder {
		if containsDimension(missing, dimension) {
			out = append(out, lines[dimension])
		}
	}
	if len(out) == 0 {
		out = append(out, fallback)
	}
	return out
}
