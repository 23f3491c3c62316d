package evaluator

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Band classifies how strongly a dimension is signalled in the prompt.
type Band int

const (
	// BandMissing means no keyword of the dimension appears at all.
	BandMissing Band = iota
	// BandPartial means a keyword only appears inside a longer word.
	BandPartial
	// BandPresent means a keyword appears as a whole word.
	BandPresent
)

var dimensionKeywords = map[Dimension][]string{
	DimensionOutputFormat: {"json", "table", "bullet", "bullets", "list", "markdown", "format"},
	DimensionContext:      {"audience", "region", "market", "example", "data", "source", "for", "about"},
	DimensionConstraints:  {"tone", "length", "words", "sentences", "must", "avoid", "keep", "limit"},
	DimensionScope:        {"single", "one", "focus", "narrow", "bounded", "top", "first"},
}

// band scores indexed by Band.
var dimensionBandScores = map[Dimension][3]int{
	DimensionContext:      {30, 50, 80},
	DimensionConstraints:  {30, 50, 85},
	DimensionOutputFormat: {25, 45, 90},
	DimensionScope:        {35, 60, 85},
}

const (
	intentClarityFloor    = 40
	intentClarityGoal     = 70
	intentClarityQuestion = 90
	goalMinLength         = 10
)

// Finding is the rubric classification of a single prompt.
type Finding struct {
	Missing       []Dimension
	Bands         map[Dimension]Band
	IntentClarity int
}

// Analyze inspects prompt for format, context, constraint and scope cues.
func Analyze(prompt string) Finding {
	lower := strings.ToLower(prompt)
	words := wordSet(lower)

	finding := Finding{
		Missing:       make([]Dimension, 0, len(Dimensions)),
		Bands:         make(map[Dimension]Band, len(Dimensions)),
		IntentClarity: intentClarity(prompt),
	}

	for _, dimension := range Dimensions {
		band := classifyBand(lower, words, dimensionKeywords[dimension])
		finding.Bands[dimension] = band
		if band == BandMissing {
			finding.Missing = append(finding.Missing, dimension)
		}
	}

	return finding
}

// Score converts the finding into rubric sub-scores.
func (f Finding) Score() Score {
	score := Score{
		IntentClarity:       f.IntentClarity,
		ContextCompleteness: bandScore(DimensionContext, f.Bands[DimensionContext]),
		Constraints:         bandScore(DimensionConstraints, f.Bands[DimensionConstraints]),
		OutputFormat:        bandScore(DimensionOutputFormat, f.Bands[DimensionOutputFormat]),
		ScopeControl:        bandScore(DimensionScope, f.Bands[DimensionScope]),
	}
	score.Overall = OverallScore(score)
	return score
}

// OverallScore returns the rounded mean of the five sub-scores.
func OverallScore(s Score) int {
	sum := s.IntentClarity + s.ContextCompleteness + s.Constraints + s.OutputFormat + s.ScopeControl
	return int(math.Round(float64(sum) / 5))
}

func bandScore(dimension Dimension, band Band) int {
	scores, ok := dimensionBandScores[dimension]
	if !ok || band < BandMissing || band > BandPresent {
		return 0
	}
	return scores[band]
}

func classifyBand(lower string, words map[string]struct{}, keywords []string) Band {
	band := BandMissing
	for _, keyword := range keywords {
		if _, ok := words[keyword]; ok {
			return BandPresent
		}
		if strings.Contains(lower, keyword) {
			band = BandPartial
		}
	}
	return band
}

func intentClarity(prompt string) int {
	trimmed := strings.TrimSpace(prompt)
	if utf8.RuneCountInString(trimmed) <= goalMinLength {
		return intentClarityFloor
	}
	if strings.Contains(trimmed, "?") {
		return intentClarityQuestion
	}
	return intentClarityGoal
}

func wordSet(lower string) map[string]struct{} {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		set[field] = struct{}{}
	}
	return set
}
