package evaluator

// Dimension labels a rubric dimension the analyzer can flag as missing.
type Dimension string

const (
	DimensionOutputFormat Dimension = "output format"
	DimensionContext      Dimension = "context/examples"
	DimensionConstraints  Dimension = "constraints"
	DimensionScope        Dimension = "scope control"
)

// Dimensions lists the keyword-backed dimensions in reporting order.
var Dimensions = []Dimension{
	DimensionOutputFormat,
	DimensionContext,
	DimensionConstraints,
	DimensionScope,
}

// Stage is the learning stage used to tailor guidance for the author.
type Stage string

const (
	StageOnboarding   Stage = "onboarding"
	StageFundamentals Stage = "fundamentals"
	StageStructure    Stage = "structure"
	StageControl      Stage = "control"
	StageReflection   Stage = "reflection"
)

// Stages lists every learning stage in conceptual order.
var Stages = []Stage{
	StageOnboarding,
	StageFundamentals,
	StageStructure,
	StageControl,
	StageReflection,
}

// IntentNotApplicable is reported as intentMatch when no usable intent was supplied.
const IntentNotApplicable = -1

// Source records which path produced an evaluation.
type Source string

const (
	SourceLocal Source = "local"
	SourceModel Source = "model"
)

// Input is the prompt submitted for evaluation.
type Input struct {
	Prompt             string
	UserIntent         string
	PreviousIterations int
	Model              string
}

// Score holds the rubric sub-scores and their rounded mean.
type Score struct {
	IntentClarity       int `json:"intentClarity"`
	ContextCompleteness int `json:"contextCompleteness"`
	Constraints         int `json:"constraints"`
	OutputFormat        int `json:"outputFormat"`
	ScopeControl        int `json:"scopeControl"`
	Overall             int `json:"overall"`
}

// Evaluation is the educational feedback returned for a prompt.
type Evaluation struct {
	WhatHappened []string    `json:"whatHappened"`
	Why          []string    `json:"why"`
	Improvements []string    `json:"improvements"`
	Rewrite      string      `json:"rewrite"`
	Missing      []Dimension `json:"missing"`
	Stage        Stage       `json:"stage"`
	Score        Score       `json:"score"`
	IntentMatch  int         `json:"intentMatch"`
}

// Result wraps an evaluation with its provenance.
type Result struct {
	Evaluation     Evaluation
	Source         Source
	Model          string
	FallbackReason string
	TokensUsed     int
}

// HasMissing reports whether dimension was flagged as missing.
func (e Evaluation) HasMissing(dimension Dimension) bool {
	return containsDimension(e.Missing, dimension)
}

func containsDimension(missing []Dimension, dimension Dimension) bool {
	for _, item := range missing {
		if item == dimension {
			return true
		}
	}
	return false
}
