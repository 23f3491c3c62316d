package evaluator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaName is the name the output schema is registered under with providers.
const SchemaName = "prompt_evaluation"

// ErrScoreInconsistent indicates overall does not match the mean of the sub-scores.
var ErrScoreInconsistent = errors.New("overall score does not match sub-scores")

// SchemaError reports model output that failed validation.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("evaluation output rejected: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// OutputSchema returns the JSON Schema every model-produced evaluation must satisfy.
func OutputSchema() map[string]any {
	stages := make([]string, 0, len(Stages))
	for _, stage := range Stages {
		stages = append(stages, string(stage))
	}
	dimensions := make([]string, 0, len(Dimensions))
	for _, dimension := range Dimensions {
		dimensions = append(dimensions, string(dimension))
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"whatHappened": stringArraySchema(1, 0),
			"why":          stringArraySchema(1, 0),
			"improvements": stringArraySchema(3, 5),
			"rewrite":      map[string]any{"type": "string"},
			"missing": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "enum": dimensions},
			},
			"stage": map[string]any{"type": "string", "enum": stages},
			"score": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"intentClarity":       percentSchema(),
					"contextCompleteness": percentSchema(),
					"constraints":         percentSchema(),
					"outputFormat":        percentSchema(),
					"scopeControl":        percentSchema(),
					"overall":             percentSchema(),
				},
				"required":             []string{"intentClarity", "contextCompleteness", "constraints", "outputFormat", "scopeControl", "overall"},
				"additionalProperties": false,
			},
			"intentMatch": map[string]any{"type": "integer", "minimum": IntentNotApplicable, "maximum": 100},
		},
		"required":             []string{"whatHappened", "why", "improvements", "rewrite", "missing", "stage", "score", "intentMatch"},
		"additionalProperties": false,
	}
}

func stringArraySchema(minItems, maxItems int) map[string]any {
	schema := map[string]any{
		"type":     "array",
		"items":    map[string]any{"type": "string"},
		"minItems": minItems,
	}
	if maxItems > 0 {
		schema["maxItems"] = maxItems
	}
	return schema
}

func percentSchema() map[string]any {
	return map[string]any{"type": "integer", "minimum": 0, "maximum": 100}
}

type outputValidator struct {
	schema *jsonschema.Schema
}

func newOutputValidator() (*outputValidator, error) {
	raw, err := json.Marshal(OutputSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal output schema: %w", err)
	}
	schema, err := jsonschema.CompileString(SchemaName+".json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("compile output schema: %w", err)
	}
	return &outputValidator{schema: schema}, nil
}

// decode validates content against the schema before building an Evaluation.
func (v *outputValidator) decode(content []byte) (Evaluation, error) {
	body := stripCodeFence(content)

	var document interface{}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&document); err != nil {
		return Evaluation{}, &SchemaError{Err: fmt.Errorf("parse json: %w", err)}
	}
	if err := v.schema.Validate(document); err != nil {
		return Evaluation{}, &SchemaError{Err: err}
	}

	var evaluation Evaluation
	if err := json.Unmarshal(body, &evaluation); err != nil {
		return Evaluation{}, &SchemaError{Err: fmt.Errorf("decode evaluation: %w", err)}
	}
	if diff := evaluation.Score.Overall - OverallScore(evaluation.Score); diff > 1 || diff < -1 {
		return Evaluation{}, &SchemaError{Err: ErrScoreInconsistent}
	}
	if strings.TrimSpace(evaluation.Rewrite) == "" {
		return Evaluation{}, &SchemaError{Err: errors.New("rewrite is empty")}
	}
	if evaluation.Missing == nil {
		evaluation.Missing = []Dimension{}
	}

	return evaluation, nil
}

// stripCodeFence removes a surrounding ```json fence some models add.
func stripCodeFence(content []byte) []byte {
	text := strings.TrimSpace(string(content))
	if !strings.HasPrefix(text, "```") {
		return []byte(text)
	}
	text = strings.TrimPrefix(text, "```")
	if newline := strings.IndexByte(text, '\n'); newline >= 0 {
		text = text[newline+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return []byte(strings.TrimSpace(text))
}
