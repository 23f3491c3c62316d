package ai

import (
	"context"
	"errors"
)

// ErrEmptyCompletion indicates the provider answered without any content.
var ErrEmptyCompletion = errors.New("provider returned an empty completion")

// StructuredRequest asks a model for a JSON document conforming to Schema.
type StructuredRequest struct {
	SystemPrompt string
	UserPrompt   string
	SchemaName   string
	Schema       map[string]any
	Model        string
	Temperature  float32
	MaxTokens    int
}

// Usage reports the token accounting of a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StructuredResponse carries the raw JSON text returned by the model.
type StructuredResponse struct {
	Content  []byte
	Model    string
	Provider Provider
	Usage    Usage
}

// StructuredCompleter is a model capable of schema-constrained completions.
// Implementations do not validate Content against the schema; callers must.
type StructuredCompleter interface {
	CompleteStructured(ctx context.Context, req StructuredRequest) (StructuredResponse, error)
}
