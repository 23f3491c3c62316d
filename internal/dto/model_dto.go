package dto

import "github.com/noah-isme/promptcoach-api/pkg/ai"

// ModelResponse describes one entry of the model catalog.
type ModelResponse struct {
	ai.ModelInfo
	Configured bool `json:"configured"`
	Default    bool `json:"default"`
}
