package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/promptcoach-api/internal/models"
	"github.com/noah-isme/promptcoach-api/pkg/evaluator"
)

// EvaluateRequest is the payload accepted by the evaluate endpoints.
type EvaluateRequest struct {
	Prompt             string `json:"prompt" validate:"required,max=8000"`
	UserIntent         string `json:"user_intent" validate:"omitempty,max=2000"`
	PreviousIterations int    `json:"previous_iterations" validate:"gte=0,lte=1000"`
	Model              string `json:"model" validate:"omitempty,max=96,model_id"`
	Title              string `json:"title" validate:"omitempty,max=160"`
}

// Input converts the request into the engine input.
func (r EvaluateRequest) Input() evaluator.Input {
	return evaluator.Input{
		Prompt:             r.Prompt,
		UserIntent:         r.UserIntent,
		PreviousIterations: r.PreviousIterations,
		Model:              r.Model,
	}
}

// EvaluationResponse wraps an evaluation with its provenance.
type EvaluationResponse struct {
	RunID          string               `json:"run_id,omitempty"`
	Evaluation     evaluator.Evaluation `json:"evaluation"`
	Source         string               `json:"source"`
	Model          string               `json:"model,omitempty"`
	FallbackReason string               `json:"fallback_reason,omitempty"`
	TokensUsed     int                  `json:"tokens_used"`
	CreatedAt      *time.Time           `json:"created_at,omitempty"`
}

// NewEvaluationResponse builds the response for a freshly evaluated prompt.
func NewEvaluationResponse(result evaluator.Result) EvaluationResponse {
	return EvaluationResponse{
		Evaluation:     result.Evaluation,
		Source:         string(result.Source),
		Model:          result.Model,
		FallbackReason: result.FallbackReason,
		TokensUsed:     result.TokensUsed,
	}
}

// EvaluationRunResponse is the serialized representation of a stored run.
type EvaluationRunResponse struct {
	RunID              string               `json:"run_id"`
	Title              string               `json:"title,omitempty"`
	Prompt             string               `json:"prompt"`
	UserIntent         string               `json:"user_intent,omitempty"`
	PreviousIterations int                  `json:"previous_iterations"`
	Evaluation         evaluator.Evaluation `json:"evaluation"`
	Source             string               `json:"source"`
	Model              string               `json:"model,omitempty"`
	FallbackReason     string               `json:"fallback_reason,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
}

// NewEvaluationRunResponse converts a stored run into a DTO.
func NewEvaluationRunResponse(run models.EvaluationRun) (EvaluationRunResponse, error) {
	var evaluation evaluator.Evaluation
	if err := json.Unmarshal(run.Evaluation, &evaluation); err != nil {
		return EvaluationRunResponse{}, err
	}

	return EvaluationRunResponse{
		RunID:              run.PublicID,
		Title:              run.Title,
		Prompt:             run.Prompt,
		UserIntent:         run.UserIntent,
		PreviousIterations: run.PreviousIterations,
		Evaluation:         evaluation,
		Source:             run.Source,
		Model:              run.Model,
		FallbackReason:     run.FallbackReason,
		CreatedAt:          run.CreatedAt,
	}, nil
}

// EvaluationRunSummary is the compact list representation of a stored run.
type EvaluationRunSummary struct {
	RunID        string    `json:"run_id"`
	Title        string    `json:"title,omitempty"`
	Stage        string    `json:"stage"`
	OverallScore int       `json:"overall_score"`
	Source       string    `json:"source"`
	Model        string    `json:"model,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewEvaluationRunSummarySlice converts runs into list DTOs.
func NewEvaluationRunSummarySlice(runs []models.EvaluationRun) []EvaluationRunSummary {
	out := make([]EvaluationRunSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, EvaluationRunSummary{
			RunID:        run.PublicID,
			Title:        run.Title,
			Stage:        run.Stage,
			OverallScore: run.OverallScore,
			Source:       run.Source,
			Model:        run.Model,
			CreatedAt:    run.CreatedAt,
		})
	}
	return out
}

// EvaluationRunListQuery filters a user's run history.
type EvaluationRunListQuery struct {
	Stage    string `query:"stage" validate:"omitempty,oneof=onboarding fundamentals structure control reflection"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// PaginationMeta describes a paged list.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
}
