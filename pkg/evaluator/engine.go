package evaluator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/promptcoach-api/pkg/ai"
)

const (
	// DefaultTemperature keeps model-backed evaluations close to deterministic.
	DefaultTemperature float32 = 0.2
	defaultMaxTokens           = 1200
)

// Fallback reasons reported in metrics and on Result.
const (
	FallbackTimeout  = "timeout"
	FallbackCanceled = "canceled"
	FallbackSchema   = "schema"
	FallbackProvider = "provider"
)

var (
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promptcoach",
		Subsystem: "evaluator",
		Name:      "evaluations_total",
		Help:      "Number of prompt evaluations by the path that produced them",
	}, []string{"source"})

	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promptcoach",
		Subsystem: "evaluator",
		Name:      "fallbacks_total",
		Help:      "Number of model-backed evaluations that fell back to the local rubric",
	}, []string{"reason"})
)

// Config tunes the model-backed path.
type Config struct {
	DefaultModel string
	Temperature  float32
	MaxTokens    int
}

// Engine evaluates prompts, delegating to a model when one is configured and
// falling back to the local rubric otherwise. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	completer ai.StructuredCompleter
	validator *outputValidator
	cfg       Config
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewEngine builds an engine. A nil completer yields a local-only engine.
func NewEngine(cfg Config, completer ai.StructuredCompleter, logger zerolog.Logger) (*Engine, error) {
	validator, err := newOutputValidator()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.DefaultModel) == "" {
		cfg.DefaultModel = ai.DefaultModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	return &Engine{
		completer: completer,
		validator: validator,
		cfg:       cfg,
		tracer:    otel.Tracer("github.com/noah-isme/promptcoach-api/pkg/evaluator"),
		logger:    logger.With().Str("component", "prompt_evaluator").Logger(),
	}, nil
}

// ModelBacked reports whether the engine has a completer configured.
func (e *Engine) ModelBacked() bool {
	return e.completer != nil
}

// EvaluateLocal runs the deterministic rubric. It never performs I/O.
func (e *Engine) EvaluateLocal(input Input) Evaluation {
	return EvaluateLocal(input)
}

// Evaluate returns a model-produced evaluation when possible and the local one otherwise.
// Failures of the model path are logged and never returned.
func (e *Engine) Evaluate(parent context.Context, input Input) Result {
	model := e.modelFor(input)
	if e.completer == nil {
		evaluationsTotal.WithLabelValues(string(SourceLocal)).Inc()
		return localResult(input, "")
	}

	ctx, span := e.tracer.Start(parent, "evaluator.evaluate", trace.WithAttributes(
		attribute.String("model", model),
		attribute.Int("previous_iterations", input.PreviousIterations),
	))
	defer span.End()

	evaluation, usage, err := e.evaluateWithModel(ctx, input, model)
	if err != nil {
		reason := fallbackReason(err)
		fallbacksTotal.WithLabelValues(reason).Inc()
		evaluationsTotal.WithLabelValues(string(SourceLocal)).Inc()
		span.RecordError(err)
		span.SetAttributes(attribute.String("fallback", reason))
		e.logger.Warn().Err(err).Str("model", model).Str("reason", reason).Msg("model evaluation failed, using local rubric")

		result := localResult(input, model)
		result.FallbackReason = reason
		return result
	}

	evaluationsTotal.WithLabelValues(string(SourceModel)).Inc()
	return Result{
		Evaluation: evaluation,
		Source:     SourceModel,
		Model:      model,
		TokensUsed: usage.TotalTokens,
	}
}

func (e *Engine) evaluateWithModel(ctx context.Context, input Input, model string) (Evaluation, ai.Usage, error) {
	resp, err := e.completer.CompleteStructured(ctx, ai.StructuredRequest{
		SystemPrompt: SystemPrompt,
		UserPrompt:   BuildUserPrompt(input),
		SchemaName:   SchemaName,
		Schema:       OutputSchema(),
		Model:        model,
		Temperature:  e.cfg.Temperature,
		MaxTokens:    e.cfg.MaxTokens,
	})
	if err != nil {
		return Evaluation{}, ai.Usage{}, err
	}

	evaluation, err := e.validator.decode(resp.Content)
	if err != nil {
		return Evaluation{}, ai.Usage{}, fmt.Errorf("model %s: %w", model, err)
	}
	if strings.TrimSpace(input.UserIntent) == "" {
		evaluation.IntentMatch = IntentNotApplicable
	}

	return evaluation, resp.Usage, nil
}

func (e *Engine) modelFor(input Input) string {
	if model := strings.TrimSpace(input.Model); model != "" {
		return model
	}
	return e.cfg.DefaultModel
}

// EvaluateLocal runs analyzer, intent matcher, classifier and composer.
func EvaluateLocal(input Input) Evaluation {
	finding := Analyze(input.Prompt)
	narrative := Compose(finding.Missing, input.Prompt)

	return Evaluation{
		WhatHappened: narrative.WhatHappened,
		Why:          narrative.Why,
		Improvements: narrative.Improvements,
		Rewrite:      narrative.Rewrite,
		Missing:      finding.Missing,
		Stage:        Classify(finding.Missing, input.PreviousIterations),
		Score:        finding.Score(),
		IntentMatch:  MatchIntent(input.Prompt, input.UserIntent),
	}
}

func localResult(input Input, model string) Result {
	return Result{
		Evaluation: EvaluateLocal(input),
		Source:     SourceLocal,
		Model:      model,
	}
}

func fallbackReason(err error) string {
	var schemaErr *SchemaError
	var timeoutErr interface{ Timeout() bool }
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &timeoutErr) && timeoutErr.Timeout():
		return FallbackTimeout
	case errors.Is(err, context.Canceled):
		return FallbackCanceled
	case errors.As(err, &schemaErr):
		return FallbackSchema
	default:
		return FallbackProvider
	}
}
