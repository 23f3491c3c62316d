package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/promptcoach-api/internal/dto"
	"github.com/noah-isme/promptcoach-api/internal/models"
	"github.com/noah-isme/promptcoach-api/internal/observability"
	"github.com/noah-isme/promptcoach-api/internal/repository"
	"github.com/noah-isme/promptcoach-api/pkg/evaluator"
)

// FallbackQuota marks evaluations served locally because the daily token budget is spent.
const FallbackQuota = "quota"

const maxTitleLength = 160

// ErrEvaluationRunNotFound indicates the run does not exist or belongs to someone else.
var ErrEvaluationRunNotFound = errors.New("evaluation run not found")

// PromptEvaluator is the subset of the evaluation engine the service depends on.
type PromptEvaluator interface {
	Evaluate(ctx context.Context, input evaluator.Input) evaluator.Result
	EvaluateLocal(input evaluator.Input) evaluator.Evaluation
	ModelBacked() bool
}

// Caller identifies who asked for an evaluation.
type Caller struct {
	UserID   *uint
	ClientIP string
}

func (c Caller) quotaSubject() string {
	if c.UserID != nil {
		return fmt.Sprintf("user:%d", *c.UserID)
	}
	return "ip:" + c.ClientIP
}

// EvaluationService runs prompt evaluations and keeps their history.
type EvaluationService interface {
	Evaluate(ctx context.Context, req dto.EvaluateRequest, caller Caller) (dto.EvaluationResponse, error)
	EvaluateLocal(ctx context.Context, req dto.EvaluateRequest) (dto.EvaluationResponse, error)
	Get(ctx context.Context, runID string, caller Caller) (dto.EvaluationRunResponse, error)
	ListMine(ctx context.Context, userID uint, query dto.EvaluationRunListQuery) ([]dto.EvaluationRunSummary, dto.PaginationMeta, error)
}

// EvaluationServiceConfig wires optional collaborators.
type EvaluationServiceConfig struct {
	Quota           UsageQuota
	Publisher       EvaluationPublisher
	DefaultPageSize int
}

type evaluationService struct {
	engine    PromptEvaluator
	runs      repository.EvaluationRunRepository
	usage     repository.UsageRepository
	quota     UsageQuota
	publisher EvaluationPublisher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	pageSize  int
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewEvaluationService constructs the evaluation workflow.
func NewEvaluationService(engine PromptEvaluator, runs repository.EvaluationRunRepository, usage repository.UsageRepository, validate *validator.Validate, cfg EvaluationServiceConfig, logger zerolog.Logger) EvaluationService {
	pageSize := cfg.DefaultPageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return &evaluationService{
		engine:    engine,
		runs:      runs,
		usage:     usage,
		quota:     cfg.Quota,
		publisher: cfg.Publisher,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		pageSize:  pageSize,
		logger:    logger.With().Str("component", "evaluation_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/promptcoach-api/internal/service/evaluation"),
	}
}

func (s *evaluationService) Evaluate(ctx context.Context, req dto.EvaluateRequest, caller Caller) (dto.EvaluationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "evaluation.evaluate")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.EvaluationResponse{}, err
	}

	input := req.Input()
	subject := caller.quotaSubject()

	var result evaluator.Result
	if s.withinQuota(ctx, subject, input) {
		result = s.engine.Evaluate(ctx, input)
	} else {
		result = evaluator.Result{
			Evaluation:     s.engine.EvaluateLocal(input),
			Source:         evaluator.SourceLocal,
			FallbackReason: FallbackQuota,
		}
	}
	span.SetAttributes(
		attribute.String("evaluation.source", string(result.Source)),
		attribute.String("evaluation.stage", string(result.Evaluation.Stage)),
	)

	if result.Source == evaluator.SourceModel && s.quota != nil {
		if err := s.quota.Consume(ctx, subject, result.TokensUsed); err != nil {
			span.RecordError(err)
			s.logger.Warn().Err(err).Str("subject", subject).Msg("failed to record quota usage")
		}
	}

	response := dto.NewEvaluationResponse(result)
	run, err := s.persist(ctx, req, caller, result)
	if err != nil {
		span.RecordError(err)
		observability.EvaluationRuns().WithLabelValues(string(result.Source), "unsaved").Inc()
		s.logger.Warn().Err(err).Msg("failed to persist evaluation run")
	} else {
		observability.EvaluationRuns().WithLabelValues(string(result.Source), "saved").Inc()
		response.RunID = run.PublicID
		createdAt := run.CreatedAt
		response.CreatedAt = &createdAt
	}

	s.publish(ctx, response, caller)

	span.SetStatus(codes.Ok, "evaluated")
	return response, nil
}

func (s *evaluationService) EvaluateLocal(ctx context.Context, req dto.EvaluateRequest) (dto.EvaluationResponse, error) {
	_, span := s.tracer.Start(ctx, "evaluation.evaluate_local")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.EvaluationResponse{}, err
	}

	return dto.NewEvaluationResponse(evaluator.Result{
		Evaluation: s.engine.EvaluateLocal(req.Input()),
		Source:     evaluator.SourceLocal,
	}), nil
}

func (s *evaluationService) Get(ctx context.Context, runID string, caller Caller) (dto.EvaluationRunResponse, error) {
	ctx, span := s.tracer.Start(ctx, "evaluation.get", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	if _, err := uuid.Parse(runID); err != nil {
		return dto.EvaluationRunResponse{}, ErrEvaluationRunNotFound
	}

	run, err := s.runs.GetByPublicID(ctx, runID)
	if err != nil {
		if errors.Is(err, repository.ErrEvaluationRunNotFound) {
			return dto.EvaluationRunResponse{}, ErrEvaluationRunNotFound
		}
		span.RecordError(err)
		return dto.EvaluationRunResponse{}, err
	}

	if run.UserID != nil && (caller.UserID == nil || *caller.UserID != *run.UserID) {
		return dto.EvaluationRunResponse{}, ErrEvaluationRunNotFound
	}

	return dto.NewEvaluationRunResponse(run)
}

func (s *evaluationService) ListMine(ctx context.Context, userID uint, query dto.EvaluationRunListQuery) ([]dto.EvaluationRunSummary, dto.PaginationMeta, error) {
	ctx, span := s.tracer.Start(ctx, "evaluation.list_mine")
	defer span.End()

	if err := s.validator.Struct(query); err != nil {
		return nil, dto.PaginationMeta{}, err
	}

	page := query.Page
	if page <= 0 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	runs, total, err := s.runs.ListByUser(ctx, userID, repository.EvaluationRunFilter{
		Stage:    query.Stage,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		span.RecordError(err)
		return nil, dto.PaginationMeta{}, err
	}

	return dto.NewEvaluationRunSummarySlice(runs), dto.PaginationMeta{Page: page, PageSize: pageSize, TotalItems: total}, nil
}

// withinQuota fails open when the quota store is unavailable.
func (s *evaluationService) withinQuota(ctx context.Context, subject string, input evaluator.Input) bool {
	if s.quota == nil || !s.engine.ModelBacked() {
		return true
	}

	allowed, err := s.quota.Allow(ctx, subject, evaluator.EstimateTokens(input.Prompt))
	if err != nil {
		observability.QuotaDecisions().WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Str("subject", subject).Msg("quota check failed, allowing request")
		return true
	}
	if !allowed {
		observability.QuotaDecisions().WithLabelValues("exhausted").Inc()
		s.logger.Info().Str("subject", subject).Msg("daily token quota exhausted, evaluating locally")
		return false
	}

	observability.QuotaDecisions().WithLabelValues("allowed").Inc()
	return true
}

func (s *evaluationService) persist(ctx context.Context, req dto.EvaluateRequest, caller Caller, result evaluator.Result) (models.EvaluationRun, error) {
	payload, err := json.Marshal(result.Evaluation)
	if err != nil {
		return models.EvaluationRun{}, err
	}

	run := models.EvaluationRun{
		PublicID:           uuid.NewString(),
		UserID:             caller.UserID,
		Title:              s.sanitizeTitle(req.Title),
		Prompt:             req.Prompt,
		UserIntent:         strings.TrimSpace(req.UserIntent),
		PreviousIterations: req.PreviousIterations,
		Model:              result.Model,
		Source:             string(result.Source),
		FallbackReason:     result.FallbackReason,
		Stage:              string(result.Evaluation.Stage),
		OverallScore:       result.Evaluation.Score.Overall,
		Evaluation:         datatypes.JSON(payload),
	}
	if err := s.runs.Create(ctx, &run); err != nil {
		return models.EvaluationRun{}, err
	}

	if result.Source == evaluator.SourceModel && result.TokensUsed > 0 {
		entry := models.UsageLog{
			UserID:     caller.UserID,
			RunID:      run.ID,
			Model:      result.Model,
			TokensUsed: result.TokensUsed,
		}
		if err := s.usage.Create(ctx, &entry); err != nil {
			s.logger.Warn().Err(err).Str("run_id", run.PublicID).Msg("failed to record usage log")
		}
	}

	return run, nil
}

func (s *evaluationService) publish(ctx context.Context, response dto.EvaluationResponse, caller Caller) {
	if s.publisher == nil {
		return
	}

	missing := make([]string, 0, len(response.Evaluation.Missing))
	for _, dimension := range response.Evaluation.Missing {
		missing = append(missing, string(dimension))
	}

	event := EvaluationEvent{
		Type:           EvaluationEventCompleted,
		RunID:          response.RunID,
		UserID:         caller.UserID,
		Stage:          string(response.Evaluation.Stage),
		OverallScore:   response.Evaluation.Score.Overall,
		IntentMatch:    response.Evaluation.IntentMatch,
		Missing:        missing,
		Source:         response.Source,
		Model:          response.Model,
		FallbackReason: response.FallbackReason,
		TokensUsed:     response.TokensUsed,
	}
	if err := s.publisher.PublishEvaluation(ctx, event); err != nil {
		observability.EvaluationEvents().WithLabelValues("failed").Inc()
		s.logger.Warn().Err(err).Str("run_id", response.RunID).Msg("failed to publish evaluation event")
		return
	}
	observability.EvaluationEvents().WithLabelValues("published").Inc()
}

func (s *evaluationService) sanitizeTitle(title string) string {
	cleaned := strings.Join(strings.Fields(s.sanitizer.Sanitize(title)), " ")
	if utf8.RuneCountInString(cleaned) > maxTitleLength {
		cleaned = string([]rune(cleaned)[:maxTitleLength])
	}
	return cleaned
}
