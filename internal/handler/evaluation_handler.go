package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/promptcoach-api/internal/dto"
	"github.com/noah-isme/promptcoach-api/internal/service"
	"github.com/noah-isme/promptcoach-api/internal/utils"
)

// EvaluationHandler exposes prompt evaluation endpoints.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler constructs an evaluation handler.
func NewEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register wires evaluation routes. evaluateMiddleware runs in front of the
// model-backed endpoint only.
func (h *EvaluationHandler) Register(router fiber.Router, evaluateMiddleware ...fiber.Handler) {
	router.Post("/local", h.evaluateLocal)
	router.Get("/:id", h.get)
	router.Post("", append(evaluateMiddleware, h.evaluate)...)
}

func (h *EvaluationHandler) evaluate(c *fiber.Ctx) error {
	var payload dto.EvaluateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Evaluate(c.UserContext(), payload, callerFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	if response.FallbackReason != "" {
		requestLogger(h.logger, c).Info().
			Str("run_id", response.RunID).
			Str("fallback_reason", response.FallbackReason).
			Msg("evaluation served by local rubric")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "prompt evaluated", response)
}

func (h *EvaluationHandler) evaluateLocal(c *fiber.Ctx) error {
	var payload dto.EvaluateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.EvaluateLocal(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "prompt evaluated locally", response)
}

func (h *EvaluationHandler) get(c *fiber.Ctx) error {
	response, err := h.service.Get(c.UserContext(), c.Params("id"), callerFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation retrieved", response)
}

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	case errors.Is(err, service.ErrEvaluationRunNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "evaluation not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("evaluation request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to evaluate prompt")
	}
}
