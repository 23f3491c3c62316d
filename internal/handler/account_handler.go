package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/promptcoach-api/internal/dto"
	"github.com/noah-isme/promptcoach-api/internal/service"
	"github.com/noah-isme/promptcoach-api/internal/utils"
)

// AccountHandler serves the authenticated user's history and usage.
type AccountHandler struct {
	evaluations service.EvaluationService
	usage       service.UsageService
	logger      zerolog.Logger
}

// NewAccountHandler constructs an account handler.
func NewAccountHandler(evaluations service.EvaluationService, usage service.UsageService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		evaluations: evaluations,
		usage:       usage,
		logger:      logger.With().Str("component", "account_handler").Logger(),
	}
}

// Register wires routes that must sit behind JWT authentication.
func (h *AccountHandler) Register(router fiber.Router) {
	router.Get("/evaluations", h.listEvaluations)
	router.Get("/usage", h.usageToday)
}

func (h *AccountHandler) listEvaluations(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var query dto.EvaluationRunListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	items, meta, err := h.evaluations.ListMine(c.UserContext(), userID, query)
	if err != nil {
		if isValidationError(err) {
			return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("user_id", userID).Msg("failed to list evaluations")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list evaluations")
	}

	return utils.OK(c, items, "evaluations retrieved", meta)
}

func (h *AccountHandler) usageToday(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	response, err := h.usage.Today(c.UserContext(), userID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("user_id", userID).Msg("failed to load usage")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load usage")
	}

	return utils.SendSuccess(c, "usage retrieved", response)
}
