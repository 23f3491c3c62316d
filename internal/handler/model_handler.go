package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/promptcoach-api/internal/service"
	"github.com/noah-isme/promptcoach-api/internal/utils"
)

// ModelHandler lists the models an evaluation can target.
type ModelHandler struct {
	catalog service.ModelCatalogService
}

// NewModelHandler constructs a model handler.
func NewModelHandler(catalog service.ModelCatalogService) *ModelHandler {
	return &ModelHandler{catalog: catalog}
}

// Register wires model routes.
func (h *ModelHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *ModelHandler) list(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "models retrieved", h.catalog.List())
}
