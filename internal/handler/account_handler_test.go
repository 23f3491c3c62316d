package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/promptcoach-api/internal/config"
	"github.com/noah-isme/promptcoach-api/internal/dto"
	"github.com/noah-isme/promptcoach-api/internal/handler"
	"github.com/noah-isme/promptcoach-api/internal/service"
	"github.com/noah-isme/promptcoach-api/pkg/ai"
)

type mockUsageService struct {
	response dto.UsageResponse
	err      error
	userID   uint
}

func (m *mockUsageService) Today(_ context.Context, userID uint) (dto.UsageResponse, error) {
	m.userID = userID
	return m.response, m.err
}

func newAccountApp(evaluations service.EvaluationService, usage service.UsageService, userID uint) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/me", func(c *fiber.Ctx) error {
		if userID > 0 {
			c.Locals("user_id", userID)
		}
		return c.Next()
	})
	handler.NewAccountHandler(evaluations, usage, zerolog.Nop()).Register(group)
	return app
}

func TestAccountHandler_ListEvaluations(t *testing.T) {
	svc := &mockEvaluationService{
		items: []dto.EvaluationRunSummary{{RunID: "r1", Stage: "control", OverallScore: 82, Source: "local", CreatedAt: time.Now().UTC()}},
		meta:  dto.PaginationMeta{Page: 2, PageSize: 1, TotalItems: 3},
	}
	app := newAccountApp(svc, &mockUsageService{}, 7)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/me/evaluations?stage=control&page=2&page_size=1", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                       `json:"success"`
		Data    []dto.EvaluationRunSummary `json:"data"`
		Meta    dto.PaginationMeta         `json:"meta"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Len(t, response.Data, 1)
	require.Equal(t, int64(3), response.Meta.TotalItems)
	require.Equal(t, dto.EvaluationRunListQuery{Stage: "control", Page: 2, PageSize: 1}, svc.lastQuery)
}

func TestAccountHandler_RequiresUser(t *testing.T) {
	app := newAccountApp(&mockEvaluationService{}, &mockUsageService{}, 0)

	for _, path := range []string{"/api/v1/me/evaluations", "/api/v1/me/usage"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestAccountHandler_Usage(t *testing.T) {
	remaining := int64(800)
	usage := &mockUsageService{response: dto.UsageResponse{Date: "2026-03-02", TokensUsed: 200, DailyTokenQuota: 1000, RemainingTokens: &remaining}}
	app := newAccountApp(&mockEvaluationService{}, usage, 3)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/me/usage", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(3), usage.userID)

	var response struct {
		Data dto.UsageResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, int64(200), response.Data.TokensUsed)
	require.Equal(t, int64(800), *response.Data.RemainingTokens)

	usage.err = errors.New("db down")
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/me/usage", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

type providerSet map[ai.Provider]bool

func (p providerSet) Configured(provider ai.Provider) bool {
	return p[provider]
}

func TestModelHandler_List(t *testing.T) {
	app := fiber.New()
	catalog := service.NewModelCatalogService(providerSet{ai.ProviderOpenAI: true}, "")
	handler.NewModelHandler(catalog).Register(app.Group("/api/v1/models"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/models", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data []dto.ModelResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Len(t, response.Data, len(ai.Models()))
	for _, model := range response.Data {
		require.Equal(t, model.Provider == ai.ProviderOpenAI, model.Configured, model.ID)
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{AppName: "PromptCoach API", AppEnv: "test", AnthropicAPIKey: "key"}

	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Data    handler.HealthResponse `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	require.True(t, payload.Success)
	require.Equal(t, "ok", payload.Data.Status)
	require.Equal(t, cfg.AppName, payload.Data.Service)
	require.True(t, payload.Data.ModelBacked)
	require.WithinDuration(t, time.Now().UTC(), payload.Data.Timestamp, 2*time.Second)
}
