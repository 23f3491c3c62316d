package router_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/promptcoach-api/internal/config"
	"github.com/noah-isme/promptcoach-api/internal/dto"
	"github.com/noah-isme/promptcoach-api/internal/handler"
	"github.com/noah-isme/promptcoach-api/internal/router"
	"github.com/noah-isme/promptcoach-api/internal/service"
)

type evaluationServiceStub struct {
	service.EvaluationService
}

func (evaluationServiceStub) Evaluate(context.Context, dto.EvaluateRequest, service.Caller) (dto.EvaluationResponse, error) {
	return dto.EvaluationResponse{Source: "local"}, nil
}

func (evaluationServiceStub) ListMine(context.Context, uint, dto.EvaluationRunListQuery) ([]dto.EvaluationRunSummary, dto.PaginationMeta, error) {
	return []dto.EvaluationRunSummary{}, dto.PaginationMeta{Page: 1, PageSize: 20}, nil
}

type usageServiceStub struct{}

func (usageServiceStub) Today(context.Context, uint) (dto.UsageResponse, error) {
	return dto.UsageResponse{}, nil
}

func newApp(t *testing.T) (*fiber.App, config.Config) {
	t.Helper()
	cfg := config.Config{
		AppName:           "PromptCoach API",
		JWTSecret:         "router-secret",
		EvaluateRateLimit: 2,
		RateLimitWindow:   time.Minute,
	}

	app := fiber.New()
	svc := evaluationServiceStub{}
	router.Register(app, cfg, router.Dependencies{
		EvaluationHandler: handler.NewEvaluationHandler(svc, zerolog.Nop()),
		AccountHandler:    handler.NewAccountHandler(svc, usageServiceStub{}, zerolog.Nop()),
		ModelHandler:      handler.NewModelHandler(service.NewModelCatalogService(nil, "")),
	})
	return app, cfg
}

func do(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRouterPublicRoutes(t *testing.T) {
	app, _ := newApp(t)

	resp := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "PromptCoach API", resp.Header.Get("X-Application"))

	resp = do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/models", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = do(t, app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRouterRateLimitsEvaluate(t *testing.T) {
	app, _ := newApp(t)

	newRequest := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations", bytes.NewBufferString(`{"prompt":"hi"}`))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	require.Equal(t, fiber.StatusCreated, do(t, app, newRequest()).StatusCode)
	require.Equal(t, fiber.StatusCreated, do(t, app, newRequest()).StatusCode)
	require.Equal(t, fiber.StatusTooManyRequests, do(t, app, newRequest()).StatusCode)
}

func TestRouterProtectsAccountRoutes(t *testing.T) {
	app, cfg := newApp(t)

	resp := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/me/evaluations", nil))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "11"})
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/evaluations", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp = do(t, app, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
