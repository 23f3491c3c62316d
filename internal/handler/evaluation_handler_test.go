package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/promptcoach-api/internal/dto"
	"github.com/noah-isme/promptcoach-api/internal/handler"
	"github.com/noah-isme/promptcoach-api/internal/service"
	"github.com/noah-isme/promptcoach-api/pkg/evaluator"
)

type mockEvaluationService struct {
	lastRequest dto.EvaluateRequest
	lastCaller  service.Caller
	lastQuery   dto.EvaluationRunListQuery
	response    dto.EvaluationResponse
	run         dto.EvaluationRunResponse
	items       []dto.EvaluationRunSummary
	meta        dto.PaginationMeta
	err         error
}

func (m *mockEvaluationService) Evaluate(_ context.Context, req dto.EvaluateRequest, caller service.Caller) (dto.EvaluationResponse, error) {
	m.lastRequest = req
	m.lastCaller = caller
	if m.err != nil {
		return dto.EvaluationResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockEvaluationService) EvaluateLocal(_ context.Context, req dto.EvaluateRequest) (dto.EvaluationResponse, error) {
	m.lastRequest = req
	if m.err != nil {
		return dto.EvaluationResponse{}, m.err
	}
	return dto.NewEvaluationResponse(evaluator.Result{Evaluation: evaluator.EvaluateLocal(req.Input()), Source: evaluator.SourceLocal}), nil
}

func (m *mockEvaluationService) Get(_ context.Context, runID string, caller service.Caller) (dto.EvaluationRunResponse, error) {
	m.lastCaller = caller
	if m.err != nil {
		return dto.EvaluationRunResponse{}, m.err
	}
	return m.run, nil
}

func (m *mockEvaluationService) ListMine(_ context.Context, userID uint, query dto.EvaluationRunListQuery) ([]dto.EvaluationRunSummary, dto.PaginationMeta, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, dto.PaginationMeta{}, m.err
	}
	return m.items, m.meta, nil
}

func newEvaluationApp(svc service.EvaluationService, userID uint) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/evaluations", func(c *fiber.Ctx) error {
		if userID > 0 {
			c.Locals("user_id", userID)
		}
		return c.Next()
	})
	handler.NewEvaluationHandler(svc, zerolog.New(io.Discard)).Register(group)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func TestEvaluationHandler_EvaluateSuccess(t *testing.T) {
	local := evaluator.EvaluateLocal(evaluator.Input{Prompt: "Tell me about dogs"})
	now := time.Now().UTC()
	svc := &mockEvaluationService{response: dto.EvaluationResponse{
		RunID:      "6f1c7f3e-51a4-4a1e-8a6c-1d9f2a3b4c5d",
		Evaluation: local,
		Source:     "model",
		Model:      "openai/gpt-4o-mini",
		TokensUsed: 512,
		CreatedAt:  &now,
	}}
	app := newEvaluationApp(svc, 42)

	resp := postJSON(t, app, "/api/v1/evaluations", map[string]interface{}{
		"prompt":              "Tell me about dogs",
		"user_intent":         "learn about breeds",
		"previous_iterations": 2,
		"model":               "openai/gpt-4o-mini",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool                   `json:"success"`
		Data    dto.EvaluationResponse `json:"data"`
		Message string                 `json:"message"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, "prompt evaluated", response.Message)
	require.Equal(t, local, response.Data.Evaluation)
	require.Equal(t, 512, response.Data.TokensUsed)
	require.Equal(t, 2, svc.lastRequest.PreviousIterations)
	require.Equal(t, "learn about breeds", svc.lastRequest.UserIntent)
	require.NotNil(t, svc.lastCaller.UserID)
	require.Equal(t, uint(42), *svc.lastCaller.UserID)
	require.NotEmpty(t, svc.lastCaller.ClientIP)
}

func TestEvaluationHandler_AnonymousCaller(t *testing.T) {
	svc := &mockEvaluationService{response: dto.EvaluationResponse{Source: "local"}}
	app := newEvaluationApp(svc, 0)

	resp := postJSON(t, app, "/api/v1/evaluations", map[string]string{"prompt": "hi"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Nil(t, svc.lastCaller.UserID)
}

func TestEvaluationHandler_ValidationError(t *testing.T) {
	validate := validator.New()
	require.NoError(t, dto.RegisterValidators(validate))
	validationErr := validate.Struct(dto.EvaluateRequest{PreviousIterations: -1})
	require.Error(t, validationErr)

	svc := &mockEvaluationService{err: validationErr}
	app := newEvaluationApp(svc, 0)

	resp := postJSON(t, app, "/api/v1/evaluations", map[string]interface{}{"prompt": "", "previous_iterations": -1})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var response struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	}
	decodeResponse(t, resp, &response)
	require.False(t, response.Success)
	require.Equal(t, "validation failed", response.Message)
	require.Equal(t, "required", response.Details["prompt"])
	require.Equal(t, "gte", response.Details["previous_iterations"])
}

func TestEvaluationHandler_InvalidBody(t *testing.T) {
	app := newEvaluationApp(&mockEvaluationService{}, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestEvaluationHandler_EvaluateMiddlewareOnlyGuardsModelRoute(t *testing.T) {
	svc := &mockEvaluationService{}
	app := fiber.New()
	blocked := func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusTooManyRequests)
	}
	handler.NewEvaluationHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/evaluations"), blocked)

	resp := postJSON(t, app, "/api/v1/evaluations", map[string]string{"prompt": "hi"})
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/evaluations/local", map[string]string{"prompt": "hi"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestEvaluationHandler_GetNotFound(t *testing.T) {
	app := newEvaluationApp(&mockEvaluationService{err: service.ErrEvaluationRunNotFound}, 0)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/missing", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestEvaluationHandler_InternalError(t *testing.T) {
	app := newEvaluationApp(&mockEvaluationService{err: errors.New("boom")}, 0)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/abc", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestEvaluationLocalContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("testdata", "evaluation_response.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	app := newEvaluationApp(&mockEvaluationService{}, 0)
	for _, prompt := range []string{"", "Tell me about dogs", "Summarize this in JSON for executives, keep it short, top one only"} {
		resp := postJSON(t, app, "/api/v1/evaluations/local", map[string]interface{}{
			"prompt":              prompt,
			"user_intent":         "learn about dog breeds",
			"previous_iterations": 2,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()

		var payload interface{}
		require.NoError(t, json.Unmarshal(body, &payload))
		require.NoError(t, schema.Validate(payload), "prompt %q", prompt)
	}
}
