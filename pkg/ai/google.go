package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// GoogleConfig defines configuration options for the Gemini completer.
type GoogleConfig struct {
	APIKey    string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
	Logger    zerolog.Logger
}

// GoogleCompleter implements StructuredCompleter against the Gemini API.
type GoogleCompleter struct {
	client *genai.Client
	cfg    GoogleConfig
	logger zerolog.Logger
}

// NewGoogleCompleter constructs a Gemini completer.
func NewGoogleCompleter(ctx context.Context, cfg GoogleConfig) (*GoogleCompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("google api key is required")
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GoogleCompleter{
		client: client,
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "google_completer").Logger(),
	}, nil
}

// CompleteStructured requests an application/json response constrained by the schema.
func (c *GoogleCompleter) CompleteStructured(ctx context.Context, req StructuredRequest) (StructuredResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction:  genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		Temperature:        genai.Ptr(req.Temperature),
		MaxOutputTokens:    int32(maxTokens),
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: req.Schema,
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.UserPrompt), config)
	if err != nil {
		return StructuredResponse{}, fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return StructuredResponse{}, ErrEmptyCompletion
	}

	usage := Usage{}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	c.logger.Debug().Str("model", req.Model).Int("total_tokens", usage.TotalTokens).Msg("gemini completion received")

	return StructuredResponse{
		Content: []byte(text),
		Model:   resp.ModelVersion,
		Usage:   usage,
	}, nil
}
