package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

// AnthropicConfig defines configuration options for the Anthropic completer.
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
	Logger    zerolog.Logger
}

// AnthropicCompleter implements StructuredCompleter with the Messages API. The
// schema is appended to the system prompt because the API has no native JSON
// schema response format.
type AnthropicCompleter struct {
	client anthropic.Client
	cfg    AnthropicConfig
	logger zerolog.Logger
}

// NewAnthropicCompleter constructs a new completer.
func NewAnthropicCompleter(cfg AnthropicConfig) (*AnthropicCompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &AnthropicCompleter{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "anthropic_completer").Logger(),
	}, nil
}

// CompleteStructured sends the request and concatenates the text blocks of the reply.
func (c *AnthropicCompleter) CompleteStructured(ctx context.Context, req StructuredRequest) (StructuredResponse, error) {
	system, err := systemPromptWithSchema(req)
	if err != nil {
		return StructuredResponse{}, err
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(maxTokens),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt))},
		Temperature: anthropic.Float(float64(req.Temperature)),
	})
	if err != nil {
		return StructuredResponse{}, fmt.Errorf("anthropic messages: %w", err)
	}

	var builder strings.Builder
	for _, content := range message.Content {
		if block, ok := content.AsAny().(anthropic.TextBlock); ok {
			builder.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return StructuredResponse{}, ErrEmptyCompletion
	}

	input := int(message.Usage.InputTokens)
	output := int(message.Usage.OutputTokens)
	c.logger.Debug().Str("model", string(message.Model)).Int("output_tokens", output).Msg("anthropic completion received")

	return StructuredResponse{
		Content: []byte(text),
		Model:   string(message.Model),
		Usage: Usage{
			PromptTokens:     input,
			CompletionTokens: output,
			TotalTokens:      input + output,
		},
	}, nil
}

func systemPromptWithSchema(req StructuredRequest) (string, error) {
	schema, err := json.Marshal(req.Schema)
	if err != nil {
		return "", fmt.Errorf("marshal response schema: %w", err)
	}

	builder := strings.Builder{}
	builder.WriteString(req.SystemPrompt)
	builder.WriteString("\n\nRespond with a single JSON object and nothing else. It must validate against this JSON Schema:\n")
	builder.Write(schema)
	return builder.String(), nil
}
