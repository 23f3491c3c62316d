package ai

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Provider names an LLM vendor.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
)

// DefaultModel is used when callers do not name a model.
const DefaultModel = "openai/gpt-4o-mini"

// ErrInvalidModelID indicates a model identifier not shaped like provider/name.
var ErrInvalidModelID = errors.New("invalid model id")

// ModelInfo describes a catalog entry.
type ModelInfo struct {
	ID          string   `json:"id"`
	Provider    Provider `json:"provider"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MaxTokens   int      `json:"max_tokens"`
}

var catalog = map[string]ModelInfo{
	"openai/gpt-4o":                        {Provider: ProviderOpenAI, Name: "GPT-4o", Description: "Most capable model, optimized for speed", MaxTokens: 128000},
	"openai/gpt-4o-mini":                   {Provider: ProviderOpenAI, Name: "GPT-4o Mini", Description: "Fast and affordable, great for most tasks", MaxTokens: 128000},
	"openai/gpt-4-turbo":                   {Provider: ProviderOpenAI, Name: "GPT-4 Turbo", Description: "High performance with extended context", MaxTokens: 128000},
	"anthropic/claude-3-5-sonnet-20241022": {Provider: ProviderAnthropic, Name: "Claude 3.5 Sonnet", Description: "Best balance of intelligence and speed", MaxTokens: 200000},
	"anthropic/claude-3-5-haiku-20241022":  {Provider: ProviderAnthropic, Name: "Claude 3.5 Haiku", Description: "Fastest model, great for simple tasks", MaxTokens: 200000},
	"anthropic/claude-3-opus-20240229":     {Provider: ProviderAnthropic, Name: "Claude 3 Opus", Description: "Most capable model", MaxTokens: 200000},
	"google/gemini-1.5-pro":                {Provider: ProviderGoogle, Name: "Gemini 1.5 Pro", Description: "Most capable Gemini model", MaxTokens: 1000000},
	"google/gemini-1.5-flash":              {Provider: ProviderGoogle, Name: "Gemini 1.5 Flash", Description: "Fast and efficient", MaxTokens: 1000000},
}

// ParseModelID splits "provider/name" into its parts.
func ParseModelID(id string) (Provider, string, error) {
	provider, name, ok := strings.Cut(strings.TrimSpace(id), "/")
	if !ok || provider == "" || name == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidModelID, id)
	}
	return Provider(strings.ToLower(provider)), name, nil
}

// LookupModel returns the catalog entry for id.
func LookupModel(id string) (ModelInfo, bool) {
	info, ok := catalog[id]
	if !ok {
		return ModelInfo{}, false
	}
	info.ID = id
	return info, true
}

// Models returns the catalog sorted by identifier.
func Models() []ModelInfo {
	models := make([]ModelInfo, 0, len(catalog))
	for id, info := range catalog {
		info.ID = id
		models = append(models, info)
	}
	sort.Slice(models, func(i, j int) bool {
		return models[i].ID < models[j].ID
	})
	return models
}
