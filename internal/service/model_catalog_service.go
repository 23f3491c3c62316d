package service

import (
	"github.com/noah-isme/promptcoach-api/internal/dto"
	"github.com/noah-isme/promptcoach-api/pkg/ai"
)

// ProviderRegistry reports which LLM providers have credentials.
type ProviderRegistry interface {
	Configured(provider ai.Provider) bool
}

// ModelCatalogService lists the models callers may request.
type ModelCatalogService interface {
	List() []dto.ModelResponse
}

type modelCatalogService struct {
	providers    ProviderRegistry
	defaultModel string
}

// NewModelCatalogService constructs the catalog. providers may be nil when no key is configured.
func NewModelCatalogService(providers ProviderRegistry, defaultModel string) ModelCatalogService {
	if defaultModel == "" {
		defaultModel = ai.DefaultModel
	}
	return &modelCatalogService{providers: providers, defaultModel: defaultModel}
}

func (s *modelCatalogService) List() []dto.ModelResponse {
	catalog := ai.Models()
	out := make([]dto.ModelResponse, 0, len(catalog))
	for _, info := range catalog {
		out = append(out, dto.ModelResponse{
			ModelInfo:  info,
			Configured: s.providers != nil && s.providers.Configured(info.Provider),
			Default:    info.ID == s.defaultModel,
		})
	}
	return out
}
