package platform

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/echomed/resonance/internal/config"
)

// NewRegistryFromConfig registers a querier for every platform with a
// configured API key. At least one platform must be configured.
func NewRegistryFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Registry, error) {
	registry := NewRegistry(logger)

	if cfg.OpenAI.APIKey != "" {
		if err := registry.Register(NewChatGPTClient(&cfg.OpenAI)); err != nil {
			return nil, err
		}
	}
	if cfg.Perplexity.APIKey != "" {
		if err := registry.Register(NewPerplexityClient(&cfg.Perplexity)); err != nil {
			return nil, err
		}
	}
	if cfg.Gemini.APIKey != "" {
		gemini, err := NewGeminiClient(ctx, &cfg.Gemini)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(gemini); err != nil {
			return nil, err
		}
	}

	if len(registry.Available()) == 0 {
		return nil, fmt.Errorf("no measurement platform configured")
	}
	return registry, nil
}
