package platform

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/echomed/resonance/internal/config"
)

// GeminiClient probes Gemini through the official GenAI SDK.
type GeminiClient struct {
	config *config.GeminiConfig
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, cfg *config.GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		config: cfg,
		client: client,
	}, nil
}

func (c *GeminiClient) Platform() Platform {
	return Gemini
}

func (c *GeminiClient) Query(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx,
		c.config.Model,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}
