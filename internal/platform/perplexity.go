package platform

import (
	"context"
	"net/http"

	"github.com/echomed/resonance/internal/config"
)

// PerplexityClient talks to the Perplexity API, which reuses the OpenAI chat
// completions wire format.
type PerplexityClient struct {
	config *config.PerplexityConfig
	client *http.Client
}

func NewPerplexityClient(cfg *config.PerplexityConfig) *PerplexityClient {
	return &PerplexityClient{
		config: cfg,
		client: newChatHTTPClient(),
	}
}

func (c *PerplexityClient) Platform() Platform {
	return Perplexity
}

func (c *PerplexityClient) Query(ctx context.Context, prompt string) (string, error) {
	return postChat(ctx, c.client, "https://api.perplexity.ai/chat/completions", c.config.APIKey, chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 1.0,
		MaxTokens:   800,
	})
}
