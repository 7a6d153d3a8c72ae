package platform

import (
	"context"
	"net/http"

	"github.com/echomed/resonance/internal/config"
)

// JSONCompleter is the contract the mention classifier needs: one prompt in,
// one JSON document out.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, prompt string) (string, error)
}

// ClassifyClient runs the cheap classification model in JSON mode.
type ClassifyClient struct {
	config *config.OpenAIConfig
	client *http.Client
}

func NewClassifyClient(cfg *config.OpenAIConfig) *ClassifyClient {
	return &ClassifyClient{
		config: cfg,
		client: newChatHTTPClient(),
	}
}

func (c *ClassifyClient) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	return postChat(ctx, c.client, "https://api.openai.com/v1/chat/completions", c.config.APIKey, chatRequest{
		Model: c.config.ParseModel,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature:    0,
		MaxTokens:      200,
		ResponseFormat: &chatResponseFormat{Type: "json_object"},
	})
}
