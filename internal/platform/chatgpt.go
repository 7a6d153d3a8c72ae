package platform

import (
	"context"
	"net/http"

	"github.com/echomed/resonance/internal/config"
)

// Probes answer better with hospital names when nudged toward concrete
// recommendations.
const chatgptSystemPrompt = "당신은 지역 병원 정보를 잘 아는 의료 정보 도우미입니다. " +
	"사용자의 질문에 구체적인 병원 이름을 포함해 답변하세요."

type ChatGPTClient struct {
	config *config.OpenAIConfig
	client *http.Client
}

func NewChatGPTClient(cfg *config.OpenAIConfig) *ChatGPTClient {
	return &ChatGPTClient{
		config: cfg,
		client: newChatHTTPClient(),
	}
}

func (c *ChatGPTClient) Platform() Platform {
	return ChatGPT
}

func (c *ChatGPTClient) Query(ctx context.Context, prompt string) (string, error) {
	return postChat(ctx, c.client, "https://api.openai.com/v1/chat/completions", c.config.APIKey, chatRequest{
		Model: c.config.QueryModel,
		Messages: []chatMessage{
			{Role: "system", Content: chatgptSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 1.0,
		MaxTokens:   800,
	})
}
