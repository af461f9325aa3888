package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

const defaultOpenAIModel = "gpt-4"

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature *float32
}

func NewOpenAIClient(cfg Config) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	c := &OpenAIClient{
		client:    openai.NewClientWithConfig(oc),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
	if c.model == "" {
		c.model = defaultOpenAIModel
	}
	if cfg.Temperature > 0 {
		t := cfg.Temperature
		c.temperature = &t
	}
	return c
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
	}
	if c.maxTokens > 0 {
		req.MaxTokens = c.maxTokens
	}
	if c.temperature != nil {
		req.Temperature = c.temperature
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}
