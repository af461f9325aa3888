package llm

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

const (
	defaultAnthropicModel     = "claude-3-5-sonnet-latest"
	defaultAnthropicMaxTokens = 1024
)

// AnthropicClient calls the Messages API; system turns go to the system prompt.
type AnthropicClient struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature *float32
}

func NewAnthropicClient(cfg Config) *AnthropicClient {
	var opts []anthropic.ClientOption
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")))
	}
	c := &AnthropicClient{
		client:    anthropic.NewClient(cfg.APIKey, opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
	if c.model == "" {
		c.model = defaultAnthropicModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultAnthropicMaxTokens
	}
	if cfg.Temperature > 0 {
		t := cfg.Temperature
		c.temperature = &t
	}
	return c
}

func (c *AnthropicClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}
	var system []anthropic.MessageSystemPart
	var msgs []anthropic.Message
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, anthropic.MessageSystemPart{Type: "text", Text: m.Content})
		case RoleAssistant:
			if len(msgs) == 0 {
				// 대화는 user 턴으로 시작해야 한다
				msgs = append(msgs, anthropic.Message{
					Role:    anthropic.RoleUser,
					Content: []anthropic.MessageContent{anthropic.NewTextMessageContent("(inicio de la conversación)")},
				})
			}
			msgs = append(msgs, anthropic.Message{
				Role:    anthropic.RoleAssistant,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(nonEmpty(m.Content))},
			})
		default:
			msgs = append(msgs, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(nonEmpty(m.Content))},
			})
		}
	}
	if len(msgs) == 0 {
		return "", ErrNoMessages
	}

	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		Messages:    msgs,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if len(system) > 0 {
		req.MultiSystem = system
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			b.WriteString(*block.Text)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

// Messages API는 빈 텍스트 블록을 거부한다.
func nonEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "…"
	}
	return s
}
