package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Client produces one assistant reply for an ordered message list.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

var (
	ErrEmptyCompletion = errors.New("llm returned an empty completion")
	ErrNoMessages      = errors.New("llm request has no messages")
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config selects and parameterizes a provider.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
}

// NewClient는 Provider 값에 따라 클라이언트를 만든다 (기본 openai).
func NewClient(cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s api key is required", providerName(cfg.Provider))
	}
	switch providerName(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}

func providerName(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return ProviderOpenAI
	}
	return p
}
