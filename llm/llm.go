// Package llm talks to the hosted chat model that writes the final answer.
package llm

import (
	"context"
	"fmt"

	"github.com/Rahil-15/MediBot2.0/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

type Options struct {
	Provider    string
	Model       string
	Temperature float32
	MaxTokens   int

	OllamaHost string
	APIKey     string
	BaseURL    string
}

func NewClient(cfg config.Config) (Client, error) {
	opts := Options{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		OllamaHost:  cfg.OllamaHost,
	}

	if opts.Model == "" {
		return nil, fmt.Errorf("llm model is not configured")
	}

	switch opts.Provider {
	case config.ProviderOllama:
		return NewOllamaClient(opts), nil
	case config.ProviderOpenRouter:
		if cfg.OpenRouterAPIKey == "" {
			return nil, fmt.Errorf("openrouter provider selected but OPENROUTER_API_KEY not set")
		}
		opts.APIKey = cfg.OpenRouterAPIKey
		opts.BaseURL = cfg.OpenRouterBaseURL
		return NewOpenAIClient(opts), nil
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		opts.APIKey = cfg.OpenAIAPIKey
		opts.BaseURL = cfg.OpenAIBaseURL
		return NewOpenAIClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", opts.Provider)
	}
}
