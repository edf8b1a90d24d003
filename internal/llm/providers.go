package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	ollamaapi "github.com/ollama/ollama/api"

	"github.com/aniketh-deriv/smith-pm/internal/config"
)

// NewChatModel constructs the chat model for the configured provider. The
// openai provider also covers OpenAI-compatible gateways via MODEL_BASE_URL.
func NewChatModel(ctx context.Context, cfg config.ModelConfig) (model.BaseChatModel, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		maxTokens := cfg.MaxTokens
		temperature := float32(cfg.Temperature)
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating openai chat model: %w", err)
		}
		return chatModel, nil

	case "ollama":
		temperature := float32(cfg.Temperature)
		chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Options: &ollamaapi.Options{
				Temperature: temperature,
				NumPredict:  cfg.MaxTokens,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("error creating ollama chat model: %w", err)
		}
		return chatModel, nil

	case "deepseek":
		chatModel, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating deepseek chat model: %w", err)
		}
		return chatModel, nil

	case "ark":
		chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating ark chat model: %w", err)
		}
		return chatModel, nil

	default:
		return nil, fmt.Errorf("unknown model provider %q (supported: %s)",
			cfg.Provider, strings.Join(SupportedProviders(), ", "))
	}
}
