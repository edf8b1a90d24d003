// Package llm wraps the generation capability behind a narrow interface so
// the routing and memory layers stay independent of any concrete provider.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/aniketh-deriv/smith-pm/internal/config"
)

// Generator is the opaque generation capability consumed by the router,
// the preference extractor and the feedback loop. Stateless per call; may
// fail with a generic error.
type Generator interface {
	Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error)
}

// ModelGenerator adapts an eino chat model to the Generator interface and
// enforces a per-call timeout so a stalled provider never stalls a turn.
type ModelGenerator struct {
	model   model.BaseChatModel
	timeout time.Duration
}

func NewModelGenerator(chatModel model.BaseChatModel, timeout time.Duration) *ModelGenerator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ModelGenerator{model: chatModel, timeout: timeout}
}

func (g *ModelGenerator) Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("error generating response: %w", err)
	}
	return out, nil
}

// NewGenerator builds the configured provider and wraps it with the
// configured timeout.
func NewGenerator(ctx context.Context, cfg config.ModelConfig) (Generator, error) {
	chatModel, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewModelGenerator(chatModel, cfg.Timeout), nil
}

// SupportedProviders lists the providers NewChatModel accepts.
func SupportedProviders() []string {
	return []string{"openai", "ollama", "deepseek", "ark"}
}

// IsSupportedProvider reports whether name maps to a known provider.
func IsSupportedProvider(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range SupportedProviders() {
		if p == name {
			return true
		}
	}
	return false
}
