package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/aniketh-deriv/smith-pm/internal/llm"
)

// Selector picks at most one specialist for a message. An empty name means
// the dispatcher answers directly. Selection is a black box from the
// router's point of view; this is the injected strategy from the redesign
// notes, so the routing state machine stays deterministic and testable.
type Selector interface {
	Select(ctx context.Context, text string, history []*schema.Message) (string, error)
}

// ModelSelector asks the generation capability to name a specialist.
type ModelSelector struct {
	gen    llm.Generator
	roster []Definition
}

func NewModelSelector(gen llm.Generator, roster []Definition) *ModelSelector {
	return &ModelSelector{gen: gen, roster: roster}
}

func (s *ModelSelector) Select(ctx context.Context, text string, history []*schema.Message) (string, error) {
	var prompt strings.Builder
	prompt.WriteString("You route messages to exactly one specialized agent, or answer NONE\n")
	prompt.WriteString("when the general assistant should reply itself.\n\nAgents:\n")
	for _, def := range s.roster {
		if def.Name == DispatcherName {
			continue
		}
		fmt.Fprintf(&prompt, "- %s: %s\n", def.Name, def.Description)
	}
	prompt.WriteString("\nReply with only the agent name or NONE. No explanation.")

	messages := []*schema.Message{schema.SystemMessage(prompt.String())}
	messages = append(messages, history...)
	messages = append(messages, schema.UserMessage(text))

	out, err := s.gen.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("error selecting agent: %w", err)
	}
	return ParseSelection(out.Content, s.roster), nil
}

// ParseSelection extracts an agent name from free-form model output.
// Tolerates decoration around the name; anything unrecognized resolves to
// the dispatcher (empty string).
func ParseSelection(content string, roster []Definition) string {
	normalized := strings.ToLower(strings.TrimSpace(content))
	if normalized == "" || strings.HasPrefix(normalized, "none") {
		return ""
	}
	for _, def := range roster {
		if def.Name == DispatcherName {
			continue
		}
		if strings.Contains(normalized, strings.ToLower(def.Name)) {
			return def.Name
		}
	}
	return ""
}
