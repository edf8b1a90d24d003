// Package feedback turns explicit user feedback into revised agent
// instructions, persisted as the single overwritten entry per agent.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"

	"github.com/aniketh-deriv/smith-pm/internal/agent"
	"github.com/aniketh-deriv/smith-pm/internal/llm"
	"github.com/aniketh-deriv/smith-pm/internal/memory"
	"github.com/aniketh-deriv/smith-pm/internal/router"
)

// ErrStoreUnavailable is returned when the memory store cannot serve the
// loop. Unlike conversation persistence, the feedback loop cannot proceed
// best-effort without its store.
var ErrStoreUnavailable = errors.New("memory store unavailable")

// maxContextEntries bounds how many recent turns feed the revision.
const maxContextEntries = 5

const revisePrompt = `You improve the standing instructions of an assistant agent.
Given its current instructions, recent conversation context and explicit user
feedback, produce a complete revised instruction text. Keep what works,
apply the feedback, stay concise. Return only the revised instructions.`

const summaryPrompt = `Summarize, in two or three sentences for the person who gave
the feedback, what changed between the previous and the revised instructions.`

// Reflector drives the improve loop for one agent at a time.
type Reflector struct {
	store memory.Store
	gen   llm.Generator
}

func New(store memory.Store, gen llm.Generator) *Reflector {
	return &Reflector{store: store, gen: gen}
}

// Improve revises agentName's instructions from feedback and returns a
// human-readable summary of the change. The write is atomic with respect to
// generation: both generation calls must succeed before anything is stored;
// any failure leaves the stored instructions untouched.
func (r *Reflector) Improve(ctx context.Context, agentName, userID, feedbackText string) (string, error) {
	if r.store == nil {
		return "", ErrStoreUnavailable
	}

	current, err := agent.Instructions(ctx, r.store, agentName)
	if errors.Is(err, agent.ErrUnknownAgent) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	recent, err := r.recentContext(ctx, userID, agentName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	revised, err := r.gen.Generate(ctx, []*schema.Message{
		schema.SystemMessage(revisePrompt),
		schema.UserMessage(fmt.Sprintf(
			"Current instructions:\n%s\n\nRecent conversation context:\n%s\n\nUser feedback:\n%s",
			current, recent, feedbackText)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to revise instructions: %w", err)
	}
	if strings.TrimSpace(revised.Content) == "" {
		return "", fmt.Errorf("revision produced empty instructions")
	}

	summary, err := r.gen.Generate(ctx, []*schema.Message{
		schema.SystemMessage(summaryPrompt),
		schema.UserMessage(fmt.Sprintf(
			"Previous instructions:\n%s\n\nRevised instructions:\n%s", current, revised.Content)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to summarize improvement: %w", err)
	}

	if err := agent.SaveInstructions(ctx, r.store, agentName, revised.Content); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return summary.Content, nil
}

// recentContext formats up to the 5 most recent turns from the agent's own
// namespace for the given user.
func (r *Reflector) recentContext(ctx context.Context, userID, agentName string) (string, error) {
	ns := memory.Namespace{Owner: memory.UserOwner(userID), Category: memory.AgentCategory(agentName)}
	keys, err := memory.LatestKeys(ctx, r.store, ns, maxContextEntries)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := len(keys) - 1; i >= 0; i-- {
		blob, ok, err := r.store.Get(ctx, ns, keys[i])
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		var record router.TurnRecord
		if err := sonic.Unmarshal(blob, &record); err != nil {
			continue
		}
		fmt.Fprintf(&b, "UserMessage(%s)\nAssistantMessage(%s)\n", record.User, record.Assistant)
	}
	if b.Len() == 0 {
		return "(no recent conversations)", nil
	}
	return b.String(), nil
}
