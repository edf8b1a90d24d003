// Package prefs extracts durable user preferences from completed exchanges
// and appends them to the memory store.
package prefs

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

const extractionSystemPrompt = `You extract durable user preferences from a single exchange.
Return ONLY a flat JSON object mapping preference name to value, for example:
{{"formatting": "bullet points", "language": "thai"}}

Only include preferences the user actually stated or clearly implied about
how they want to be assisted. Ignore facts about the task itself.
If there are no preferences, return exactly NONE.`

const extractionUserPrompt = `User message:
{user_message}

Assistant reply:
{assistant_reply}`

// Extractor runs the extraction prompt through a compiled template+model
// chain and parses the result. Extraction runs on the reply path, so every
// call gets the same per-call deadline as regular generation.
type Extractor struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
}

func NewExtractor(ctx context.Context, chatModel model.BaseChatModel, timeout time.Duration) (*Extractor, error) {
	template := prompt.FromMessages(schema.FString,
		schema.SystemMessage(extractionSystemPrompt),
		schema.UserMessage(extractionUserPrompt),
	)

	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(template).
		AppendChatModel(chatModel).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating extraction chain: %w", err)
	}

	return &Extractor{chain: chain, timeout: timeout}, nil
}

// Extract returns zero or more preference pairs from one exchange. A
// malformed model answer degrades to no preferences, never to an error the
// caller must handle differently.
func (e *Extractor) Extract(ctx context.Context, userMessage, assistantReply string) (map[string]string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	out, err := e.chain.Invoke(ctx, map[string]any{
		"user_message":    userMessage,
		"assistant_reply": assistantReply,
	})
	if err != nil {
		return nil, fmt.Errorf("error extracting preferences: %w", err)
	}
	return ParsePreferences(out.Content), nil
}
