package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/aniketh-deriv/smith-pm/internal/config"
)

type stubModel struct {
	reply string
	err   error
	delay time.Duration
}

func (s *stubModel) Generate(ctx context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.reply, nil), nil
}

func (s *stubModel) Stream(ctx context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestNewChatModelRejectsUnknownProvider(t *testing.T) {
	_, err := NewChatModel(context.Background(), config.ModelConfig{Provider: "bogus"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Errorf("error should name the provider: %v", err)
	}
}

func TestIsSupportedProvider(t *testing.T) {
	for _, name := range SupportedProviders() {
		if !IsSupportedProvider(name) {
			t.Errorf("%s should be supported", name)
		}
	}
	if IsSupportedProvider("claude-web") {
		t.Error("unexpected provider accepted")
	}
}

func TestModelGeneratorTimeout(t *testing.T) {
	gen := NewModelGenerator(&stubModel{reply: "late", delay: time.Second}, 10*time.Millisecond)

	_, err := gen.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestModelGeneratorPassesReply(t *testing.T) {
	gen := NewModelGenerator(&stubModel{reply: "hello there"}, time.Second)

	out, err := gen.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Content != "hello there" {
		t.Errorf("got %q", out.Content)
	}
}
