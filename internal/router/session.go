package router

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"

	"github.com/aniketh-deriv/smith-pm/internal/logger"
	"github.com/aniketh-deriv/smith-pm/internal/memory"
)

// TurnRecord is the stored form of one completed turn: the user message and
// the reply it produced. The same record is written under one synthesized
// key into the per-thread, the global per-user and the handling agent's
// namespaces so later reads can correlate them.
type TurnRecord struct {
	ThreadID  string    `json:"thread_id"`
	UserID    string    `json:"user_id"`
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	Agent     string    `json:"agent"`
	Timestamp time.Time `json:"timestamp"`
}

// session is the in-process conversation state for one thread. Turns are
// ordered; the mutex serializes turn handling so no two turns overlap on
// the same thread. A thread can have many participants, so the sender id
// travels with each turn record rather than living here.
type session struct {
	turns []*schema.Message
	mu    sync.Mutex
}

func (s *session) appendTurn(userText, assistantText string) {
	s.turns = append(s.turns,
		schema.UserMessage(userText),
		schema.AssistantMessage(assistantText, nil),
	)
}

// window returns the most recent maxTurns messages for prompt context.
func (s *session) window(maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(s.turns) <= maxTurns {
		return s.turns
	}
	return s.turns[len(s.turns)-maxTurns:]
}

func threadNamespace(threadID string) memory.Namespace {
	return memory.Namespace{Owner: memory.ThreadOwner(threadID), Category: memory.CategoryConversations}
}

func globalNamespace(userID string) memory.Namespace {
	return memory.Namespace{Owner: memory.UserOwner(userID), Category: memory.CategoryGlobalConversations}
}

func agentNamespace(userID, agentName string) memory.Namespace {
	return memory.Namespace{Owner: memory.UserOwner(userID), Category: memory.AgentCategory(agentName)}
}

// rebuildSession reloads a thread's turns from the store after a cache
// miss or eviction. Losing the cached object never loses history.
func rebuildSession(ctx context.Context, store memory.Store, threadID string, maxTurns int) *session {
	s := &session{}

	ns := threadNamespace(threadID)
	keys, err := memory.LatestKeys(ctx, store, ns, maxTurns)
	if err != nil {
		logger.Warn().Err(err).Str("thread_id", threadID).Msg("failed to rebuild session from store")
		return s
	}

	// LatestKeys is newest-first; replay oldest-first.
	for i := len(keys) - 1; i >= 0; i-- {
		blob, ok, err := store.Get(ctx, ns, keys[i])
		if err != nil || !ok {
			continue
		}
		var record TurnRecord
		if err := sonic.Unmarshal(blob, &record); err != nil {
			logger.Warn().Err(err).Str("key", keys[i]).Msg("skipping unreadable turn record")
			continue
		}
		s.appendTurn(record.User, record.Assistant)
	}
	return s
}
