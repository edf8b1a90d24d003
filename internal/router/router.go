// Package router maps inbound messages to conversation sessions, dispatches
// each turn to one handler and drives the memory write protocol.
package router

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/dgraph-io/ristretto"

	"github.com/aniketh-deriv/smith-pm/internal/agent"
	"github.com/aniketh-deriv/smith-pm/internal/llm"
	"github.com/aniketh-deriv/smith-pm/internal/logger"
	"github.com/aniketh-deriv/smith-pm/internal/memory"
	"github.com/aniketh-deriv/smith-pm/internal/redact"
)

// UnknownUser is the sentinel user id for messages without a sender.
const UnknownUser = "unknown"

// DefaultFallbackReply is posted when the generation capability fails.
const DefaultFallbackReply = "Sorry, I ran into a problem generating a response. Please try again."

// HandoffSentinel is what a specialist answers to hand the turn back to the
// dispatcher. One hand-back per turn; no deeper transfer chains.
const HandoffSentinel = "HANDOFF"

// PreferenceExtractor is the slice of the prefs package the router needs.
type PreferenceExtractor interface {
	Extract(ctx context.Context, userMessage, assistantReply string) (map[string]string, error)
}

// PreferenceWriter persists extracted preferences.
type PreferenceWriter interface {
	Store(ctx context.Context, userID string, preferences map[string]string) error
}

// Config tunes the router.
type Config struct {
	MaxTurns         int
	SessionCacheSize int64
	FallbackReply    string
}

// Reply is the outcome of one turn.
type Reply struct {
	Text    string
	Agent   string
	Pending []PendingToolCall
}

// Router owns the session cache and the per-turn pipeline:
// receive → select handler → generate → redact → persist → reply.
type Router struct {
	store     memory.Store
	gen       llm.Generator
	selector  agent.Selector
	extractor PreferenceExtractor
	writer    PreferenceWriter
	approver  Approver
	roster    map[string]agent.Definition
	sessions  *ristretto.Cache
	// rebuilding holds one mutex per thread for the cache-miss path, so
	// concurrent first messages on a thread share a single session.
	rebuilding sync.Map
	cfg        Config
}

// New builds a Router. The session cache is bounded; evicted sessions are
// rebuilt from the store, so eviction never loses conversation state.
func New(store memory.Store, gen llm.Generator, selector agent.Selector,
	extractor PreferenceExtractor, writer PreferenceWriter, approver Approver,
	roster []agent.Definition, cfg Config) (*Router, error) {

	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 10
	}
	if cfg.SessionCacheSize <= 0 {
		cfg.SessionCacheSize = 1024
	}
	if cfg.FallbackReply == "" {
		cfg.FallbackReply = DefaultFallbackReply
	}

	sessions, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.SessionCacheSize * 10,
		MaxCost:     cfg.SessionCacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	byName := make(map[string]agent.Definition, len(roster))
	for _, def := range roster {
		byName[def.Name] = def
	}

	return &Router{
		store:     store,
		gen:       gen,
		selector:  selector,
		extractor: extractor,
		writer:    writer,
		approver:  approver,
		roster:    byName,
		sessions:  sessions,
		cfg:       cfg,
	}, nil
}

// Process handles one inbound message. It never returns an error: every
// failure path degrades to a non-empty, user-safe reply.
func (r *Router) Process(ctx context.Context, threadID, userID, text string) Reply {
	if userID == "" {
		userID = UnknownUser
	}

	s := r.session(ctx, threadID)
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.window(r.cfg.MaxTurns)

	selected, err := r.selector.Select(ctx, text, history)
	if err != nil {
		logger.Warn().Err(err).Str("thread_id", threadID).Msg("agent selection failed, dispatcher answers")
		selected = ""
	}
	def := r.agentFor(selected)

	out, handledBy, genErr := r.generate(ctx, def, history, text)

	var replyText string
	var pending []PendingToolCall
	if genErr != nil {
		logger.Error().Err(genErr).
			Str("thread_id", threadID).
			Str("agent", handledBy).
			Msg("generation failed, returning fallback")
		replyText = r.cfg.FallbackReply
	} else {
		replyText = out.Content
		pending = resolveToolCalls(ctx, r.approver, out.ToolCalls)
		if strings.TrimSpace(replyText) == "" && len(pending) > 0 {
			replyText = "I have a follow-up action queued: " + pending[0].Name
		}
	}

	replyText = redact.Redact(replyText)
	if strings.TrimSpace(replyText) == "" {
		replyText = r.cfg.FallbackReply
	}

	s.appendTurn(text, replyText)
	r.sessions.Set(threadID, s, 1)
	r.sessions.Wait()

	if genErr == nil {
		// Best effort: a slow or failing memory write must never fail the
		// user-visible reply.
		r.persistTurn(ctx, threadID, userID, handledBy, text, replyText)
		r.extractPreferences(ctx, userID, text, replyText)
	}

	return Reply{Text: replyText, Agent: handledBy, Pending: pending}
}

func (r *Router) agentFor(name string) agent.Definition {
	if def, ok := r.roster[name]; ok && name != "" {
		return def
	}
	return r.roster[agent.DispatcherName]
}

// generate runs the selected handler; a specialist may hand the turn back
// to the dispatcher exactly once.
func (r *Router) generate(ctx context.Context, def agent.Definition, history []*schema.Message, text string) (*schema.Message, string, error) {
	out, err := r.gen.Generate(ctx, buildMessages(def, history, text))
	if err != nil {
		return nil, def.Name, err
	}

	if def.Name != agent.DispatcherName && strings.TrimSpace(out.Content) == HandoffSentinel {
		logger.Debug().Str("agent", def.Name).Msg("specialist handed back to dispatcher")
		dispatcher := r.roster[agent.DispatcherName]
		out, err = r.gen.Generate(ctx, buildMessages(dispatcher, history, text))
		return out, agent.DispatcherName, err
	}

	return out, def.Name, nil
}

func buildMessages(def agent.Definition, history []*schema.Message, text string) []*schema.Message {
	instructions := def.Instructions
	if def.Name != agent.DispatcherName {
		instructions += "\n\nIf the request is outside your specialty, reply with exactly " +
			HandoffSentinel + " and nothing else."
	}

	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(instructions))
	messages = append(messages, history...)
	messages = append(messages, schema.UserMessage(text))
	return messages
}

// session returns the live session for a thread. On a cache miss the
// rebuild runs under a per-thread lock and the session is installed in the
// cache before the lock is released, so simultaneous first messages on one
// thread always get the same session and its mutex can serialize them.
func (r *Router) session(ctx context.Context, threadID string) *session {
	if cached, ok := r.sessions.Get(threadID); ok {
		if s, ok := cached.(*session); ok {
			return s
		}
	}

	lock, _ := r.rebuilding.LoadOrStore(threadID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer func() {
		mu.Unlock()
		r.rebuilding.Delete(threadID)
	}()

	// Another caller may have rebuilt while we waited.
	if cached, ok := r.sessions.Get(threadID); ok {
		if s, ok := cached.(*session); ok {
			return s
		}
	}

	s := rebuildSession(ctx, r.store, threadID, r.cfg.MaxTurns)
	r.sessions.Set(threadID, s, 1)
	r.sessions.Wait()
	return s
}

// persistTurn writes the completed turn into the per-thread, the global
// per-user and the handling agent's namespaces under one shared key.
// userID is the sender of this turn; threads can have many participants,
// so the per-user namespaces follow the message, not the thread.
func (r *Router) persistTurn(ctx context.Context, threadID, userID, agentName, userText, replyText string) {
	record := TurnRecord{
		ThreadID:  threadID,
		UserID:    userID,
		User:      redact.Redact(userText),
		Assistant: replyText,
		Agent:     agentName,
		Timestamp: time.Now().UTC(),
	}
	blob, err := sonic.Marshal(record)
	if err != nil {
		logger.Error().Err(err).Str("thread_id", threadID).Msg("failed to marshal turn record")
		return
	}

	key := memory.SynthKey("turn")
	for _, ns := range []memory.Namespace{
		threadNamespace(threadID),
		globalNamespace(userID),
		agentNamespace(userID, agentName),
	} {
		if err := r.store.Put(ctx, ns, key, blob); err != nil {
			logger.Warn().Err(err).Stringer("namespace", ns).Msg("failed to persist turn")
		}
	}
}

func (r *Router) extractPreferences(ctx context.Context, userID, userText, replyText string) {
	if r.extractor == nil || r.writer == nil {
		return
	}

	preferences, err := r.extractor.Extract(ctx, userText, replyText)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("preference extraction failed")
		return
	}
	if len(preferences) == 0 {
		return
	}

	if err := r.writer.Store(ctx, userID, preferences); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("failed to store preferences")
		return
	}
	logger.Info().Int("count", len(preferences)).Str("user_id", userID).Msg("stored preferences")
}
