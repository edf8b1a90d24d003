package feedback

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniketh-deriv/smith-pm/internal/agent"
	"github.com/aniketh-deriv/smith-pm/internal/memory"
)

type scriptedGenerator struct {
	replies []string
	errs    []error
	calls   int
}

func (s *scriptedGenerator) Generate(_ context.Context, _ []*schema.Message) (*schema.Message, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.replies) {
		return schema.AssistantMessage(s.replies[i], nil), nil
	}
	return schema.AssistantMessage("ok", nil), nil
}

type brokenStore struct{ memory.Store }

func (brokenStore) ListKeys(context.Context, memory.Namespace) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestImproveUpdatesInstructions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	gen := &scriptedGenerator{replies: []string{"be more concise in every reply", "I tightened the wording."}}
	r := New(store, gen)

	before, err := agent.Instructions(ctx, store, agent.DispatcherName)
	require.NoError(t, err)

	summary, err := r.Improve(ctx, agent.DispatcherName, "U1", "be more concise")
	require.NoError(t, err)
	assert.Equal(t, "I tightened the wording.", summary)

	after, err := agent.Instructions(ctx, store, agent.DispatcherName)
	require.NoError(t, err)
	assert.NotEqual(t, before, after, "instructions must change")
	assert.Equal(t, "be more concise in every reply", after)
	assert.Equal(t, 2, gen.calls)
}

func TestImproveAtomicOnSummaryFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	gen := &scriptedGenerator{
		replies: []string{"revised text", ""},
		errs:    []error{nil, errors.New("model down")},
	}
	r := New(store, gen)

	before, err := agent.Instructions(ctx, store, agent.DispatcherName)
	require.NoError(t, err)

	_, err = r.Improve(ctx, agent.DispatcherName, "U1", "be more concise")
	require.Error(t, err)

	after, err := agent.Instructions(ctx, store, agent.DispatcherName)
	require.NoError(t, err)
	assert.Equal(t, before, after, "nothing may be written when the summary fails")
}

func TestImproveFailsOnFirstGenerationError(t *testing.T) {
	store := memory.NewInMemoryStore()
	gen := &scriptedGenerator{errs: []error{errors.New("model down")}}
	r := New(store, gen)

	_, err := r.Improve(context.Background(), agent.DispatcherName, "U1", "feedback")
	require.Error(t, err)
	assert.Equal(t, 1, gen.calls)
}

func TestImproveStoreUnavailable(t *testing.T) {
	store := brokenStore{memory.NewInMemoryStore()}
	gen := &scriptedGenerator{replies: []string{"revised", "summary"}}
	r := New(store, gen)

	_, err := r.Improve(context.Background(), agent.DispatcherName, "U1", "feedback")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestImproveUnknownAgentIsNotAStoreError(t *testing.T) {
	store := memory.NewInMemoryStore()
	gen := &scriptedGenerator{}
	r := New(store, gen)

	_, err := r.Improve(context.Background(), "nope_agent", "U1", "feedback")
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrUnknownAgent)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, 0, gen.calls, "nothing to revise for an unknown agent")
}

func TestImproveUsesRecentAgentContext(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	ns := memory.Namespace{Owner: memory.UserOwner("U1"), Category: memory.AgentCategory(agent.DispatcherName)}
	require.NoError(t, store.Put(ctx, ns, memory.SynthKey("turn"),
		[]byte(`{"user":"hello","assistant":"hi!","agent":"main_agent"}`)))

	gen := &scriptedGenerator{replies: []string{"revised", "summary"}}
	r := New(store, gen)

	summary, err := r.Improve(ctx, agent.DispatcherName, "U1", "be warmer")
	require.NoError(t, err)
	assert.Equal(t, "summary", summary)
}
