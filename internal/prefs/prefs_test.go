package prefs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniketh-deriv/smith-pm/internal/memory"
)

// deadlineModel records whether the generation call carried a deadline.
type deadlineModel struct {
	hadDeadline bool
}

func (m *deadlineModel) Generate(ctx context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	_, m.hadDeadline = ctx.Deadline()
	return schema.AssistantMessage(NoPreferencesSentinel, nil), nil
}

func (m *deadlineModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestExtractAppliesGenerationTimeout(t *testing.T) {
	ctx := context.Background()
	m := &deadlineModel{}
	ext, err := NewExtractor(ctx, m, time.Second)
	require.NoError(t, err)

	got, err := ext.Extract(ctx, "hello", "hi")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, m.hadDeadline, "extraction generation must run under a deadline")
}

func TestParsePreferencesStrictJSON(t *testing.T) {
	got := ParsePreferences(`{"formatting": "bullet points", "language": "thai"}`)
	assert.Equal(t, map[string]string{
		"formatting": "bullet points",
		"language":   "thai",
	}, got)
}

func TestParsePreferencesBraceSpanFallback(t *testing.T) {
	raw := "Sure! Here are the preferences I found:\n```json\n" +
		`{"formatting": "bullet points"}` + "\n```\nLet me know if you need more."
	got := ParsePreferences(raw)
	assert.Equal(t, map[string]string{"formatting": "bullet points"}, got)
}

func TestParsePreferencesSentinel(t *testing.T) {
	assert.Empty(t, ParsePreferences("NONE"))
	assert.Empty(t, ParsePreferences("  none  "))
	assert.Empty(t, ParsePreferences(""))
}

func TestParsePreferencesGarbageDegradesToEmpty(t *testing.T) {
	for _, raw := range []string{
		"I could not find anything structured",
		"{broken json",
		"prefix {still: broken} suffix",
		"[1, 2, 3]",
	} {
		assert.Empty(t, ParsePreferences(raw), "input: %q", raw)
	}
}

func TestParsePreferencesNonStringValues(t *testing.T) {
	got := ParsePreferences(`{"max_items": 5, "verbose": false, "skip": null}`)
	assert.Equal(t, "5", got["max_items"])
	assert.Equal(t, "false", got["verbose"])
	assert.NotContains(t, got, "skip")
}

func TestWriterNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	w := NewWriter(store)

	require.NoError(t, w.Store(ctx, "U1", map[string]string{"formatting": "bullet points"}))
	require.NoError(t, w.Store(ctx, "U1", map[string]string{"formatting": "tables"}))

	ns := memory.Namespace{Owner: memory.UserOwner("U1"), Category: memory.CategoryPreferences}
	keys, err := store.ListKeys(ctx, ns)
	require.NoError(t, err)
	assert.Len(t, keys, 2, "preferences accumulate, never overwrite")
}

func TestWriterRedactsValues(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	w := NewWriter(store)

	require.NoError(t, w.Store(ctx, "U1", map[string]string{"contact": "mail me at a@b.com"}))

	ns := memory.Namespace{Owner: memory.UserOwner("U1"), Category: memory.CategoryPreferences}
	keys, err := store.ListKeys(ctx, ns)
	require.NoError(t, err)
	require.Len(t, keys, 1)

	blob, ok, err := store.Get(ctx, ns, keys[0])
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(blob), "a@b.com")
	assert.Contains(t, string(blob), "[REDACTED EMAIL]")
}
