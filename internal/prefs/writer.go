package prefs

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/aniketh-deriv/smith-pm/internal/memory"
	"github.com/aniketh-deriv/smith-pm/internal/redact"
)

// Entry is the stored form of one extracted preference.
type Entry struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Writer appends preferences to the user's preferences namespace.
// Preferences accumulate as a log: entries are never overwritten, and
// duplicate logical names are expected. Readers decide what supersedes what.
type Writer struct {
	store memory.Store
}

func NewWriter(store memory.Store) *Writer {
	return &Writer{store: store}
}

func (w *Writer) Store(ctx context.Context, userID string, preferences map[string]string) error {
	ns := memory.Namespace{Owner: memory.UserOwner(userID), Category: memory.CategoryPreferences}

	for name, value := range preferences {
		entry := Entry{
			Name:      redact.Redact(name),
			Value:     redact.Redact(value),
			Timestamp: time.Now().UTC(),
		}
		blob, err := sonic.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal preference %s: %w", name, err)
		}
		if err := w.store.Put(ctx, ns, memory.SynthKey(name), blob); err != nil {
			return fmt.Errorf("failed to store preference %s: %w", name, err)
		}
	}
	return nil
}
