package router

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/aniketh-deriv/smith-pm/internal/memory"
)

// SearchConversations scans a user's global conversation namespace, newest
// first, and returns turns whose text contains the query. Stored turns are
// already redacted, so results are safe to surface.
func (r *Router) SearchConversations(ctx context.Context, userID, query string, limit int) ([]TurnRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	needle := strings.ToLower(strings.TrimSpace(query))

	ns := globalNamespace(userID)
	keys, err := memory.LatestKeys(ctx, r.store, ns, 0)
	if err != nil {
		return nil, err
	}

	var matches []TurnRecord
	for _, key := range keys {
		blob, ok, err := r.store.Get(ctx, ns, key)
		if err != nil || !ok {
			continue
		}
		var record TurnRecord
		if err := sonic.Unmarshal(blob, &record); err != nil {
			continue
		}
		if needle == "" ||
			strings.Contains(strings.ToLower(record.User), needle) ||
			strings.Contains(strings.ToLower(record.Assistant), needle) {
			matches = append(matches, record)
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches, nil
}
