// Package memory provides the namespaced key-value store backing
// conversation persistence, user preferences and agent instructions.
// A namespace is an (owner, category) pair; keys are unique within a
// namespace and entries are never deleted.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Categories partitioning each owner's memory.
const (
	CategoryPreferences         = "preferences"
	CategoryConversations       = "conversations"
	CategoryGlobalConversations = "global_conversations"
	CategoryAgentInstructions   = "agent_instructions"
)

// GlobalOwner scopes entries not tied to a single user, such as the
// shared agent instruction set.
const GlobalOwner = "global"

// Namespace identifies one partition of the store.
type Namespace struct {
	Owner    string
	Category string
}

func (n Namespace) String() string {
	return n.Owner + ":" + n.Category
}

// UserOwner returns the owner scope for a user id.
func UserOwner(userID string) string {
	return "user:" + userID
}

// ThreadOwner returns the owner scope for a conversation thread.
func ThreadOwner(threadID string) string {
	return "thread:" + threadID
}

// AgentCategory returns the per-agent category used for the conversation
// context feeding the feedback loop.
func AgentCategory(agentName string) string {
	return "agent:" + agentName
}

// Store is the surface every backend must provide. There is no delete,
// no TTL and no cross-namespace transaction.
type Store interface {
	Put(ctx context.Context, ns Namespace, key string, value []byte) error
	Get(ctx context.Context, ns Namespace, key string) ([]byte, bool, error)
	ListKeys(ctx context.Context, ns Namespace) ([]string, error)
}

// SynthKey builds a unique key from a logical name, the write time and a
// short random suffix. Duplicate logical names accumulate rather than
// overwrite; superseding is left to readers.
func SynthKey(name string) string {
	return fmt.Sprintf("%s-%d-%s", name, time.Now().UnixNano(), uuid.NewString()[:8])
}

// KeyTime extracts the write time embedded in a synthesized key. Returns
// zero for keys that were not produced by SynthKey.
func KeyTime(key string) int64 {
	parts := strings.Split(key, "-")
	if len(parts) < 3 {
		return 0
	}
	nanos, err := strconv.ParseInt(parts[len(parts)-2], 10, 64)
	if err != nil {
		return 0
	}
	return nanos
}

// LatestKeys returns up to n keys from the namespace, newest first, ordered
// by the write time embedded in synthesized keys.
func LatestKeys(ctx context.Context, store Store, ns Namespace, n int) ([]string, error) {
	keys, err := store.ListKeys(ctx, ns)
	if err != nil {
		return nil, err
	}
	sort.Slice(keys, func(i, j int) bool {
		ti, tj := KeyTime(keys[i]), KeyTime(keys[j])
		if ti != tj {
			return ti > tj
		}
		return keys[i] > keys[j]
	})
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys, nil
}
