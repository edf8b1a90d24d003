package slackbot

import "sync"

// recents is a bounded set of recently processed message ids. Slack
// redelivers events, so the bot must drop what it has already handled; the
// bound keeps the table from growing with traffic.
type recents struct {
	mu    sync.Mutex
	limit int
	order []string
	seen  map[string]bool
}

func newRecents(limit int) *recents {
	if limit <= 0 {
		limit = 100
	}
	return &recents{
		limit: limit,
		seen:  make(map[string]bool, limit),
	}
}

// remember records id and reports whether it was new.
func (r *recents) remember(id string) bool {
	if id == "" {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seen[id] {
		return false
	}

	r.seen[id] = true
	r.order = append(r.order, id)
	for len(r.order) > r.limit {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.seen, oldest)
	}
	return true
}

func (r *recents) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
