package poll

import (
	"sync"
	"time"
)

// toastedSet remembers which notification ids have already triggered side
// effects this session, so a toast, sound or desktop notification fires at
// most once per id no matter how often the same feed entry re-polls. It is a
// purely local guard, decoupled from the server's unread state.
type toastedSet struct {
	mu sync.Mutex
	m  map[string]time.Time // id -> notification timestamp
}

func newToastedSet() *toastedSet {
	return &toastedSet{m: make(map[string]time.Time)}
}

// markIfNew records id and returns true if it was not already present.
func (t *toastedSet) markIfNew(id string, at time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.m[id]; ok {
		return false
	}
	t.m[id] = at
	return true
}

func (t *toastedSet) remove(ids []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		delete(t.m, id)
	}
}

func (t *toastedSet) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m = make(map[string]time.Time)
}

// prune evicts entries whose notification timestamp is older than window,
// keeping the set from growing without bound over a long session.
func (t *toastedSet) prune(window time.Duration) int {
	cutoff := time.Now().Add(-window)
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for id, at := range t.m {
		if at.Before(cutoff) {
			delete(t.m, id)
			removed++
		}
	}
	return removed
}

func (t *toastedSet) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.m)
}
