package client

import "sync"

// Refetcher coordinates invalidate-and-refetch per table. Every
// invalidation takes a fresh monotonic token; a completed fetch is
// applied only if no newer fetch for that table was issued in the
// meantime, so late responses from superseded fetches are dropped
// instead of overwriting fresher data.
type Refetcher struct {
	mu     sync.Mutex
	tokens map[string]uint64
}

func NewRefetcher() *Refetcher {
	return &Refetcher{tokens: make(map[string]uint64)}
}

// Invalidate marks the table stale and returns the token the
// eventual fetch result must present to be applied.
func (r *Refetcher) Invalidate(table string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[table]++
	return r.tokens[table]
}

// Current returns the newest token for a table without issuing a new
// one.
func (r *Refetcher) Current(table string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens[table]
}

// Apply runs commit only if token is still the newest for the table.
// It reports whether the result was applied.
func (r *Refetcher) Apply(table string, token uint64, commit func()) bool {
	r.mu.Lock()
	latest := r.tokens[table]
	r.mu.Unlock()
	if token != latest {
		return false
	}
	commit()
	return true
}
