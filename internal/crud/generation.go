package crud

import (
	"errors"
	"sync"
)

// ErrSuperseded means a newer read for the same table started while
// this one was in flight. The response is discarded so a slow call can
// never overwrite the result of a later, faster one.
var ErrSuperseded = errors.New("crud: superseded by a newer request")

// generations is a per-key monotonic counter. Reads record their
// generation before the network call and check they are still the
// latest afterwards. Mutations are exempt: their side effects have
// already happened by the time a response arrives.
type generations struct {
	mu     sync.Mutex
	latest map[string]uint64
}

func newGenerations() *generations {
	return &generations{latest: make(map[string]uint64)}
}

// begin registers a new attempt for key and returns its generation.
func (g *generations) begin(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest[key]++
	return g.latest[key]
}

// isLatest reports whether gen is still the newest attempt for key.
func (g *generations) isLatest(key string, gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest[key] == gen
}
