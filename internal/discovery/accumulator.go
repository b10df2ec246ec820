package discovery

import "sync"

// Accumulator is an insertion-ordered set of IDs with a fixed capacity.
// The scroll loop and the network listener add to it concurrently.
type Accumulator struct {
	mu       sync.Mutex
	capacity int
	ids      []string
	seen     map[string]struct{}
}

func NewAccumulator(capacity int) *Accumulator {
	return &Accumulator{
		capacity: capacity,
		seen:     make(map[string]struct{}),
	}
}

// Add inserts id and reports whether it was new. Empty IDs, duplicates and
// inserts past capacity are ignored.
func (a *Accumulator) Add(id string) bool {
	if id == "" {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.ids) >= a.capacity {
		return false
	}
	if _, ok := a.seen[id]; ok {
		return false
	}
	a.seen[id] = struct{}{}
	a.ids = append(a.ids, id)
	return true
}

func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ids)
}

func (a *Accumulator) Full() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ids) >= a.capacity
}

// IDs returns a copy in insertion order
func (a *Accumulator) IDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.ids))
	copy(out, a.ids)
	return out
}
