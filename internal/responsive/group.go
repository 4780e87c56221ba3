package responsive

import "sync"

// Group collects cleanup functions for bulk release, e.g. every
// subscription and observation created for one client.
type Group struct {
	mu       sync.Mutex
	fns      []func()
	released bool
}

// Add registers fn. After Release, fn runs immediately.
func (g *Group) Add(fn func()) {
	if fn == nil {
		return
	}

	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		fn()
		return
	}
	g.fns = append(g.fns, fn)
	g.mu.Unlock()
}

// Release runs every registered function in reverse order. Later calls
// are no-ops.
func (g *Group) Release() {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return
	}
	g.released = true
	fns := g.fns
	g.fns = nil
	g.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// Len reports registered, unreleased functions.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.fns)
}
