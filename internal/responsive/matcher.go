package responsive

import (
	"context"
	"sync"

	"github.com/conneroisu/sizekit/internal/cache"
	"github.com/conneroisu/sizekit/internal/errors"
	"github.com/conneroisu/sizekit/internal/logging"
)

// MatcherOptions configures a Matcher.
type MatcherOptions struct {
	// EnableCache memoizes width lookups.
	EnableCache bool
	// CacheLimit bounds the width cache.
	CacheLimit int
	Logger     logging.Logger
}

type match struct {
	bp Breakpoint
	ok bool
}

// Matcher resolves widths against a mutable breakpoint set.
type Matcher struct {
	mu     sync.RWMutex
	bps    []Breakpoint
	cache  *cache.FIFO[int, match]
	logger logging.Logger
}

// NewMatcher validates bps and builds a matcher. A nil bps uses Defaults.
// Duplicate names are rejected.
func NewMatcher(bps []Breakpoint, opts MatcherOptions) (*Matcher, error) {
	if bps == nil {
		bps = Defaults()
	}

	m := &Matcher{logger: opts.Logger}
	if m.logger == nil {
		m.logger = logging.NewNop()
	}
	m.logger = m.logger.WithComponent("responsive")
	if opts.EnableCache {
		m.cache = cache.NewFIFO[int, match](opts.CacheLimit)
	}

	seen := make(map[string]bool, len(bps))
	for _, bp := range bps {
		if err := bp.Validate(); err != nil {
			return nil, err
		}
		if seen[bp.Name] {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidBP, "duplicate breakpoint "+bp.Name).
				WithContext("breakpoint", bp.Name)
		}
		seen[bp.Name] = true
	}
	m.bps = clone(bps)

	return m, nil
}

// Find returns the highest-priority breakpoint containing w.
func (m *Matcher) Find(w int) (Breakpoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cache != nil {
		if hit, ok := m.cache.Get(w); ok {
			return hit.bp, hit.ok
		}
	}

	bp, ok := FindMatching(w, m.bps)
	if m.cache != nil {
		m.cache.Put(w, match{bp: bp, ok: ok})
	}

	return bp, ok
}

// MatchAll returns every breakpoint containing w, highest priority first.
func (m *Matcher) MatchAll(w int) []Breakpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MatchAll(w, m.bps)
}

// Add registers bp, replacing an existing breakpoint with the same name in
// place.
func (m *Matcher) Add(bp Breakpoint) error {
	if err := bp.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bp = clone([]Breakpoint{bp})[0]
	replaced := false
	for i := range m.bps {
		if m.bps[i].Name == bp.Name {
			m.bps[i] = bp
			replaced = true
			break
		}
	}
	if !replaced {
		m.bps = append(m.bps, bp)
	}
	m.resetCache()

	return nil
}

// Remove deletes the named breakpoint. Unknown names are logged and
// ignored. It reports whether anything was removed.
func (m *Matcher) Remove(ctx context.Context, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.bps {
		if m.bps[i].Name == name {
			m.bps = append(m.bps[:i:i], m.bps[i+1:]...)
			m.resetCache()
			return true
		}
	}

	m.logger.Warn(ctx, errors.NewLookupError(errors.ErrCodeUnknownBP, "unknown breakpoint").
		WithContext("breakpoint", name), "breakpoint not found, ignoring", "breakpoint", name)

	return false
}

// Get returns the named breakpoint.
func (m *Matcher) Get(name string) (Breakpoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, bp := range m.bps {
		if bp.Name == name {
			return clone([]Breakpoint{bp})[0], true
		}
	}

	return Breakpoint{}, false
}

// Breakpoints returns a copy of the registered set in registration order.
func (m *Matcher) Breakpoints() []Breakpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return clone(m.bps)
}

// CacheStats reports width cache statistics. Zero when caching is off.
func (m *Matcher) CacheStats() cache.Stats {
	if m.cache == nil {
		return cache.Stats{}
	}

	return m.cache.Stats()
}

func (m *Matcher) resetCache() {
	if m.cache != nil {
		m.cache.Clear()
	}
}
