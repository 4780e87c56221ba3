package responsive

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/conneroisu/sizekit/internal/errors"
	"github.com/conneroisu/sizekit/internal/logging"
	"github.com/conneroisu/sizekit/internal/notify"
)

// Change describes a transition of the viewport's active breakpoint set.
type Change struct {
	Width    int      `json:"width"`
	Active   []string `json:"active"`
	Previous []string `json:"previous"`
	Current  string   `json:"current"`
}

// Viewport tracks the global width and its active breakpoint set.
//
// The first Update establishes a baseline without notifying. Later updates
// are ignored unless the whole-pixel width differs, and subscribers are
// notified only when the set of active names changes.
type Viewport struct {
	mu      sync.Mutex
	matcher *Matcher
	width   int
	seen    bool
	active  []string
	current string
	hub     *notify.Hub[Change]
	logger  logging.Logger
}

// NewViewport creates a viewport over matcher.
func NewViewport(matcher *Matcher, logger logging.Logger) *Viewport {
	if logger == nil {
		logger = logging.NewNop()
	}
	v := &Viewport{
		matcher: matcher,
		logger:  logger.WithComponent("viewport"),
	}
	v.hub = notify.New[Change](func(id uint64, r any) {
		v.logger.Error(context.Background(),
			errors.NewInternalError(errors.ErrCodeListenerPanic, fmt.Sprint(r), nil),
			"viewport listener panicked", "listener", id)
	})

	return v
}

// Update records a new viewport width. It reports whether subscribers
// were notified.
func (v *Viewport) Update(ctx context.Context, width float64) bool {
	w := ToWidth(width)

	v.mu.Lock()
	if v.seen && w == v.width {
		v.mu.Unlock()
		return false
	}
	first := !v.seen
	v.seen = true
	v.width = w

	c, changed := v.recompute()
	if changed && !first {
		v.hub.Enqueue(c)
	}
	v.mu.Unlock()

	if changed && !first {
		v.logger.Debug(ctx, "active breakpoints changed", "width", w, "current", c.Current)
		v.hub.Drain()
		return true
	}

	return false
}

// Refresh re-evaluates the last width, e.g. after the breakpoint set
// changed.
func (v *Viewport) Refresh(ctx context.Context) bool {
	v.mu.Lock()
	if !v.seen {
		v.mu.Unlock()
		return false
	}
	c, changed := v.recompute()
	if changed {
		v.hub.Enqueue(c)
	}
	v.mu.Unlock()

	if changed {
		v.logger.Debug(ctx, "active breakpoints changed after refresh")
		v.hub.Drain()
	}

	return changed
}

// recompute updates the active set and reports whether it changed. Caller
// holds v.mu.
func (v *Viewport) recompute() (Change, bool) {
	matched := v.matcher.MatchAll(v.width)
	names := Names(matched)

	current := ""
	if bp, ok := v.matcher.Find(v.width); ok {
		current = bp.Name
	}

	if sameSet(names, v.active) && current == v.current {
		return Change{}, false
	}

	c := Change{
		Width:    v.width,
		Active:   slices.Clone(names),
		Previous: slices.Clone(v.active),
		Current:  current,
	}
	v.active = names
	v.current = current

	return c, true
}

// Subscribe registers fn for active set changes.
func (v *Viewport) Subscribe(fn func(Change)) func() {
	unsub, _ := v.hub.Subscribe(fn)
	return unsub
}

// Width returns the last observed whole-pixel width.
func (v *Viewport) Width() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.width
}

// Active returns the names of all matching breakpoints, highest priority
// first.
func (v *Viewport) Active() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	return slices.Clone(v.active)
}

// Current returns the highest-priority active breakpoint name, or "".
func (v *Viewport) Current() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.current
}

// Close drops every subscriber.
func (v *Viewport) Close() {
	v.hub.Close()
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; !ok {
			return false
		}
	}

	return true
}
