package responsive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/conneroisu/sizekit/internal/errors"
	"github.com/conneroisu/sizekit/internal/logging"
)

// DefaultDebounceDelay is the container resize batching window.
const DefaultDebounceDelay = 100 * time.Millisecond

// Element is an observable container.
type Element interface {
	ID() string
	Width() int
}

// Box is a minimal Element.
type Box struct {
	mu    sync.RWMutex
	id    string
	width int
}

// NewBox creates a container with an initial width.
func NewBox(id string, width int) *Box {
	return &Box{id: id, width: width}
}

// ID implements Element.
func (b *Box) ID() string { return b.id }

// Width implements Element.
func (b *Box) Width() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.width
}

// SetWidth records a new width. Observers learn about it through Report.
func (b *Box) SetWidth(w int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width = w
}

// ContainerEvent reports a container's matched breakpoint. Breakpoint is
// nil when nothing matches.
type ContainerEvent struct {
	ID         string      `json:"id"`
	Width      int         `json:"width"`
	Breakpoint *Breakpoint `json:"breakpoint,omitempty"`
}

// Name returns the matched breakpoint name, or "".
func (e ContainerEvent) Name() string {
	if e.Breakpoint == nil {
		return ""
	}

	return e.Breakpoint.Name
}

// ContainerCallback receives container breakpoint changes.
type ContainerCallback func(ContainerEvent)

// ObserverOptions configures a ContainerObserver.
type ObserverOptions struct {
	// DebounceDelay is the batching window for reported resizes. Zero or
	// negative flushes synchronously on every report.
	DebounceDelay time.Duration
	// Matching configures the per-container matchers.
	Matching MatcherOptions
	Logger   logging.Logger
}

type observation struct {
	seq     uint64
	id      string
	matcher *Matcher
	cb      ContainerCallback
	current string
	width   int
}

// ContainerObserver funnels resize reports for every observed container
// through one debounced flush. After each flush, callbacks run in
// observation order for containers whose matched breakpoint changed.
type ContainerObserver struct {
	mu      sync.Mutex
	opts    ObserverOptions
	byID    map[string]*observation
	order   []*observation
	pending map[string]int
	timer   *time.Timer
	nextSeq uint64
	closed  bool
	logger  logging.Logger
}

// NewContainerObserver creates an observer.
func NewContainerObserver(opts ObserverOptions) *ContainerObserver {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &ContainerObserver{
		opts:    opts,
		byID:    make(map[string]*observation),
		pending: make(map[string]int),
		logger:  logger.WithComponent("container-observer"),
	}
}

// Observe starts watching el against bps (nil uses Defaults). cb is called
// once immediately with the current match. Observing an id again replaces
// the previous observation. The returned function stops watching and may be
// called more than once.
func (o *ContainerObserver) Observe(el Element, bps []Breakpoint, cb ContainerCallback) (func(), error) {
	matcher, err := NewMatcher(bps, o.opts.Matching)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		o.logger.Warn(context.Background(), errors.ErrDestroyed, "observe after close ignored", "container", el.ID())
		return func() {}, nil
	}

	o.nextSeq++
	obs := &observation{
		seq:     o.nextSeq,
		id:      el.ID(),
		matcher: matcher,
		cb:      cb,
		width:   el.Width(),
	}
	if prev, ok := o.byID[obs.id]; ok {
		o.dropLocked(prev)
	}
	o.byID[obs.id] = obs
	o.order = append(o.order, obs)

	event := obs.evaluate(obs.width)
	obs.current = event.Name()
	o.mu.Unlock()

	o.invoke(obs, event)

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if cur, ok := o.byID[obs.id]; ok && cur.seq == obs.seq {
				o.dropLocked(cur)
			}
		})
	}, nil
}

// Report queues a resize for the container id. Reports for unobserved ids
// are ignored. Several reports for one id within a window coalesce to the
// last width.
func (o *ContainerObserver) Report(id string, width int) bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	if _, ok := o.byID[id]; !ok {
		o.mu.Unlock()
		o.logger.Debug(context.Background(), "resize for unobserved container ignored", "container", id)
		return false
	}

	o.pending[id] = width
	if o.opts.DebounceDelay <= 0 {
		o.mu.Unlock()
		o.Flush()
		return true
	}

	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.opts.DebounceDelay, o.Flush)
	o.mu.Unlock()

	return true
}

// Flush processes queued reports now. Observations stopped or replaced
// before their callback runs are skipped.
func (o *ContainerObserver) Flush() {
	type call struct {
		obs   *observation
		event ContainerEvent
	}

	o.mu.Lock()
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	if len(o.pending) == 0 {
		o.mu.Unlock()
		return
	}

	var calls []call
	for _, obs := range o.order {
		w, ok := o.pending[obs.id]
		if !ok {
			continue
		}
		obs.width = w
		event := obs.evaluate(w)
		if event.Name() == obs.current {
			continue
		}
		obs.current = event.Name()
		calls = append(calls, call{obs: obs, event: event})
	}
	batch := len(o.pending)
	clear(o.pending)
	o.mu.Unlock()

	o.logger.Debug(context.Background(), "flushed container resizes", "reports", batch, "changes", len(calls))
	for _, c := range calls {
		// A callback earlier in the batch may have stopped this observation.
		if !o.active(c.obs) {
			continue
		}
		o.invoke(c.obs, c.event)
	}
}

// active reports whether obs is still the live observation for its id.
func (o *ContainerObserver) active(obs *observation) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return !o.closed && o.byID[obs.id] == obs
}

// Pending reports queued, unflushed containers.
func (o *ContainerObserver) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.pending)
}

// Observed returns the observed container ids in observation order.
func (o *ContainerObserver) Observed() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	ids := make([]string, len(o.order))
	for i, obs := range o.order {
		ids[i] = obs.id
	}

	return ids
}

// Current returns the matched breakpoint name for an observed container.
func (o *ContainerObserver) Current(id string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	obs, ok := o.byID[id]
	if !ok {
		return "", false
	}

	return obs.current, true
}

// Close stops the pending flush and forgets every container.
func (o *ContainerObserver) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.closed = true
	o.byID = make(map[string]*observation)
	o.order = nil
	clear(o.pending)
}

// dropLocked forgets obs. Caller holds o.mu.
func (o *ContainerObserver) dropLocked(obs *observation) {
	delete(o.byID, obs.id)
	delete(o.pending, obs.id)
	for i, cur := range o.order {
		if cur == obs {
			o.order = append(o.order[:i:i], o.order[i+1:]...)
			break
		}
	}
}

func (o *ContainerObserver) invoke(obs *observation, event ContainerEvent) {
	if obs.cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error(context.Background(),
				errors.NewInternalError(errors.ErrCodeListenerPanic, fmt.Sprint(r), nil),
				"container callback panicked", "container", obs.id)
		}
	}()

	obs.cb(event)
}

func (obs *observation) evaluate(w int) ContainerEvent {
	event := ContainerEvent{ID: obs.id, Width: w}
	if bp, ok := obs.matcher.Find(w); ok {
		event.Breakpoint = &bp
	}

	return event
}
