// Package notify delivers values to ordered subscriber lists.
//
// Values are queued and delivered one pass at a time. Each pass uses the
// subscriber list as it was when the pass started, in registration order. A
// subscriber that publishes from inside its callback only queues; the value
// is delivered after the current pass ends.
package notify

import "sync"

// PanicHandler receives a recovered subscriber panic.
type PanicHandler func(id uint64, recovered any)

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Hub is an ordered subscriber list with queued delivery.
type Hub[T any] struct {
	mu       sync.Mutex
	subs     []subscriber[T]
	nextID   uint64
	pending  []T
	draining bool
	closed   bool
	onPanic  PanicHandler
}

// New creates a hub. onPanic may be nil, in which case panics are
// swallowed.
func New[T any](onPanic PanicHandler) *Hub[T] {
	return &Hub[T]{onPanic: onPanic}
}

// Subscribe registers fn. The returned function removes it and may be
// called any number of times. It reports false when the hub is closed, in
// which case the returned function is a no-op.
func (h *Hub[T]) Subscribe(fn func(T)) (func(), bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return func() {}, false
	}
	if fn == nil {
		return func() {}, true
	}

	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscriber[T]{id: id, fn: fn})

	var once sync.Once
	return func() { once.Do(func() { h.remove(id) }) }, true
}

func (h *Hub[T]) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}

// Enqueue queues v without delivering it. Callers holding their own locks
// enqueue under them and call Drain after releasing.
func (h *Hub[T]) Enqueue(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.closed {
		h.pending = append(h.pending, v)
	}
}

// Drain delivers queued values in order. If another call is already
// draining it returns immediately and that call delivers the queue.
func (h *Hub[T]) Drain() {
	h.mu.Lock()
	if h.draining {
		h.mu.Unlock()
		return
	}
	h.draining = true

	for len(h.pending) > 0 && !h.closed {
		v := h.pending[0]
		h.pending = h.pending[1:]
		snapshot := make([]subscriber[T], len(h.subs))
		copy(snapshot, h.subs)
		h.mu.Unlock()

		for _, s := range snapshot {
			h.deliver(s, v)
		}

		h.mu.Lock()
	}

	h.draining = false
	h.mu.Unlock()
}

// Publish queues v and drains.
func (h *Hub[T]) Publish(v T) {
	h.Enqueue(v)
	h.Drain()
}

func (h *Hub[T]) deliver(s subscriber[T], v T) {
	defer func() {
		if r := recover(); r != nil && h.onPanic != nil {
			h.onPanic(s.id, r)
		}
	}()

	s.fn(v)
}

// Len reports the number of subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}

// Close drops every subscriber and queued value. Later subscriptions are
// refused.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	h.subs = nil
	h.pending = nil
}

// Closed reports whether Close was called.
func (h *Hub[T]) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.closed
}
