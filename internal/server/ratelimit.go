package server

import (
	"sync"
	"time"
)

// Inbound message budget per websocket client.
const (
	clientMessageLimit  = 120
	clientMessageWindow = time.Second
	maxClientViolations = 50
)

// slidingWindowLimiter implements a sliding window rate limit with
// exponential backoff after violations, so a client cannot burst at window
// boundaries.
type slidingWindowLimiter struct {
	mu sync.Mutex

	maxRequests int
	window      time.Duration
	timestamps  []time.Time

	violations    int
	lastViolation time.Time
	backoffUntil  time.Time

	baseBackoff time.Duration
	maxBackoff  time.Duration

	now func() time.Time
}

func newSlidingWindowLimiter(maxRequests int, window time.Duration) *slidingWindowLimiter {
	return &slidingWindowLimiter{
		maxRequests: maxRequests,
		window:      window,
		timestamps:  make([]time.Time, 0, maxRequests),
		baseBackoff: 100 * time.Millisecond,
		maxBackoff:  10 * time.Second,
		now:         time.Now,
	}
}

// Allow reports whether another request fits the window.
func (rl *slidingWindowLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Before(rl.backoffUntil) {
		rl.recordViolation(now)
		return false
	}

	rl.evict(now)
	if len(rl.timestamps) >= rl.maxRequests {
		rl.recordViolation(now)
		return false
	}

	// Forgive clients that behaved for two windows.
	if rl.violations > 0 && now.Sub(rl.lastViolation) > 2*rl.window {
		rl.violations = 0
		rl.backoffUntil = time.Time{}
	}

	rl.timestamps = append(rl.timestamps, now)

	return true
}

// Violations returns consecutive violations.
func (rl *slidingWindowLimiter) Violations() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return rl.violations
}

// Must be called with mu held.
func (rl *slidingWindowLimiter) recordViolation(now time.Time) {
	rl.violations++
	rl.lastViolation = now

	backoff := rl.baseBackoff
	for i := 1; i < rl.violations && backoff < rl.maxBackoff; i++ {
		backoff *= 2
	}
	if backoff > rl.maxBackoff {
		backoff = rl.maxBackoff
	}
	rl.backoffUntil = now.Add(backoff)
}

// Must be called with mu held.
func (rl *slidingWindowLimiter) evict(now time.Time) {
	cutoff := now.Add(-rl.window)

	i := 0
	for i < len(rl.timestamps) && !rl.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		n := copy(rl.timestamps, rl.timestamps[i:])
		rl.timestamps = rl.timestamps[:n]
	}
}
