// Package style owns the places generated stylesheets are injected into.
// Every write replaces the whole content; nothing is patched incrementally.
package style

import (
	"context"
	"sync"

	"github.com/conneroisu/sizekit/internal/errors"
)

// DefaultID is the id of the injected style element.
const DefaultID = "sizekit-vars"

// Sink receives complete stylesheets.
type Sink interface {
	// SetText replaces the injected stylesheet with css.
	SetText(ctx context.Context, css string) error
	// Remove detaches the injected stylesheet.
	Remove(ctx context.Context) error
}

// Element is an in-process stand-in for a <style> element with a stable id.
type Element struct {
	mu       sync.RWMutex
	id       string
	text     string
	attached bool
	writes   int
}

// NewElement creates a detached element.
func NewElement(id string) *Element {
	if id == "" {
		id = DefaultID
	}

	return &Element{id: id}
}

// SetText implements Sink.
func (e *Element) SetText(_ context.Context, css string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.text = css
	e.attached = true
	e.writes++

	return nil
}

// Remove implements Sink.
func (e *Element) Remove(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.text = ""
	e.attached = false

	return nil
}

// ID returns the element id.
func (e *Element) ID() string {
	return e.id
}

// Text returns the current content.
func (e *Element) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.text
}

// Attached reports whether the element is currently injected.
func (e *Element) Attached() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.attached
}

// Writes counts SetText calls.
func (e *Element) Writes() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.writes
}

// Multi fans a stylesheet out to several sinks. Every sink is attempted;
// failures are combined.
type Multi []Sink

// SetText implements Sink.
func (m Multi) SetText(ctx context.Context, css string) error {
	var errs []error
	for _, s := range m {
		if err := s.SetText(ctx, css); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Combine(errs...)
}

// Remove implements Sink.
func (m Multi) Remove(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		if err := s.Remove(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Combine(errs...)
}
