// Package responsive classifies widths into named breakpoints for the
// viewport and for individually observed containers.
package responsive

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/conneroisu/sizekit/internal/errors"
)

// Breakpoint is a named, prioritized width range. Nil bounds are open.
type Breakpoint struct {
	Name     string `json:"name" yaml:"name" mapstructure:"name"`
	MinWidth *int   `json:"minWidth,omitempty" yaml:"min_width,omitempty" mapstructure:"min_width"`
	MaxWidth *int   `json:"maxWidth,omitempty" yaml:"max_width,omitempty" mapstructure:"max_width"`
	Priority int    `json:"priority" yaml:"priority" mapstructure:"priority"`
}

// Px returns a pointer to w, for building breakpoint bounds.
func Px(w int) *int {
	return &w
}

// Defaults returns the standard breakpoint table. Priorities ascend with
// width.
func Defaults() []Breakpoint {
	return []Breakpoint{
		{Name: "xs", MaxWidth: Px(575), Priority: 1},
		{Name: "sm", MinWidth: Px(576), MaxWidth: Px(767), Priority: 2},
		{Name: "md", MinWidth: Px(768), MaxWidth: Px(991), Priority: 3},
		{Name: "lg", MinWidth: Px(992), MaxWidth: Px(1199), Priority: 4},
		{Name: "xl", MinWidth: Px(1200), MaxWidth: Px(1399), Priority: 5},
		{Name: "xxl", MinWidth: Px(1400), Priority: 6},
	}
}

// Matches reports whether w lies within the breakpoint's bounds, inclusive.
func (b Breakpoint) Matches(w int) bool {
	if b.MinWidth != nil && w < *b.MinWidth {
		return false
	}
	if b.MaxWidth != nil && w > *b.MaxWidth {
		return false
	}

	return true
}

// Validate checks the name and that the bounds form a range.
func (b Breakpoint) Validate() error {
	if b.Name == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidBP, "breakpoint name is required")
	}
	if b.MinWidth != nil && b.MaxWidth != nil && *b.MinWidth > *b.MaxWidth {
		return errors.NewValidationError(errors.ErrCodeInvalidBP,
			fmt.Sprintf("breakpoint %q has min width %d above max width %d", b.Name, *b.MinWidth, *b.MaxWidth)).
			WithContext("breakpoint", b.Name)
	}

	return nil
}

// Range renders the bounds for display, e.g. "576-767" or ">=1400".
func (b Breakpoint) Range() string {
	switch {
	case b.MinWidth == nil && b.MaxWidth == nil:
		return "any"
	case b.MinWidth == nil:
		return "<=" + strconv.Itoa(*b.MaxWidth)
	case b.MaxWidth == nil:
		return ">=" + strconv.Itoa(*b.MinWidth)
	default:
		return strconv.Itoa(*b.MinWidth) + "-" + strconv.Itoa(*b.MaxWidth)
	}
}

// FindMatching returns the highest-priority breakpoint containing w. Among
// equal priorities the earliest in bps wins.
func FindMatching(w int, bps []Breakpoint) (Breakpoint, bool) {
	var (
		best  Breakpoint
		found bool
	)
	for _, bp := range bps {
		if !bp.Matches(w) {
			continue
		}
		if !found || bp.Priority > best.Priority {
			best = bp
			found = true
		}
	}

	return best, found
}

// MatchAll returns every breakpoint containing w, highest priority first.
// The sort is stable so equal priorities keep their order in bps.
func MatchAll(w int, bps []Breakpoint) []Breakpoint {
	var out []Breakpoint
	for _, bp := range bps {
		if bp.Matches(w) {
			out = append(out, bp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})

	return out
}

// Names returns the breakpoint names in order.
func Names(bps []Breakpoint) []string {
	out := make([]string, len(bps))
	for i, bp := range bps {
		out[i] = bp.Name
	}

	return out
}

// ToWidth converts a reported width to whole pixels. Non-finite values
// become 0 and values outside the int range saturate.
func ToWidth(w float64) int {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0
	}

	f := math.Floor(w)
	switch {
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}

	return int(f)
}

func clone(bps []Breakpoint) []Breakpoint {
	out := make([]Breakpoint, len(bps))
	for i, bp := range bps {
		out[i] = bp
		if bp.MinWidth != nil {
			out[i].MinWidth = Px(*bp.MinWidth)
		}
		if bp.MaxWidth != nil {
			out[i].MaxWidth = Px(*bp.MaxWidth)
		}
	}

	return out
}
