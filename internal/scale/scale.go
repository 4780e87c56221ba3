// Package scale holds the fixed multiplier tables that map semantic token
// names to ratios of a base size, and turns base sizes into pixel strings.
package scale

import (
	"math"
	"sort"
	"strconv"
	"unique"
)

// Category groups tokens that share a CSS variable prefix.
type Category string

const (
	CategoryBase      Category = "base"
	CategorySize      Category = "size"
	CategoryFont      Category = "font"
	CategorySpacing   Category = "spacing"
	CategoryRadius    Category = "radius"
	CategoryComponent Category = "component"
)

// Entry names one token and its ratio of the base size.
type Entry struct {
	Name       string
	Multiplier float64
}

// MaxStep is the highest numbered size token (--size-0 .. --size-64).
const MaxStep = 64

// StepMultiplier is the ratio between adjacent numbered size tokens.
const StepMultiplier = 0.25

var (
	baseTable = []Entry{
		{"base", 1},
		{"unit", StepMultiplier},
	}

	fontTable = []Entry{
		{"font-xs", 0.75},
		{"font-sm", 0.875},
		{"font-md", 1},
		{"font-lg", 1.125},
		{"font-xl", 1.25},
		{"font-2xl", 1.5},
		{"font-3xl", 1.875},
		{"font-4xl", 2.25},
		{"font-5xl", 3},
	}

	spacingTable = []Entry{
		{"spacing-none", 0},
		{"spacing-xs", 0.25},
		{"spacing-sm", 0.5},
		{"spacing-md", 1},
		{"spacing-lg", 1.5},
		{"spacing-xl", 2},
		{"spacing-2xl", 3},
		{"spacing-3xl", 4},
	}

	radiusTable = []Entry{
		{"radius-none", 0},
		{"radius-sm", 0.125},
		{"radius-md", 0.25},
		{"radius-lg", 0.5},
		{"radius-xl", 0.75},
		{"radius-2xl", 1},
	}

	componentTable = []Entry{
		{"control-height-sm", 2},
		{"control-height-md", 2.5},
		{"control-height-lg", 3},
		{"icon-sm", 1},
		{"icon-md", 1.25},
		{"icon-lg", 1.5},
		{"avatar-sm", 2},
		{"avatar-md", 2.5},
		{"avatar-lg", 4},
	}

	stepTable = buildSteps()

	multipliers = collectMultipliers()
)

func buildSteps() []Entry {
	steps := make([]Entry, 0, MaxStep+1)
	for i := 0; i <= MaxStep; i++ {
		steps = append(steps, Entry{Name: strconv.Itoa(i), Multiplier: float64(i) * StepMultiplier})
	}

	return steps
}

func collectMultipliers() []float64 {
	seen := make(map[float64]struct{})
	for _, table := range [][]Entry{baseTable, stepTable, fontTable, spacingTable, radiusTable, componentTable} {
		for _, e := range table {
			seen[e.Multiplier] = struct{}{}
		}
	}

	out := make([]float64, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Float64s(out)

	return out
}

// Table returns a copy of the entries for a category in declaration order.
func Table(c Category) []Entry {
	var src []Entry
	switch c {
	case CategoryBase:
		src = baseTable
	case CategorySize:
		src = stepTable
	case CategoryFont:
		src = fontTable
	case CategorySpacing:
		src = spacingTable
	case CategoryRadius:
		src = radiusTable
	case CategoryComponent:
		src = componentTable
	default:
		return nil
	}

	out := make([]Entry, len(src))
	copy(out, src)

	return out
}

// Categories lists categories in stylesheet emission order.
func Categories() []Category {
	return []Category{
		CategoryBase,
		CategorySize,
		CategoryFont,
		CategorySpacing,
		CategoryRadius,
		CategoryComponent,
	}
}

// Multipliers returns every distinct multiplier across all tables, ascending.
func Multipliers() []float64 {
	out := make([]float64, len(multipliers))
	copy(out, multipliers)

	return out
}

// ScaleValue returns round(baseSize*multiplier) as a CSS length: "0" for a
// zero result, "{n}px" otherwise. Negative or non-finite base sizes yield
// meaningless but well-formed output; range checks belong to callers.
func ScaleValue(baseSize, multiplier float64) string {
	n := math.Round(baseSize * multiplier)
	if n == 0 || math.IsNaN(n) {
		return "0"
	}

	var s string
	if math.IsInf(n, 0) || math.Abs(n) > math.MaxInt64/2 {
		s = strconv.FormatFloat(n, 'f', -1, 64) + "px"
	} else {
		s = strconv.FormatInt(int64(n), 10) + "px"
	}

	return intern(s)
}

// intern returns the canonical copy of s so equal token values across
// stylesheets share storage.
func intern(s string) string {
	return unique.Make(s).Value()
}
