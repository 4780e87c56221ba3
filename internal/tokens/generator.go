// Package tokens renders the sizekit custom-property stylesheet.
//
// A stylesheet is a single :root block whose declarations come from the
// fixed scale tables, filled through precompiled templates with values from
// a per-base-size cache. Output is byte-for-byte deterministic for a given
// Config.
package tokens

import (
	"context"
	"math"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/sizekit/internal/cache"
	"github.com/conneroisu/sizekit/internal/scale"
)

// VarPrefix is prepended to every emitted custom property name.
const VarPrefix = "--size-"

var (
	headerTmpl  = MustCompile("/* sizekit tokens: base {base}px */\n:root {{\n")
	sectionTmpl = MustCompile("  /* {section} */\n")
	lineTmpl    = MustCompile("  " + VarPrefix + "{name}: {value};\n")
	footerTmpl  = MustCompile("}}\n")
)

// Config is the input to stylesheet generation: a base size plus optional
// per-category scale factors. A zero factor means 1.
type Config struct {
	BaseSize       float64 `json:"baseSize" yaml:"base_size"`
	FontScale      float64 `json:"fontScale,omitempty" yaml:"font_scale,omitempty"`
	SpacingScale   float64 `json:"spacingScale,omitempty" yaml:"spacing_scale,omitempty"`
	RadiusScale    float64 `json:"radiusScale,omitempty" yaml:"radius_scale,omitempty"`
	ComponentScale float64 `json:"componentScale,omitempty" yaml:"component_scale,omitempty"`
}

// Normalize returns c with unset scale factors replaced by 1.
func (c Config) Normalize() Config {
	if c.FontScale == 0 {
		c.FontScale = 1
	}
	if c.SpacingScale == 0 {
		c.SpacingScale = 1
	}
	if c.RadiusScale == 0 {
		c.RadiusScale = 1
	}
	if c.ComponentScale == 0 {
		c.ComponentScale = 1
	}

	return c
}

// EffectiveBase returns the base size a category is scaled from.
func (c Config) EffectiveBase(cat scale.Category) float64 {
	n := c.Normalize()
	switch cat {
	case scale.CategoryFont:
		return n.BaseSize * n.FontScale
	case scale.CategorySpacing:
		return n.BaseSize * n.SpacingScale
	case scale.CategoryRadius:
		return n.BaseSize * n.RadiusScale
	case scale.CategoryComponent:
		return n.BaseSize * n.ComponentScale
	default:
		return n.BaseSize
	}
}

// Token is one rendered custom property.
type Token struct {
	Category scale.Category `json:"category"`
	Name     string         `json:"name"`
	Value    string         `json:"value"`
}

// Var returns the full custom property name, e.g. --size-font-lg.
func (t Token) Var() string {
	return VarPrefix + t.Name
}

// GeneratorOptions configures a Generator.
type GeneratorOptions struct {
	// CacheLimit bounds both the value cache and the stylesheet cache.
	CacheLimit int
	// DisableCSSCache turns off memoization of whole stylesheets. Values are
	// always memoized.
	DisableCSSCache bool
}

// Generator renders stylesheets. It is safe for concurrent use.
type Generator struct {
	values   *scale.Values
	css      *cache.FIFO[Config, string]
	useCache bool
}

// NewGenerator creates a generator.
func NewGenerator(opts GeneratorOptions) *Generator {
	limit := opts.CacheLimit
	if limit <= 0 {
		limit = scale.DefaultValueCacheLimit
	}

	return &Generator{
		values:   scale.NewValues(limit),
		css:      cache.NewFIFO[Config, string](limit),
		useCache: !opts.DisableCSSCache,
	}
}

// Generate renders the stylesheet for baseSize with default scales.
func (g *Generator) Generate(baseSize float64) string {
	return g.GenerateConfig(Config{BaseSize: baseSize})
}

// GenerateConfig renders the stylesheet for cfg.
func (g *Generator) GenerateConfig(cfg Config) string {
	cfg = cfg.Normalize()
	if !g.useCache {
		return g.render(cfg)
	}

	return g.css.GetOrCompute(cfg, func() string { return g.render(cfg) })
}

// GenerateMinified renders and minifies the stylesheet for cfg.
func (g *Generator) GenerateMinified(cfg Config) string {
	return Minify(g.GenerateConfig(cfg))
}

// Tokens returns the declarations for cfg in emission order.
func (g *Generator) Tokens(cfg Config) []Token {
	cfg = cfg.Normalize()

	var out []Token
	for _, cat := range scale.Categories() {
		base := cfg.EffectiveBase(cat)
		for _, e := range scale.Table(cat) {
			out = append(out, Token{
				Category: cat,
				Name:     e.Name,
				Value:    g.values.Lookup(base, e.Multiplier),
			})
		}
	}

	return out
}

func (g *Generator) render(cfg Config) string {
	var sb strings.Builder
	sb.Grow(4096)

	headerTmpl.Execute(&sb, formatNumber(cfg.BaseSize))
	for _, cat := range scale.Categories() {
		values := g.values.Precompute(cfg.EffectiveBase(cat))
		sectionTmpl.Execute(&sb, string(cat))
		for _, e := range scale.Table(cat) {
			lineTmpl.Execute(&sb, e.Name, values[e.Multiplier])
		}
	}
	footerTmpl.Execute(&sb)

	return sb.String()
}

// GenerateBatch renders one stylesheet per keyed config. Work is spread over
// a bounded number of goroutines and stops early when ctx is cancelled.
func (g *Generator) GenerateBatch(ctx context.Context, configs map[string]Config) (map[string]string, error) {
	keys := make([]string, 0, len(configs))
	for k := range configs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(configs))
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))

	for _, key := range keys {
		if egCtx.Err() != nil {
			break
		}
		cfg := configs[key]
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			css := g.GenerateConfig(cfg)
			mu.Lock()
			out[key] = css
			mu.Unlock()

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// Stats reports cache counters.
func (g *Generator) Stats() GeneratorStats {
	return GeneratorStats{
		Values:      g.values.Stats(),
		Stylesheets: g.css.Stats(),
	}
}

// GeneratorStats groups the generator's cache counters.
type GeneratorStats struct {
	Values      cache.Stats `json:"values"`
	Stylesheets cache.Stats `json:"stylesheets"`
}

// Reset clears every cache.
func (g *Generator) Reset() {
	g.values.Clear()
	g.css.Clear()
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}
