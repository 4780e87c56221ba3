// Package preset defines named size configurations and the registry that
// holds them.
package preset

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/sizekit/internal/errors"
	"github.com/conneroisu/sizekit/internal/tokens"
)

// Accepted base size range in pixels, inclusive.
const (
	MinBaseSize = 1
	MaxBaseSize = 100
)

// Accepted per-category scale factor range. Zero means "unset".
const (
	MinScale = 0.1
	MaxScale = 10
)

// DefaultName is the preset used when nothing else is selected.
const DefaultName = "default"

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Overrides adjusts individual categories relative to the base size.
type Overrides struct {
	Font      float64 `json:"font,omitempty" yaml:"font,omitempty" mapstructure:"font"`
	Spacing   float64 `json:"spacing,omitempty" yaml:"spacing,omitempty" mapstructure:"spacing"`
	Radius    float64 `json:"radius,omitempty" yaml:"radius,omitempty" mapstructure:"radius"`
	Component float64 `json:"component,omitempty" yaml:"component,omitempty" mapstructure:"component"`
}

// Preset is a named, predefined size configuration.
type Preset struct {
	Name      string     `json:"name" yaml:"name" mapstructure:"name"`
	Label     string     `json:"label" yaml:"label" mapstructure:"label"`
	BaseSize  float64    `json:"baseSize" yaml:"base_size" mapstructure:"base_size"`
	Overrides *Overrides `json:"overrides,omitempty" yaml:"overrides,omitempty" mapstructure:"overrides"`
}

// Config returns the generation config this preset selects.
func (p Preset) Config() tokens.Config {
	cfg := tokens.Config{BaseSize: p.BaseSize}
	if p.Overrides != nil {
		cfg.FontScale = p.Overrides.Font
		cfg.SpacingScale = p.Overrides.Spacing
		cfg.RadiusScale = p.Overrides.Radius
		cfg.ComponentScale = p.Overrides.Component
	}

	return cfg
}

// Builtins returns the presets every registry starts with.
func Builtins() []Preset {
	return []Preset{
		{Name: DefaultName, Label: "Default", BaseSize: 16},
		{Name: "compact", Label: "Compact", BaseSize: 14},
		{Name: "comfortable", Label: "Comfortable", BaseSize: 18},
		{Name: "large", Label: "Large", BaseSize: 20, Overrides: &Overrides{Spacing: 1.25}},
	}
}

// ValidateBaseSize checks px against the accepted range.
func ValidateBaseSize(px float64) error {
	if math.IsNaN(px) || px < MinBaseSize || px > MaxBaseSize {
		return errors.NewValidationError(errors.ErrCodeBaseSizeRange,
			fmt.Sprintf("base size %v is outside %d-%d", px, MinBaseSize, MaxBaseSize)).
			WithContext("base_size", px)
	}

	return nil
}

// ValidateScale checks a per-category factor. Zero is accepted as unset.
func ValidateScale(name string, f float64) error {
	if f == 0 {
		return nil
	}
	if math.IsNaN(f) || f < MinScale || f > MaxScale {
		return errors.NewValidationError(errors.ErrCodeScaleRange,
			fmt.Sprintf("%s scale %v is outside %v-%v", name, f, MinScale, MaxScale)).
			WithContext("scale", name)
	}

	return nil
}

// ValidateConfig checks every field of a generation config.
func ValidateConfig(cfg tokens.Config) error {
	if err := ValidateBaseSize(cfg.BaseSize); err != nil {
		return err
	}
	checks := []struct {
		name string
		v    float64
	}{
		{"font", cfg.FontScale},
		{"spacing", cfg.SpacingScale},
		{"radius", cfg.RadiusScale},
		{"component", cfg.ComponentScale},
	}
	for _, c := range checks {
		if err := ValidateScale(c.name, c.v); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks the preset's name and numeric fields.
func (p Preset) Validate() error {
	if !namePattern.MatchString(p.Name) {
		return errors.NewValidationError(errors.ErrCodeInvalidPreset,
			fmt.Sprintf("invalid preset name %q", p.Name))
	}
	if err := ValidateConfig(p.Config()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeInvalidPreset,
			fmt.Sprintf("preset %q", p.Name))
	}

	return nil
}

// ValidName reports whether s is an acceptable preset name.
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}

// LabelFor derives a display label from a preset name.
func LabelFor(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' })

	return cases.Title(language.English).String(strings.Join(words, " "))
}

// Registry holds presets by name, remembering registration order.
type Registry struct {
	mu      sync.RWMutex
	presets map[string]Preset
	order   []string
}

// NewRegistry creates a registry seeded with the built-in presets.
func NewRegistry() *Registry {
	r := &Registry{presets: make(map[string]Preset)}
	for _, p := range Builtins() {
		_ = r.Register(p)
	}

	return r
}

// Register adds p, replacing an existing preset with the same name in place.
func (r *Registry) Register(p Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Label == "" {
		p.Label = LabelFor(p.Name)
	}
	if p.Overrides != nil {
		o := *p.Overrides
		p.Overrides = &o
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.presets[p.Name]; !exists {
		r.order = append(r.order, p.Name)
	}
	r.presets[p.Name] = p

	return nil
}

// Get looks up a preset by name.
func (r *Registry) Get(name string) (Preset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.presets[name]
	if ok && p.Overrides != nil {
		o := *p.Overrides
		p.Overrides = &o
	}

	return p, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.presets[name]

	return ok
}

// List returns all presets in registration order.
func (r *Registry) List() []Preset {
	r.mu.RLock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	r.mu.RUnlock()

	out := make([]Preset, 0, len(names))
	for _, n := range names {
		if p, ok := r.Get(n); ok {
			out = append(out, p)
		}
	}

	return out
}

// Names returns preset names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)

	return names
}
