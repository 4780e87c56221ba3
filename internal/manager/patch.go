package manager

import (
	"context"
	"sync"

	"github.com/conneroisu/sizekit/internal/tokens"
)

// Patch is a partial configuration update. Nil fields are left unchanged.
type Patch struct {
	BaseSize       *float64 `json:"baseSize,omitempty"`
	FontScale      *float64 `json:"fontScale,omitempty"`
	SpacingScale   *float64 `json:"spacingScale,omitempty"`
	RadiusScale    *float64 `json:"radiusScale,omitempty"`
	ComponentScale *float64 `json:"componentScale,omitempty"`
}

// Apply merges p into cfg.
func (p Patch) Apply(cfg tokens.Config) tokens.Config {
	if p.BaseSize != nil {
		cfg.BaseSize = *p.BaseSize
	}
	if p.FontScale != nil {
		cfg.FontScale = *p.FontScale
	}
	if p.SpacingScale != nil {
		cfg.SpacingScale = *p.SpacingScale
	}
	if p.RadiusScale != nil {
		cfg.RadiusScale = *p.RadiusScale
	}
	if p.ComponentScale != nil {
		cfg.ComponentScale = *p.ComponentScale
	}

	return cfg
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.BaseSize == nil && p.FontScale == nil && p.SpacingScale == nil &&
		p.RadiusScale == nil && p.ComponentScale == nil
}

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 {
	return &v
}

var (
	defaultOnce sync.Once
	defaultMgr  *Manager
)

// Default returns a lazily constructed process-wide manager using the
// built-in presets, in-memory storage and an in-process style element.
// Programs that need more than one configuration should call New.
func Default() *Manager {
	defaultOnce.Do(func() {
		// Built-in options cannot fail validation.
		defaultMgr, _ = New(context.Background(), Options{})
	})

	return defaultMgr
}
