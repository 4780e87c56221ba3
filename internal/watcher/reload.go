package watcher

import (
	"context"
	"fmt"

	"github.com/conneroisu/sizekit/internal/config"
	"github.com/conneroisu/sizekit/internal/errors"
	"github.com/conneroisu/sizekit/internal/logging"
	"github.com/conneroisu/sizekit/internal/preset"
)

// PresetRegistrar accepts re-registered presets.
type PresetRegistrar interface {
	RegisterPreset(ctx context.Context, p preset.Preset) error
}

// PresetReloader returns a handler that re-reads the presets file at path
// and registers every preset in it. Deleting the file keeps the presets
// already registered. A file that fails to parse or validate registers
// nothing.
func PresetReloader(path string, reg PresetRegistrar, logger logging.Logger) ChangeHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.WithComponent("preset-reload").With("path", path)

	return func(ctx context.Context, events []ChangeEvent) error {
		for _, e := range events {
			if e.Type == EventTypeDeleted || e.Type == EventTypeRenamed {
				if _, err := config.LoadPresetsFile(path); err != nil {
					logger.Warn(ctx, err, "presets file removed, keeping registered presets")
					return nil
				}
			}
		}

		presets, err := config.LoadPresetsFile(path)
		if err != nil {
			return fmt.Errorf("reload presets: %w", err)
		}

		var errs []error
		for _, p := range presets {
			if err := reg.RegisterPreset(ctx, p); err != nil {
				errs = append(errs, fmt.Errorf("register %s: %w", p.Name, err))
			}
		}
		if err := errors.Combine(errs...); err != nil {
			return err
		}

		logger.Info(ctx, "presets reloaded", "count", len(presets))

		return nil
	}
}
