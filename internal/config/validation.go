package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/conneroisu/sizekit/internal/errors"
	"github.com/conneroisu/sizekit/internal/preset"
	"github.com/conneroisu/sizekit/internal/store"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	styleIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	dangerousChars = []string{";", "&", "|", "$", "`", "<", ">", "\"", "'", "\x00"}
)

// validatorInstance returns the shared validator with sizekit rules.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("preset_name", func(fl validator.FieldLevel) bool {
			return preset.ValidName(fl.Field().String())
		})

		_ = v.RegisterValidation("style_id", func(fl validator.FieldLevel) bool {
			return styleIDPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("safe_path", func(fl validator.FieldLevel) bool {
			return validatePath(fl.Field().String()) == nil
		})

		validateInst = v
	})

	return validateInst
}

// Validate checks struct rules, then cross-field rules: presets and
// breakpoints must be valid and unique, and the default preset must exist.
func Validate(cfg *Config) error {
	if err := validatorInstance().Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	registry := preset.NewRegistry()
	seen := make(map[string]bool, len(cfg.Presets))
	for i, p := range cfg.Presets {
		if seen[p.Name] {
			return errors.NewConfigError(errors.ErrCodeConfigInvalid,
				fmt.Sprintf("presets[%d]: duplicate preset %q", i, p.Name))
		}
		seen[p.Name] = true
		if err := registry.Register(p); err != nil {
			return fmt.Errorf("presets[%d]: %w", i, err)
		}
	}
	if !registry.Has(cfg.Tokens.DefaultPreset) {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("tokens.default_preset: %q is not a registered preset", cfg.Tokens.DefaultPreset)).
			WithContext("available", registry.Names())
	}

	names := make(map[string]bool, len(cfg.Breakpoints))
	for i, bp := range cfg.Breakpoints {
		if err := bp.Validate(); err != nil {
			return fmt.Errorf("breakpoints[%d]: %w", i, err)
		}
		if names[bp.Name] {
			return errors.NewConfigError(errors.ErrCodeConfigInvalid,
				fmt.Sprintf("breakpoints[%d]: duplicate breakpoint %q", i, bp.Name))
		}
		names[bp.Name] = true
	}

	return nil
}

// Warnings lists settings that are valid but likely unintended.
func Warnings(cfg *Config) []string {
	var out []string

	for _, origin := range cfg.Server.AllowedOrigins {
		if origin == "*" {
			out = append(out, "server.allowed_origins contains \"*\"; any site can open a live connection")
		}
	}
	if cfg.Storage.Driver == store.DriverMemory {
		out = append(out, "storage.driver is memory; the selected preset is lost on exit")
	}
	if !cfg.Tokens.EnableCache {
		out = append(out, "tokens.enable_cache is false; every breakpoint lookup scans the full set")
	}

	return out
}

// convertValidationError normalizes validator errors into config errors.
func convertValidationError(err error) error {
	ves, ok := err.(validator.ValidationErrors)
	if !ok || len(ves) == 0 {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid, err.Error())
	}

	ve := ves[0]
	field := yamlishFieldName(ve)
	msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
	if ve.Param() != "" {
		msg += " (" + ve.Param() + ")"
	}

	return errors.NewConfigError(errors.ErrCodeConfigInvalid, msg).WithContext("field", field)
}

// yamlishFieldName turns "Config.Tokens.CacheLimit" into
// "tokens.cachelimit".
func yamlishFieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		parts[i] = strings.ToLower(part)
	}

	return strings.Join(parts, ".")
}

// validatePath validates a file path for security.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %q", char)
		}
	}

	return nil
}
