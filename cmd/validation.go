package cmd

import (
	"fmt"
	"strings"

	"github.com/conneroisu/sizekit/internal/preset"
)

// validatePathArgument checks a file path given on the command line.
func validatePathArgument(arg string) error {
	if arg == "" {
		return nil
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'", "\n"}
	for _, char := range dangerousChars {
		if strings.Contains(arg, char) {
			return fmt.Errorf("contains dangerous character: %q", char)
		}
	}

	if strings.Contains(arg, "..") {
		return fmt.Errorf("path traversal attempt detected")
	}

	return nil
}

// validatePathArguments validates several path flags by name.
func validatePathArguments(paths map[string]string) error {
	for flag, path := range paths {
		if err := validatePathArgument(path); err != nil {
			return fmt.Errorf("invalid --%s %q: %w", flag, path, err)
		}
	}

	return nil
}

// validatePresetArgument checks a preset name argument.
func validatePresetArgument(name string) error {
	if !preset.ValidName(name) {
		return fmt.Errorf("invalid preset name %q: use lowercase letters, digits, '-' and '_'", name)
	}

	return nil
}
