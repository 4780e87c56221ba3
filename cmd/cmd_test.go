package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sizekit/internal/errors"
)

// resetFlags restores every flag to its default between executions.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the CLI in a fresh working directory state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--log-level", "off"}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

// inTempDir runs the test from an empty directory, optionally with a
// .sizekit.yml.
func inTempDir(t *testing.T, configYAML string) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	if configYAML != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".sizekit.yml"), []byte(configYAML), 0o644))
	}

	return dir
}

func TestGenerate(t *testing.T) {
	inTempDir(t, "")

	out, err := execute(t, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "base 16px")
	assert.Contains(t, out, ":root {")
	assert.Contains(t, out, "--size-font-md: 16px;")

	out, err = execute(t, "generate", "--preset", "compact")
	require.NoError(t, err)
	assert.Contains(t, out, "base 14px")

	out, err = execute(t, "generate", "--base-size", "18", "--minify")
	require.NoError(t, err)
	assert.Contains(t, out, "--size-font-md:18px")
	assert.NotContains(t, out, "\n  ")

	out, err = execute(t, "generate", "--preset", "large", "--base-size", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "base 10px")
	assert.Contains(t, out, "--size-spacing-md: 13px;", "base size keeps the preset's spacing override")
}

func TestGenerate_Errors(t *testing.T) {
	inTempDir(t, "")

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, err error)
	}{
		{
			name: "base size out of range",
			args: []string{"generate", "--base-size", "0"},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsValidation(err))
			},
		},
		{
			name: "unknown preset",
			args: []string{"generate", "--preset", "huge"},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsLookup(err))
			},
		},
		{
			name: "invalid preset name",
			args: []string{"generate", "--preset", "Bad Name"},
		},
		{
			name: "output traversal",
			args: []string{"generate", "--output", "../tokens.css"},
		},
		{
			name: "unexpected argument",
			args: []string{"generate", "extra"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestGenerate_Files(t *testing.T) {
	dir := inTempDir(t, "")

	out, err := execute(t, "generate", "--preset", "comfortable", "-o", "dist/tokens.css", "--html", "index.html")
	require.NoError(t, err)
	assert.Empty(t, out)

	css, err := os.ReadFile(filepath.Join(dir, "dist", "tokens.css"))
	require.NoError(t, err)
	assert.Contains(t, string(css), "base 18px")

	page, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), `id="sizekit-vars"`)
	assert.Contains(t, string(page), "base 18px")
}

func TestPresetsList(t *testing.T) {
	inTempDir(t, "")

	out, err := execute(t, "presets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "compact")
	assert.Contains(t, out, "spacing=1.25")

	out, err = execute(t, "presets", "list", "-f", "json")
	require.NoError(t, err)

	var rows []presetRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 4)
	assert.Equal(t, "default", rows[0].Name)
	assert.True(t, rows[0].Active)

	out, err = execute(t, "presets", "list", "-f", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "base_size: 14")

	_, err = execute(t, "presets", "list", "-f", "jsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "json"`)
}

func TestPresetsApply_Persists(t *testing.T) {
	dir := inTempDir(t, `
storage:
  driver: file
  path: state
output:
  css_path: out/tokens.css
`)

	out, err := execute(t, "preset", "apply", "compact")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied preset compact (base 14px)")

	css, err := os.ReadFile(filepath.Join(dir, "out", "tokens.css"))
	require.NoError(t, err)
	assert.Contains(t, string(css), "base 14px")

	out, err = execute(t, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "base 14px", "selection is restored from the store")

	out, err = execute(t, "presets", "list", "-f", "json")
	require.NoError(t, err)
	var rows []presetRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	for _, r := range rows {
		assert.Equal(t, r.Name == "compact", r.Active, r.Name)
	}

	_, err = execute(t, "preset", "apply", "huge")
	assert.True(t, errors.IsLookup(err))
}

func TestPresetsExport(t *testing.T) {
	inTempDir(t, `
presets:
  - name: kiosk
    base_size: 24
`)

	out, err := execute(t, "presets", "export")
	require.NoError(t, err)
	assert.Contains(t, out, "name: kiosk")
	assert.Contains(t, out, "name: compact")
}

func TestBreakpoint(t *testing.T) {
	inTempDir(t, "")

	out, err := execute(t, "breakpoint", "800", "-f", "json")
	require.NoError(t, err)

	var result breakpointResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotNil(t, result.Width)
	assert.Equal(t, 800, *result.Width)
	assert.Equal(t, "md", result.Current)
	require.Len(t, result.Breakpoints, 6)

	out, err = execute(t, "bp")
	require.NoError(t, err)
	assert.Contains(t, out, ">=1400")
	assert.NotContains(t, out, "width")

	out, err = execute(t, "breakpoint", "575.9")
	require.NoError(t, err)
	assert.Contains(t, out, "width 575px: xs")

	_, err = execute(t, "breakpoint", "wide")
	assert.True(t, errors.IsValidation(err))
}

func TestBreakpoint_CustomSet(t *testing.T) {
	inTempDir(t, `
breakpoints:
  - name: phone
    max_width: 599
    priority: 1
  - name: wide
    min_width: 500
    priority: 2
`)

	out, err := execute(t, "breakpoint", "550", "-f", "json")
	require.NoError(t, err)

	var result breakpointResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "wide", result.Current)
	assert.True(t, result.Breakpoints[0].Active)
	assert.False(t, result.Breakpoints[0].Current)
}

func TestEnvironmentOverride(t *testing.T) {
	inTempDir(t, "")
	t.Setenv("SIZEKIT_TOKENS_DEFAULT_PRESET", "large")

	out, err := execute(t, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "base 20px")
}

func TestConfigFileFlag(t *testing.T) {
	dir := inTempDir(t, "")
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("tokens:\n  default_preset: comfortable\n"), 0o644))

	out, err := execute(t, "--config", path, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "base 18px")
}

func TestConfigCommands(t *testing.T) {
	inTempDir(t, "server:\n  allowed_origins: [\"*\"]\n")

	out, err := execute(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")
	assert.Contains(t, out, "warning:")

	out, err = execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "default_preset: default")

	inTempDir(t, "tokens:\n  cache_limit: -5\n")
	_, err = execute(t, "config", "validate")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	inTempDir(t, "")

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sizekit ")
	assert.Contains(t, out, "Go: ")

	out, err = execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "is_release")

	_, err = execute(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestWatch_RequiresPresetsFile(t *testing.T) {
	inTempDir(t, "")

	_, err := execute(t, "watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no presets file")
}

func TestValidateFormatWithSuggestion(t *testing.T) {
	assert.NoError(t, ValidateFormatWithSuggestion("json", outputFormats))

	err := ValidateFormatWithSuggestion("tabel", outputFormats)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "table"`)

	err = ValidateFormatWithSuggestion("markdown", outputFormats)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestEditDistance(t *testing.T) {
	assert.Equal(t, 0, editDistance("yaml", "yaml"))
	assert.Equal(t, 1, editDistance("yml", "yaml"))
	assert.Equal(t, 3, editDistance("", "abc"))
	assert.Equal(t, 3, editDistance("kitten", "sitting"))
	assert.Equal(t, 2, editDistance("josn", "json"), "a transposition costs two edits")
}

func TestValidatePathArgument(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"", false},
		{"dist/tokens.css", false},
		{"/tmp/out/tokens.css", false},
		{"../tokens.css", true},
		{"out; rm -rf /", true},
		{"$(whoami).css", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := validatePathArgument(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, ValidatePort("8080"))
	assert.NoError(t, ValidatePort("0"))
	assert.Error(t, ValidatePort("70000"))
	assert.Error(t, ValidatePort("http"))
}

func TestGenerate_AllPresets(t *testing.T) {
	dir := inTempDir(t, "")

	out, err := execute(t, "generate", "--all-presets")
	require.NoError(t, err)
	assert.Contains(t, out, "/* preset: default */")
	assert.Contains(t, out, "/* preset: large */")
	assert.Less(t, strings.Index(out, "preset: compact"), strings.Index(out, "preset: comfortable"))

	out, err = execute(t, "generate", "--all-presets", "-o", "dist")
	require.NoError(t, err)
	assert.Empty(t, out)
	for name, base := range map[string]string{"default": "16", "compact": "14", "comfortable": "18", "large": "20"} {
		css, err := os.ReadFile(filepath.Join(dir, "dist", name+".css"))
		require.NoError(t, err, name)
		assert.Contains(t, string(css), "base "+base+"px", name)
	}

	_, err = execute(t, "generate", "--all-presets", "--preset", "compact")
	assert.Error(t, err)
}
