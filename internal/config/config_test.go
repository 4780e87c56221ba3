package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sizekit/internal/errors"
	"github.com/conneroisu/sizekit/internal/manager"
	"github.com/conneroisu/sizekit/internal/preset"
	"github.com/conneroisu/sizekit/internal/responsive"
	"github.com/conneroisu/sizekit/internal/style"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, manager.DefaultStorageKey, cfg.Tokens.StorageKey)
	assert.Equal(t, preset.DefaultName, cfg.Tokens.DefaultPreset)
	assert.Equal(t, DefaultCacheLimit, cfg.Tokens.CacheLimit)
	assert.True(t, cfg.Tokens.EnableCache)
	assert.Equal(t, responsive.DefaultDebounceDelay, cfg.Tokens.DebounceDelay)
	assert.Equal(t, style.DefaultID, cfg.Tokens.StyleID)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, DefaultHost, cfg.Server.Host)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Len(t, cfg.BreakpointSet(), 6)

	assert.Equal(t, cfg, Default())
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(v *viper.Viper)
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "explicit values",
			setup: func(v *viper.Viper) {
				v.Set("tokens.storage_key", "t1")
				v.Set("tokens.default_preset", "compact")
				v.Set("tokens.enable_cache", false)
				v.Set("tokens.debounce_delay", "250ms")
				v.Set("tokens.cache_limit", 50)
				v.Set("server.port", 0)
			},
			check: func(t *testing.T, cfg *Config) {
				opts := cfg.Options()
				assert.Equal(t, "t1", opts.StorageKey)
				assert.Equal(t, "compact", opts.DefaultPreset)
				assert.False(t, opts.EnableCache)
				assert.Equal(t, 250*time.Millisecond, opts.DebounceDelay)
				assert.Equal(t, 50, opts.CacheLimit)
				assert.Equal(t, 0, cfg.Server.Port, "zero port is kept when set")

				mo := opts.Manager()
				assert.Equal(t, "t1", mo.StorageKey)
				assert.Equal(t, 50, opts.Observer(nil).Matching.CacheLimit)
			},
		},
		{
			name: "custom presets and breakpoints",
			setup: func(v *viper.Viper) {
				v.Set("tokens.default_preset", "kiosk")
				v.Set("presets", []map[string]any{
					{"name": "kiosk", "base_size": 24, "overrides": map[string]any{"spacing": 1.5}},
				})
				v.Set("breakpoints", []map[string]any{
					{"name": "phone", "max_width": 599, "priority": 1},
					{"name": "desk", "min_width": 600, "priority": 2},
				})
			},
			check: func(t *testing.T, cfg *Config) {
				require.Len(t, cfg.Presets, 1)
				assert.Equal(t, 24.0, cfg.Presets[0].BaseSize)
				require.NotNil(t, cfg.Presets[0].Overrides)
				assert.Equal(t, 1.5, cfg.Presets[0].Overrides.Spacing)

				bps := cfg.BreakpointSet()
				require.Len(t, bps, 2)
				require.NotNil(t, bps[0].MaxWidth)
				assert.Equal(t, 599, *bps[0].MaxWidth)
				assert.Nil(t, bps[0].MinWidth)
			},
		},
		{
			name: "file storage gets a default path",
			setup: func(v *viper.Viper) {
				v.Set("storage.driver", "sqlite")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ".sizekit/state.db", cfg.Storage.Path)
			},
		},
		{
			name:        "unknown default preset",
			setup:       func(v *viper.Viper) { v.Set("tokens.default_preset", "huge") },
			expectError: true,
		},
		{
			name:        "bad storage driver",
			setup:       func(v *viper.Viper) { v.Set("storage.driver", "redis") },
			expectError: true,
		},
		{
			name:        "port out of range",
			setup:       func(v *viper.Viper) { v.Set("server.port", 70000) },
			expectError: true,
		},
		{
			name:        "unparseable port",
			setup:       func(v *viper.Viper) { v.Set("server.port", "invalid_port") },
			expectError: true,
		},
		{
			name:        "bad style id",
			setup:       func(v *viper.Viper) { v.Set("tokens.style_id", "1 bad") },
			expectError: true,
		},
		{
			name:        "path traversal",
			setup:       func(v *viper.Viper) { v.Set("output.css_path", "../../etc/tokens.css") },
			expectError: true,
		},
		{
			name: "preset out of range",
			setup: func(v *viper.Viper) {
				v.Set("presets", []map[string]any{{"name": "giant", "base_size": 500}})
			},
			expectError: true,
		},
		{
			name: "duplicate breakpoint",
			setup: func(v *viper.Viper) {
				v.Set("breakpoints", []map[string]any{{"name": "a"}, {"name": "a"}})
			},
			expectError: true,
		},
		{
			name:        "bad log level",
			setup:       func(v *viper.Viper) { v.Set("log.level", "loud") },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			tt.setup(v)

			cfg, err := LoadFrom(v)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadFrom_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".sizekit.yml")
	content := `
tokens:
  storage_key: app
  default_preset: comfortable
  minify: true
storage:
  driver: file
  path: state
server:
  host: 0.0.0.0
  allowed_origins: ["http://localhost:3000"]
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.Tokens.StorageKey)
	assert.True(t, cfg.Tokens.Minify)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "state", cfg.Storage.Path)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	t.Setenv("SIZEKIT_TOKENS_STORAGE_KEY", "from-env")

	v := viper.New()
	v.SetEnvPrefix("SIZEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	require.NoError(t, v.BindEnv("tokens.storage_key"))

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Tokens.StorageKey)
}

func TestLoadFrom_PresetsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yml")
	require.NoError(t, os.WriteFile(path, []byte("presets:\n  - name: tv\n    base_size: 32\n"), 0o644))

	v := viper.New()
	v.Set("presets_file", path)
	v.Set("tokens.default_preset", "tv")

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	require.Len(t, cfg.Presets, 1)
	assert.Equal(t, "Tv", cfg.Presets[0].Label)
}

func TestValidate_ErrorShape(t *testing.T) {
	cfg := Default()
	cfg.Tokens.CacheLimit = -1

	err := Validate(cfg)
	require.Error(t, err)

	var cfgErr *errors.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, errors.ErrorTypeConfig, cfgErr.Type)
	assert.Contains(t, err.Error(), "tokens.cachelimit")
}

func TestWarnings(t *testing.T) {
	cfg := Default()
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Tokens.EnableCache = false

	warnings := Warnings(cfg)
	assert.Len(t, warnings, 3)
}

func TestParsePresets(t *testing.T) {
	t.Run("document form", func(t *testing.T) {
		presets, err := ParsePresets(strings.NewReader(`
presets:
  - name: kiosk
    label: Kiosk Mode
    base_size: 24
    overrides:
      font: 1.2
`))
		require.NoError(t, err)
		require.Len(t, presets, 1)
		assert.Equal(t, "Kiosk Mode", presets[0].Label)
		assert.Equal(t, 1.2, presets[0].Overrides.Font)
	})

	t.Run("list form", func(t *testing.T) {
		presets, err := ParsePresets(strings.NewReader("- name: a\n  base_size: 10\n- name: b\n  base_size: 12\n"))
		require.NoError(t, err)
		assert.Len(t, presets, 2)
	})

	t.Run("empty", func(t *testing.T) {
		presets, err := ParsePresets(strings.NewReader("  \n"))
		require.NoError(t, err)
		assert.Empty(t, presets)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ParsePresets(strings.NewReader("presets:\n  - name: a\n    base: 10\n"))
		assert.Error(t, err)
	})

	t.Run("invalid preset", func(t *testing.T) {
		_, err := ParsePresets(strings.NewReader("- name: a\n  base_size: 0\n"))
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParsePresets(strings.NewReader("presets: [\n"))
		assert.Error(t, err)
	})
}

func TestEncodePresets_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodePresets(&buf, preset.Builtins()))

	presets, err := ParsePresets(&buf)
	require.NoError(t, err)
	assert.Equal(t, preset.Builtins(), presets)
}

func TestLoadPresetsFile_Missing(t *testing.T) {
	_, err := LoadPresetsFile(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
