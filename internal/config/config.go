// Package config provides configuration management for sizekit using Viper
// for flexible loading from files, environment variables and command-line
// flags.
//
// The configuration supports YAML files, environment variable overrides with
// the SIZEKIT_ prefix and struct validation. It covers token generation
// options, extra presets and breakpoints, the persistence backend, output
// targets, the preview server and logging.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/sizekit/internal/logging"
	"github.com/conneroisu/sizekit/internal/manager"
	"github.com/conneroisu/sizekit/internal/preset"
	"github.com/conneroisu/sizekit/internal/responsive"
	"github.com/conneroisu/sizekit/internal/store"
	"github.com/conneroisu/sizekit/internal/style"
)

// Default values applied after unmarshalling.
const (
	DefaultCacheLimit = 20
	DefaultHost       = "localhost"
	DefaultPort       = 8080
)

// Config is the root configuration document.
type Config struct {
	Tokens      TokensConfig            `mapstructure:"tokens" yaml:"tokens"`
	Presets     []preset.Preset         `mapstructure:"presets" yaml:"presets" validate:"dive"`
	PresetsFile string                  `mapstructure:"presets_file" yaml:"presets_file"`
	Breakpoints []responsive.Breakpoint `mapstructure:"breakpoints" yaml:"breakpoints" validate:"dive"`
	Storage     StorageConfig           `mapstructure:"storage" yaml:"storage"`
	Output      OutputConfig            `mapstructure:"output" yaml:"output"`
	Server      ServerConfig            `mapstructure:"server" yaml:"server"`
	Log         LogConfig               `mapstructure:"log" yaml:"log"`
}

// TokensConfig holds the size manager and matcher options.
type TokensConfig struct {
	StorageKey    string        `mapstructure:"storage_key" yaml:"storage_key" validate:"required"`
	DefaultPreset string        `mapstructure:"default_preset" yaml:"default_preset" validate:"required,preset_name"`
	CacheLimit    int           `mapstructure:"cache_limit" yaml:"cache_limit" validate:"gte=1,lte=100000"`
	EnableCache   bool          `mapstructure:"enable_cache" yaml:"enable_cache"`
	DebounceDelay time.Duration `mapstructure:"debounce_delay" yaml:"debounce_delay" validate:"gte=0"`
	Minify        bool          `mapstructure:"minify" yaml:"minify"`
	StyleID       string        `mapstructure:"style_id" yaml:"style_id" validate:"required,style_id"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver" validate:"oneof=memory file sqlite"`
	Path   string `mapstructure:"path" yaml:"path" validate:"omitempty,safe_path"`
}

// OutputConfig names the files stylesheets are written into.
type OutputConfig struct {
	CSSPath  string `mapstructure:"css_path" yaml:"css_path" validate:"omitempty,safe_path"`
	HTMLPath string `mapstructure:"html_path" yaml:"html_path" validate:"omitempty,safe_path"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host" validate:"required,hostname_rfc1123|ip"`
	Port           int      `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	// Per client IP budget for POST and PATCH requests. Negative disables.
	MutationsPerMinute int `mapstructure:"mutations_per_minute" yaml:"mutations_per_minute"`
	MutationBurst      int `mapstructure:"mutation_burst" yaml:"mutation_burst"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn warning error off"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// Load unmarshals the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals v, applies defaults, merges the presets file and
// validates the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	applyDefaults(v, &cfg)

	if cfg.PresetsFile != "" {
		extra, err := LoadPresetsFile(cfg.PresetsFile)
		if err != nil {
			return nil, err
		}
		cfg.Presets = append(cfg.Presets, extra...)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(viper.New(), cfg)

	return cfg
}

func applyDefaults(v *viper.Viper, cfg *Config) {
	if cfg.Tokens.StorageKey == "" {
		cfg.Tokens.StorageKey = manager.DefaultStorageKey
	}
	if cfg.Tokens.DefaultPreset == "" {
		cfg.Tokens.DefaultPreset = preset.DefaultName
	}
	if cfg.Tokens.CacheLimit == 0 {
		cfg.Tokens.CacheLimit = DefaultCacheLimit
	}
	if !v.IsSet("tokens.enable_cache") {
		cfg.Tokens.EnableCache = true
	}
	if !v.IsSet("tokens.debounce_delay") {
		cfg.Tokens.DebounceDelay = responsive.DefaultDebounceDelay
	}
	if cfg.Tokens.StyleID == "" {
		cfg.Tokens.StyleID = style.DefaultID
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = store.DriverMemory
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Driver {
		case store.DriverFile:
			cfg.Storage.Path = ".sizekit/state"
		case store.DriverSQLite:
			cfg.Storage.Path = ".sizekit/state.db"
		}
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if !v.IsSet("server.port") {
		cfg.Server.Port = DefaultPort
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Options are the recognized library options derived from a Config.
type Options struct {
	StorageKey    string
	Presets       []preset.Preset
	DefaultPreset string
	DebounceDelay time.Duration
	CacheLimit    int
	EnableCache   bool
	Minify        bool
}

// Options derives the library options.
func (c *Config) Options() Options {
	return Options{
		StorageKey:    c.Tokens.StorageKey,
		Presets:       c.Presets,
		DefaultPreset: c.Tokens.DefaultPreset,
		DebounceDelay: c.Tokens.DebounceDelay,
		CacheLimit:    c.Tokens.CacheLimit,
		EnableCache:   c.Tokens.EnableCache,
		Minify:        c.Tokens.Minify,
	}
}

// Manager returns manager options; collaborators are left for the caller.
func (o Options) Manager() manager.Options {
	return manager.Options{
		StorageKey:    o.StorageKey,
		Presets:       o.Presets,
		DefaultPreset: o.DefaultPreset,
		CacheLimit:    o.CacheLimit,
		Minify:        o.Minify,
	}
}

// Matcher returns breakpoint matcher options.
func (o Options) Matcher(logger logging.Logger) responsive.MatcherOptions {
	return responsive.MatcherOptions{
		EnableCache: o.EnableCache,
		CacheLimit:  o.CacheLimit,
		Logger:      logger,
	}
}

// Observer returns container observer options.
func (o Options) Observer(logger logging.Logger) responsive.ObserverOptions {
	return responsive.ObserverOptions{
		DebounceDelay: o.DebounceDelay,
		Matching:      o.Matcher(logger),
		Logger:        logger,
	}
}

// BreakpointSet returns the configured breakpoints, or the defaults when
// none are configured.
func (c *Config) BreakpointSet() []responsive.Breakpoint {
	if len(c.Breakpoints) == 0 {
		return responsive.Defaults()
	}

	return c.Breakpoints
}

// Logger builds a logger from the log section. A nil w writes to stderr.
func (l LogConfig) Logger(w io.Writer) logging.Logger {
	level, err := logging.ParseLevel(l.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	if w == nil {
		w = os.Stderr
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: l.Format,
		Output: w,
	})
}
