// Package cmd provides the sizekit command-line interface.
//
// Configuration is read from several sources, highest priority first:
//  1. Command-line flags (--config, --log-level, --port, ...)
//  2. SIZEKIT_CONFIG_FILE environment variable: custom config file path
//  3. Individual environment variables (SIZEKIT_TOKENS_DEFAULT_PRESET, ...)
//  4. Configuration file (.sizekit.yml)
//
// Environment variables follow the SIZEKIT_<SECTION>_<OPTION> pattern, e.g.
// SIZEKIT_SERVER_PORT or SIZEKIT_STORAGE_DRIVER.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// envKeys are bound explicitly so Unmarshal sees them without a config file.
var envKeys = []string{
	"presets_file",
	"tokens.storage_key",
	"tokens.default_preset",
	"tokens.cache_limit",
	"tokens.enable_cache",
	"tokens.debounce_delay",
	"tokens.minify",
	"tokens.style_id",
	"storage.driver",
	"storage.path",
	"output.css_path",
	"output.html_path",
	"server.host",
	"server.port",
	"server.mutations_per_minute",
	"server.mutation_burst",
	"log.level",
	"log.format",
}

var rootCmd = &cobra.Command{
	Use:   "sizekit",
	Short: "Generate and preview runtime size tokens",
	Long: `sizekit turns a base size and a set of presets into CSS custom properties,
keeps the active selection in a persistent store and previews breakpoint
behaviour in the browser.

Quick Start:
  sizekit generate --preset compact   Print the stylesheet for a preset
  sizekit presets list                List registered presets
  sizekit breakpoint 800              Show which breakpoints match a width
  sizekit serve                       Start the live preview server`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .sizekit.yml, can also use SIZEKIT_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error, off)")
}

// bindConfigFlags binds flags that override configuration keys.
func bindConfigFlags(v *viper.Viper) {
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = v.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}

// initConfig points viper at the config file and environment.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("SIZEKIT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sizekit")
	}

	bindConfigFlags(viper.GetViper())

	viper.SetEnvPrefix("SIZEKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}

	// A missing file is fine; defaults apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
