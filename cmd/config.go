package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sizekit/internal/config"
)

var configFlags *StandardFlags

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and report warnings",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd, configShowCmd)

	configFlags = &StandardFlags{}
	configShowCmd.Flags().StringVarP(&configFlags.OutputFormat, "format", "f", "yaml", "Output format (json|yaml)")
	AddFlagValidation(configShowCmd, "format", func(format string) error {
		return ValidateFormatWithSuggestion(format, []string{"json", "yaml"})
	})
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, warning := range config.Warnings(cfg) {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}
	fmt.Fprintln(out, "Configuration is valid")

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	return writeStructured(cmd.OutOrStdout(), configFlags.OutputFormat, cfg)
}
