package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sizekit/internal/config"
	"github.com/conneroisu/sizekit/internal/errors"
	"github.com/conneroisu/sizekit/internal/preset"
)

var presetsListFlags *StandardFlags

var presetsCmd = &cobra.Command{
	Use:     "presets",
	Aliases: []string{"preset"},
	Short:   "Inspect and select size presets",
}

var presetsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered presets",
	Long: `List the built-in and configured presets. The active preset is marked.

Examples:
  sizekit presets list             # Table
  sizekit presets list -f json     # JSON
  sizekit presets list -f yaml     # YAML`,
	Args: cobra.NoArgs,
	RunE: runPresetsList,
}

var presetsApplyCmd = &cobra.Command{
	Use:   "apply <name>",
	Short: "Select a preset and persist it",
	Long: `Select a preset. The selection is saved to the configured store and the
configured output files are rewritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runPresetsApply,
}

var presetsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print registered presets as a presets file",
	Args:  cobra.NoArgs,
	RunE:  runPresetsExport,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.AddCommand(presetsListCmd, presetsApplyCmd, presetsExportCmd)

	presetsListFlags = AddStandardFlags(presetsListCmd, "output")
}

type presetRow struct {
	Name      string            `json:"name" yaml:"name"`
	Label     string            `json:"label" yaml:"label"`
	BaseSize  float64           `json:"baseSize" yaml:"base_size"`
	Overrides *preset.Overrides `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	Active    bool              `json:"active" yaml:"active"`
}

func runPresetsList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd, appOptions{noOutputs: true})
	if err != nil {
		return err
	}
	defer a.Close()

	current := a.mgr.CurrentPreset()
	presets := a.mgr.Presets()
	rows := make([]presetRow, len(presets))
	for i, p := range presets {
		rows[i] = presetRow{
			Name:      p.Name,
			Label:     p.Label,
			BaseSize:  p.BaseSize,
			Overrides: p.Overrides,
			Active:    p.Name == current,
		}
	}

	if presetsListFlags.OutputFormat == "table" {
		return outputPresetTable(cmd.OutOrStdout(), rows)
	}

	return writeStructured(cmd.OutOrStdout(), presetsListFlags.OutputFormat, rows)
}

func outputPresetTable(out io.Writer, rows []presetRow) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tNAME\tLABEL\tBASE\tOVERRIDES")
	for _, r := range rows {
		marker := ""
		if r.Active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%gpx\t%s\n", marker, r.Name, r.Label, r.BaseSize, formatOverrides(r.Overrides))
	}

	return w.Flush()
}

func formatOverrides(o *preset.Overrides) string {
	if o == nil {
		return "-"
	}

	var out string
	add := func(name string, v float64) {
		if v == 0 {
			return
		}
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%s=%g", name, v)
	}
	add("font", o.Font)
	add("spacing", o.Spacing)
	add("radius", o.Radius)
	add("component", o.Component)
	if out == "" {
		return "-"
	}

	return out
}

func runPresetsApply(cmd *cobra.Command, args []string) error {
	if err := validatePresetArgument(args[0]); err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	name := args[0]
	if !a.mgr.ApplyPreset(cmd.Context(), name) {
		return errors.NewLookupError(errors.ErrCodeUnknownPreset, fmt.Sprintf("preset %q not found", name))
	}

	cfg := a.mgr.Config()
	fmt.Fprintf(cmd.OutOrStdout(), "Applied preset %s (base %gpx)\n", name, cfg.BaseSize)

	return nil
}

func runPresetsExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd, appOptions{noOutputs: true})
	if err != nil {
		return err
	}
	defer a.Close()

	return config.EncodePresets(cmd.OutOrStdout(), a.mgr.Presets())
}
