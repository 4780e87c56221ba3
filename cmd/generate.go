package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sizekit/internal/errors"
	"github.com/conneroisu/sizekit/internal/manager"
	"github.com/conneroisu/sizekit/internal/preset"
	"github.com/conneroisu/sizekit/internal/style"
	"github.com/conneroisu/sizekit/internal/tokens"
)

var (
	generateBaseSize float64
	generatePreset   string
	generateMinify   bool
	generateOutput   string
	generateHTML     string
	generateAll      bool
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"g", "gen"},
	Short:   "Render the size token stylesheet",
	Long: `Render the size token stylesheet for the current selection, a preset or
an explicit base size. The stored selection is not changed.

Examples:
  sizekit generate                          # Current selection to stdout
  sizekit generate --preset compact         # A registered preset
  sizekit generate --base-size 18 --minify  # Explicit base size, minified
  sizekit generate -o dist/tokens.css       # Write a stylesheet file
  sizekit generate --html index.html        # Inject into an HTML document
  sizekit generate --all-presets -o dist    # dist/<preset>.css for every preset`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().Float64VarP(&generateBaseSize, "base-size", "b", 0, "Base size in pixels (1-100)")
	generateCmd.Flags().StringVarP(&generatePreset, "preset", "p", "", "Preset to render")
	generateCmd.Flags().BoolVarP(&generateMinify, "minify", "m", false, "Minify the stylesheet")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Write the stylesheet to a file instead of stdout")
	generateCmd.Flags().StringVar(&generateHTML, "html", "", "Inject the stylesheet into an HTML document")
	generateCmd.Flags().BoolVar(&generateAll, "all-presets", false, "Render every registered preset (--output is a directory)")
	generateCmd.MarkFlagsMutuallyExclusive("all-presets", "preset")
	generateCmd.MarkFlagsMutuallyExclusive("all-presets", "base-size")
	generateCmd.MarkFlagsMutuallyExclusive("all-presets", "html")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := validatePathArguments(map[string]string{"output": generateOutput, "html": generateHTML}); err != nil {
		return err
	}
	if generatePreset != "" {
		if err := validatePresetArgument(generatePreset); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cmd, appOptions{noOutputs: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if generateAll {
		return generateAllPresets(cmd, a, generateOutput, generateMinify || a.cfg.Tokens.Minify)
	}

	cfg, err := resolveGenerateConfig(a.mgr, generatePreset, cmd.Flags().Changed("base-size"), generateBaseSize)
	if err != nil {
		return err
	}

	css := a.mgr.Generator().GenerateConfig(cfg)
	if generateMinify || a.cfg.Tokens.Minify {
		css = tokens.Minify(css)
	}

	var sinks style.Multi
	if generateOutput != "" {
		sinks = append(sinks, style.NewCSSFile(generateOutput))
	}
	if generateHTML != "" {
		sinks = append(sinks, style.NewHTMLDocument(generateHTML, a.cfg.Tokens.StyleID))
	}

	if len(sinks) == 0 {
		_, err := io.WriteString(cmd.OutOrStdout(), css)
		return err
	}
	if err := sinks.SetText(ctx, css); err != nil {
		return err
	}

	for _, path := range []string{generateOutput, generateHTML} {
		if path != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
		}
	}

	return nil
}

// resolveGenerateConfig starts from the manager's selection, then applies a
// preset and a base size. A base size keeps the preset's overrides.
func resolveGenerateConfig(mgr *manager.Manager, presetName string, hasBase bool, base float64) (tokens.Config, error) {
	cfg := mgr.Config()

	if presetName != "" {
		p, ok := findPreset(mgr.Presets(), presetName)
		if !ok {
			return tokens.Config{}, errors.NewLookupError(errors.ErrCodeUnknownPreset,
				fmt.Sprintf("preset %q not found", presetName))
		}
		cfg = p.Config()
	}

	if hasBase {
		cfg = manager.Patch{BaseSize: manager.Float(base)}.Apply(cfg)
	}

	if err := preset.ValidateConfig(cfg); err != nil {
		return tokens.Config{}, err
	}

	return cfg, nil
}

func findPreset(presets []preset.Preset, name string) (preset.Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}

	return preset.Preset{}, false
}

// generateAllPresets renders every registered preset in one batch. With a
// directory each preset goes to <dir>/<name>.css, otherwise the stylesheets
// are printed in registration order.
func generateAllPresets(cmd *cobra.Command, a *app, dir string, minify bool) error {
	ctx := cmd.Context()
	presets := a.mgr.Presets()

	configs := make(map[string]tokens.Config, len(presets))
	for _, p := range presets {
		configs[p.Name] = p.Config()
	}

	sheets, err := a.mgr.Generator().GenerateBatch(ctx, configs)
	if err != nil {
		return err
	}

	var out strings.Builder
	for _, p := range presets {
		css := sheets[p.Name]
		if minify {
			css = tokens.Minify(css)
		}

		if dir == "" {
			fmt.Fprintf(&out, "/* preset: %s */\n%s", p.Name, css)
			continue
		}

		path := filepath.Join(dir, p.Name+".css")
		if err := style.NewCSSFile(path).SetText(ctx, css); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	}

	if dir == "" {
		_, err = io.WriteString(cmd.OutOrStdout(), out.String())
	}

	return err
}
