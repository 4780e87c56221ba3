package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sizekit/internal/errors"
	"github.com/conneroisu/sizekit/internal/tokens"
)

var watchPresetsFile string

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Rewrite output files when the presets file changes",
	Long: `Watch the presets file and re-register its presets on every change. When
the active preset changes, the configured css and html outputs are
rewritten.

Examples:
  sizekit watch                          # Uses presets_file from config
  sizekit watch --presets presets.yml    # Explicit presets file`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchPresetsFile, "presets", "", "Presets file to watch (defaults to presets_file)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := validatePathArgument(watchPresetsFile); err != nil {
		return fmt.Errorf("invalid --presets %q: %w", watchPresetsFile, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	path := watchPresetsFile
	if path == "" {
		path = a.cfg.PresetsFile
	}
	if path == "" {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid, "no presets file to watch; set presets_file or pass --presets")
	}

	unsubscribe := a.mgr.Subscribe(func(cfg tokens.Config) {
		a.logger.Info(ctx, "stylesheet updated", "preset", a.mgr.CurrentPreset(), "base_size", cfg.BaseSize)
	})
	defer unsubscribe()

	fw, err := watchPresets(ctx, path, a, a.logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (press Ctrl+C to stop)\n", path)
	<-ctx.Done()

	return nil
}
