package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sizekit/internal/logging"
	"github.com/conneroisu/sizekit/internal/server"
	"github.com/conneroisu/sizekit/internal/style"
	"github.com/conneroisu/sizekit/internal/watcher"
)

var serveFlags *StandardFlags

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the live preview server",
	Long: `Start the preview server. The page shows every token at the current size
and pushes stylesheet and breakpoint changes over a websocket. When a
presets file is configured it is reloaded on change.

Examples:
  sizekit serve                    # http://localhost:8080
  sizekit serve -p 3000            # Custom port
  sizekit serve --host 0.0.0.0     # Listen on all interfaces`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveFlags = AddStandardFlags(serveCmd, "server")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cfg.Log.Logger(cmd.ErrOrStderr())
	hub := server.NewHub(logger)

	a, err := newAppFromConfig(ctx, cfg, cmd.ErrOrStderr(), appOptions{extraSinks: []style.Sink{hub}})
	if err != nil {
		return err
	}
	defer a.Close()

	opts := cfg.Options()
	srv, err := server.New(a.mgr, hub, server.Options{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		StyleID:        cfg.Tokens.StyleID,
		Breakpoints:    cfg.BreakpointSet(),
		Matching:       opts.Matcher(a.logger),
		Observer:       opts.Observer(a.logger),

		MutationsPerMinute: cfg.Server.MutationsPerMinute,
		MutationBurst:      cfg.Server.MutationBurst,
	}, a.logger)
	if err != nil {
		return err
	}

	if cfg.PresetsFile != "" {
		fw, err := watchPresets(ctx, cfg.PresetsFile, a, a.logger)
		if err != nil {
			return err
		}
		defer fw.Stop()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Starting sizekit preview at http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)

	return srv.Start(ctx)
}

// watchPresets reloads the presets file into the app's manager on change.
func watchPresets(ctx context.Context, path string, a *app, logger logging.Logger) (*watcher.FileWatcher, error) {
	fw, err := watcher.NewFileWatcher(a.cfg.Tokens.DebounceDelay, logger)
	if err != nil {
		return nil, err
	}

	fw.AddFilter(watcher.NoEditorTempFilter)
	fw.AddHandler(watcher.PresetReloader(path, a.mgr, logger))
	if err := fw.AddFile(path); err != nil {
		_ = fw.Stop()
		return nil, err
	}
	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()
		return nil, err
	}

	logger.Info(ctx, "watching presets file", "path", path)

	return fw, nil
}
