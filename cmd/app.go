package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/sizekit/internal/config"
	"github.com/conneroisu/sizekit/internal/errors"
	"github.com/conneroisu/sizekit/internal/logging"
	"github.com/conneroisu/sizekit/internal/manager"
	"github.com/conneroisu/sizekit/internal/store"
	"github.com/conneroisu/sizekit/internal/style"
)

// app is the runtime assembled from configuration for one command.
type app struct {
	cfg    *config.Config
	logger logging.Logger
	store  store.Store
	mgr    *manager.Manager
}

// appOptions adjust how an app is assembled.
type appOptions struct {
	// extraSinks receive every stylesheet in addition to configured outputs.
	extraSinks []style.Sink
	// noOutputs skips the configured css/html output files.
	noOutputs bool
}

// loadConfig reads configuration from the global viper instance.
func loadConfig() (*config.Config, error) {
	return config.LoadFrom(viper.GetViper())
}

// newApp loads configuration and builds the store, sinks and manager.
func newApp(ctx context.Context, cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	return newAppFromConfig(ctx, cfg, cmd.ErrOrStderr(), opts)
}

func newAppFromConfig(ctx context.Context, cfg *config.Config, logOut io.Writer, opts appOptions) (*app, error) {
	logger := cfg.Log.Logger(logOut)

	for _, warning := range config.Warnings(cfg) {
		logger.Debug(ctx, "config warning", "warning", warning)
	}

	st, err := store.Open(ctx, cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	sinks := style.Multi{style.NewElement(cfg.Tokens.StyleID)}
	if !opts.noOutputs {
		if cfg.Output.CSSPath != "" {
			sinks = append(sinks, style.NewCSSFile(cfg.Output.CSSPath))
		}
		if cfg.Output.HTMLPath != "" {
			sinks = append(sinks, style.NewHTMLDocument(cfg.Output.HTMLPath, cfg.Tokens.StyleID))
		}
	}
	sinks = append(sinks, opts.extraSinks...)

	mo := cfg.Options().Manager()
	mo.Store = st
	mo.Sink = sinks
	mo.Logger = logger

	mgr, err := manager.New(ctx, mo)
	if err != nil {
		return nil, errors.Combine(err, st.Close())
	}

	return &app{cfg: cfg, logger: logger, store: st, mgr: mgr}, nil
}

// Close closes the store. The manager is not destroyed so output files
// written by its sinks stay in place.
func (a *app) Close() error {
	return a.store.Close()
}
