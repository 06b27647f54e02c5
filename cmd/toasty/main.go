package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vinodismyname/toasty/config"
	"github.com/vinodismyname/toasty/internal/provider"
	"github.com/vinodismyname/toasty/internal/runtime"
	"github.com/vinodismyname/toasty/internal/session"
	"github.com/vinodismyname/toasty/internal/telemetry"
	"github.com/vinodismyname/toasty/pkg/version"
)

// errReported signals a failure that has already been printed.
var errReported = errors.New("failed")

type rootOptions struct {
	configPath string
	logLevel   string
}

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	ctrl     *runtime.Controller
	sessions *session.Registry
	prov     *provider.Provider
	hooks    *telemetry.Hooks
}

func newApp(cfg *config.Config, logger zerolog.Logger) *app {
	ctrl := runtime.NewController(runtime.LimitsFromConfig(cfg))
	sessions := session.NewRegistry(cfg.Sessions.MaxEntries)
	prov := provider.New(sessions, ctrl,
		provider.WithMetasPolicy(cfg.Metas.Policy),
		provider.WithLogger(logger),
	)
	return &app{
		cfg:      cfg,
		logger:   logger,
		ctrl:     ctrl,
		sessions: sessions,
		prov:     prov,
		hooks:    telemetry.NewHooks(logger),
	}
}

func newLogger(cfg config.LoggingConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	out := w
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "toasty").Logger(), nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "toasty", "config.yaml")
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	var a *app

	root := &cobra.Command{
		Use:           "toasty",
		Short:         "Calculator search provider for the desktop shell",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Logging.Level = opts.logLevel
			}
			logger, err := newLogger(cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a = newApp(cfg, logger)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath(), "Path to YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override: trace, debug, info, warn, error")

	current := func() *app { return a }
	serve := newServeCmd(current)
	root.AddCommand(serve, newMCPCmd(current), newEvalCmd(current))
	// Running bare toasty serves on the bus.
	root.RunE = serve.RunE

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "toasty: %v\n", err)
		}
		os.Exit(1)
	}
}
