// Package cmd implements the link-health command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/link-health/internal/bootstrap"
)

// version is set at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug forces debug logging for all commands
	debug bool
)

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "link-health",
		Short:         "Link and feed validation engine",
		Long:          `Validates outbound links, checks feed health and aggregates validated feed content.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $CONFIG_PATH or ./config.yml)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "link-health version %s\n", version)
			},
		},
		newServeCommand(),
		newRunCommand(),
		newValidateCommand(),
		newCheckFeedCommand(),
	)

	return root
}

// Execute runs the root command until it returns or the process is signalled.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand().ExecuteContext(ctx)
}

// buildApp loads configuration and wires the application. CLI commands log
// to stderr so stdout carries only their tables.
func buildApp(ctx context.Context, opts bootstrap.Options, logOutput ...string) (*bootstrap.App, error) {
	cfg, err := bootstrap.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Debug = true
	}

	log, err := bootstrap.CreateLogger(cfg, version, logOutput...)
	if err != nil {
		return nil, err
	}

	app, err := bootstrap.New(ctx, cfg, log, opts)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return app, nil
}

func closeApp(app *bootstrap.App) {
	app.Close()
	if err := app.Logger.Sync(); err != nil {
		app.Logger.Debug("Logger sync failed", logger.Error(err))
	}
}
