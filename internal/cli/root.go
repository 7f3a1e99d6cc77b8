// Package cli implements the valentine command line: creating, listing,
// viewing, exporting and cleaning up greeting cards, and serving the
// preview server.
package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/atinyakov/valentine/internal/app"
	"github.com/atinyakov/valentine/internal/config"
	"github.com/atinyakov/valentine/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config is resolved against the config file and environment before
	// any command runs.
	Config *config.Options
	// Getenv reads the environment. Defaults to os.Getenv.
	Getenv func(string) string
	// NewApp builds the app for a command. Defaults to app.New.
	NewApp func(*config.Options, *zap.Logger) (*app.App, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the valentine CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	if opts.Config == nil {
		opts.Config = config.Default()
		opts.Config.LogLevel = "warn"
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.NewApp == nil {
		opts.NewApp = app.New
	}

	cmd := &cobra.Command{
		Use:   "valentine",
		Short: "Valentine - greeting cards",
		Long:  "Create personalised Valentine greeting cards, share their links and export them as images.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if err := opts.Config.Resolve(opts.Getenv); err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	c := opts.Config
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&c.StorageDriver, "storage", c.StorageDriver, "storage driver: file, memory, sqlite3, postgres")
	flags.StringVar(&c.StoragePath, "data", c.StoragePath, "data directory")
	flags.StringVar(&c.DatabaseDSN, "dsn", c.DatabaseDSN, "database connection string")
	flags.StringVar(&c.BaseURL, "base-url", c.BaseURL, "base URL of share links")
	flags.StringVar(&c.IDScheme, "id-scheme", c.IDScheme, "id scheme: uuid or ulid")
	flags.StringVar(&c.ExportDir, "export-dir", c.ExportDir, "directory for exported images")
	flags.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level")
	flags.StringVarP(&c.Config, "config", "c", c.Config, "path to config file")

	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewViewCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewThemesCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openApp builds the app with a console logger. Verbose forces debug.
func (o *RootOptions) openApp() (*app.App, error) {
	level := o.Config.LogLevel
	if o.Verbose {
		level = "debug"
	}
	l := logger.New()
	if err := l.InitDevelopment(level); err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot init logger", err)
	}

	a, err := o.NewApp(o.Config, l.Log)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot open storage", err)
	}
	return a, nil
}
