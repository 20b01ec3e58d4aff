package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/exprsql/internal/config"
	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/meta"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	NoColor    bool
	ConfigFile string

	// Config is resolved before any subcommand runs.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the exprsql CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand()
}

func newRootCommand(loaderOpts ...config.Option) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "exprsql",
		Short: "exprsql - typed expressions to SQL",
		Long: `Translate typed expression trees over mapped entities into SQL fragments
and statements for sqlite, postgres and mysql.

Configuration is read from flags, EXPRSQL_* environment variables,
.env.local and .env, and a .exprsql.yaml file in the working directory,
the home directory or ~/.config/exprsql.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.NoColor {
				color.NoColor = true
			}

			lopts := loaderOpts
			if opts.ConfigFile != "" {
				lopts = append(lopts, config.WithConfigFile(opts.ConfigFile))
			}
			cfg, err := config.NewLoader(lopts...).Load(cmd.Flags())
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			opts.Config = cfg
			return nil
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default .exprsql.yaml in the search path)")
	pf.String("dialect", "", fmt.Sprintf("SQL dialect (%v)", dialect.Names()))
	pf.String("dsn", "", "database connection string for query")
	pf.String("schema-dir", "", "directory of CUE entity declarations")
	pf.String("naming", "", "column naming policy (lower|snake|asis)")

	// Add subcommands
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// config returns the resolved configuration, falling back to defaults for
// commands executed without the root command.
func (o *RootOptions) config() *config.Config {
	if o.Config != nil {
		return o.Config
	}
	return &config.Config{
		Dialect:   dialect.SQLite,
		SchemaDir: "./schema",
		Naming:    meta.NamingLower,
	}
}

// logger writes structured diagnostics to w. Debug records are enabled
// with --verbose.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}
