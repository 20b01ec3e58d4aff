package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/exprsql/internal/harness"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Kind      string
	ParamType string
	Order     string
	Limit     int
	Vars      map[string]string
	Output    string // output file path
}

// CompilationResult is the JSON payload of a successful compile.
type CompilationResult struct {
	Entity  string   `json:"entity"`
	Kind    string   `json:"kind"`
	Dialect string   `json:"dialect"`
	SQL     string   `json:"sql"`
	Params  []string `json:"params,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <entity> [expr]",
		Short: "Compile an expression to SQL",
		Long: `Compile a lambda expression over an entity of the schema directory.

Kinds predicate, order and scalar produce a SQL fragment. Kinds select
and count produce a whole statement; their expression is an optional
WHERE predicate. Parameters are written @Name, captured variables $name.

Examples:
  exprsql compile Student "e => e.Cource == @Cource && e.Letter == 'B'"
  exprsql compile Student 'e => e.OrderBy(x => x.Cource).ThenByDescending(x => x.LocalId)' --kind order
  exprsql compile Student 'e => e.FirstName.StartsWith($p)' --var p=Ma --kind select --limit 10
  exprsql compile Book --kind count --dialect postgres`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := ""
			if len(args) == 2 {
				expr = args[1]
			}
			return runCompile(opts, args[0], expr, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", harness.KindPredicate, "predicate|order|scalar|select|count")
	cmd.Flags().StringVar(&opts.ParamType, "params", "", "parameter object type (default \"params\")")
	cmd.Flags().StringVar(&opts.Order, "order", "", "OrderBy chain for select")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "row limit for select")
	cmd.Flags().StringToStringVar(&opts.Vars, "var", nil, "captured variable name=value")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, entity, expr string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())
	cfg := opts.config()

	vars, err := parseValues(opts.Vars)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	c := harness.Case{
		Name:   "compile",
		Entity: entity,
		Params: opts.ParamType,
		Kind:   opts.Kind,
		Expr:   expr,
		Order:  opts.Order,
		Limit:  opts.Limit,
		Vars:   vars,
	}
	if err := c.Validate(); err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	r, err := loadResolver(opts.RootOptions, formatter, logger)
	if err != nil {
		return err
	}

	got := harness.New(harness.WithResolver(r), harness.WithLogger(logger)).Compile(c, cfg.Dialect)
	if got.Error != "" {
		return formatter.Report(ExitFailure, got.Error, got.Detail, nil)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(got.SQL+"\n"), 0644); err != nil {
			return formatter.Fail(ExitCommandError, fmt.Errorf("failed to write output: %w", err))
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}

	if formatter.Format == "json" {
		return formatter.Success(CompilationResult{
			Entity:  entity,
			Kind:    opts.Kind,
			Dialect: cfg.Dialect,
			SQL:     got.SQL,
			Params:  got.Params,
		})
	}

	fmt.Fprintln(formatter.Writer, got.SQL)
	if len(got.Params) > 0 {
		fmt.Fprintf(formatter.Writer, "params: %s\n", strings.Join(got.Params, ", "))
	}
	return nil
}
