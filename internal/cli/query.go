package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/exprparse"
	"github.com/roach88/exprsql/internal/harness"
	"github.com/roach88/exprsql/internal/ir"
	"github.com/roach88/exprsql/internal/meta"
	"github.com/roach88/exprsql/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	ParamType string
	Order     string
	Limit     int
	Params    map[string]string
	Vars      map[string]string
}

// QueryResult is the JSON payload of a query.
type QueryResult struct {
	Entity string         `json:"entity"`
	SQL    string         `json:"sql"`
	Rows   []store.Record `json:"rows"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <entity> [expr]",
		Short: "Run a filtered SELECT against a database",
		Long: `Compile a predicate over an entity and run the resulting SELECT against
the configured database. Rows are printed keyed by member name.

Exit codes:
  0 - Query succeeded
  1 - Expression rejected
  2 - Command error (schema, connection, etc.)

Examples:
  exprsql query Student 'e => e.Cource == @Cource' --param Cource=2 --dsn ./school.db
  exprsql query Student --order 'e => e.OrderBy(x => x.SecondName)' --limit 5
  exprsql query Book --dialect postgres --dsn postgres://localhost/library --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			where := ""
			if len(args) == 2 {
				where = args[1]
			}
			return runQuery(opts, args[0], where, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ParamType, "params", "", "parameter object type (default \"params\")")
	cmd.Flags().StringVar(&opts.Order, "order", "", "OrderBy chain")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "row limit")
	cmd.Flags().StringToStringVar(&opts.Params, "param", nil, "parameter value name=value")
	cmd.Flags().StringToStringVar(&opts.Vars, "var", nil, "captured variable name=value")

	return cmd
}

func runQuery(opts *QueryOptions, entity, where string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())
	cfg := opts.config()

	params, err := parseValues(opts.Params)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	vars, err := parseValues(opts.Vars)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	if opts.Limit < 0 {
		return formatter.Report(ExitCommandError, harness.ErrCodeFailed, "limit must not be negative", nil)
	}

	r, err := loadResolver(opts.RootOptions, formatter, logger)
	if err != nil {
		return err
	}
	m, err := r.Lookup(ir.TypeID(entity))
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	d, err := dialect.Lookup(cfg.Dialect)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	q, err := buildQuery(m, opts, where, vars)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}
	st, err := dialect.Select(d, m, q)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}
	formatter.VerboseLog("SQL: %s", st.SQL)

	s, err := store.Open(d, cfg.DSN, store.WithResolver(r), store.WithLogger(logger))
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	defer s.Close()

	rows, err := s.FindRecords(cmd.Context(), m, q, store.Params(params))
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(QueryResult{Entity: entity, SQL: st.SQL, Rows: rows})
	}
	return printRecords(formatter, m, rows)
}

func buildQuery(m *meta.EntityMetadata, opts *QueryOptions, where string, vars map[string]any) (dialect.Query, error) {
	paramType := ir.TypeID(opts.ParamType)
	if paramType == "" {
		paramType = exprparse.DefaultParamType
	}
	popts := exprparse.Options{Metadata: m, ParamType: paramType}

	q := dialect.Query{ParamType: paramType, Limit: opts.Limit}
	if len(vars) > 0 {
		q.Env = &expr.Env{}
		for k, v := range vars {
			q.Env.Bind(exprparse.LocalsType, k, v)
		}
	}

	var err error
	if where != "" {
		if q.Where, err = exprparse.Parse(where, popts); err != nil {
			return q, err
		}
	}
	if opts.Order != "" {
		if q.Order, err = exprparse.Parse(opts.Order, popts); err != nil {
			return q, err
		}
	}
	return q, nil
}

func printRecords(formatter *OutputFormatter, m *meta.EntityMetadata, rows []store.Record) error {
	fields := m.Fields()
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.MemberName
	}
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		line := make([]string, len(fields))
		for i, f := range fields {
			if v := row[f.MemberName]; v == nil {
				line[i] = "NULL"
			} else {
				line[i] = fmt.Sprint(v)
			}
		}
		cells = append(cells, line)
	}
	if err := formatter.Table(header, cells); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "(%d rows)\n", len(rows))
	return nil
}
