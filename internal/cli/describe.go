package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/exprsql/internal/ir"
	"github.com/roach88/exprsql/internal/meta"
)

// EntitySummary is one line of the entity listing.
type EntitySummary struct {
	Type   ir.TypeID `json:"type"`
	Table  string    `json:"table"`
	Fields int       `json:"fields"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe [entity]",
		Short: "Show resolved entity metadata",
		Long: `Show how entities of the schema directory map onto tables and columns.

Without an argument every registered entity is listed. With an entity
name its field mappings are printed in declaration order.

Examples:
  exprsql describe
  exprsql describe Student --naming snake
  exprsql describe Book --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runDescribe(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	r, err := loadResolver(opts, formatter, opts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return describeAll(formatter, r)
	}

	m, err := r.Lookup(ir.TypeID(args[0]))
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	if formatter.Format == "json" {
		return formatter.Success(m)
	}

	fmt.Fprintf(formatter.Writer, "%s -> %s\n", m.SourceType(), m.TableName())
	var rows [][]string
	for _, f := range m.Fields() {
		rows = append(rows, []string{f.MemberName, f.ColumnName, f.Kind.String(), fieldFlags(f)})
	}
	return formatter.Table([]string{"MEMBER", "COLUMN", "KIND", "FLAGS"}, rows)
}

func describeAll(formatter *OutputFormatter, r *meta.Resolver) error {
	var entities []EntitySummary
	for _, typ := range r.Registered() {
		m, err := r.Lookup(typ)
		if err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		entities = append(entities, EntitySummary{Type: typ, Table: m.TableName(), Fields: m.Len()})
	}

	if formatter.Format == "json" {
		return formatter.Success(entities)
	}

	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, []string{string(e.Type), e.Table, strconv.Itoa(e.Fields)})
	}
	return formatter.Table([]string{"ENTITY", "TABLE", "FIELDS"}, rows)
}

func fieldFlags(f meta.FieldMapping) string {
	var flags []string
	if f.IsPrimaryKey {
		flags = append(flags, "key")
	}
	if f.IsIdentity {
		flags = append(flags, "identity")
	}
	if f.Generated != "" {
		flags = append(flags, "generated:"+string(f.Generated))
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}
