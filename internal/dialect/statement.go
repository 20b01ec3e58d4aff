package dialect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/ir"
	"github.com/roach88/exprsql/internal/meta"
	"github.com/roach88/exprsql/internal/sqlexpr"
)

// RowParams is the parameter type of statements bound from an entity
// record: INSERT values and UPDATE/DELETE/Get key predicates.
const RowParams ir.TypeID = "$row"

// ErrNoKey is returned for keyed statements on an entity without a primary key.
var ErrNoKey = errors.New("entity has no primary key")

// Statement is assembled SQL plus the binder that orders its arguments.
type Statement struct {
	SQL    string
	Binder *Binder

	// Returning names the identity member returned by the statement.
	Returning string
}

// Args maps named values onto driver arguments for s.
func (s Statement) Args(values map[string]any) ([]any, error) {
	return s.Binder.Args(values)
}

// Query describes a SELECT over one entity.
type Query struct {
	// Where is a predicate over the entity. Nil selects every row.
	Where expr.Node

	// Order is an OrderBy chain. Nil leaves the order unspecified.
	Order expr.Node

	// ParamType is the parameter object type referenced by Where.
	ParamType ir.TypeID

	// Env evaluates captured values in Where and Order.
	Env *expr.Env

	// Limit caps the number of rows when positive.
	Limit int
}

func (q Query) context(m *meta.EntityMetadata, b *Binder) sqlexpr.Context {
	return sqlexpr.Context{Metadata: m, ParamType: q.ParamType, Marker: b.Marker, Env: q.Env}
}

// Select assembles SELECT <columns> FROM <table> [WHERE] [ORDER BY] [LIMIT].
func Select(d Dialect, m *meta.EntityMetadata, q Query) (Statement, error) {
	b := NewBinder(d)
	ctx := q.context(m, b)

	where, err := sqlexpr.CompilePredicate(ctx, q.Where)
	if err != nil {
		return Statement{}, fmt.Errorf("compile where: %w", err)
	}
	order, err := sqlexpr.CompileOrder(ctx, q.Order)
	if err != nil {
		return Statement{}, fmt.Errorf("compile order: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(m.Columns(), ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(m.TableName())
	writeClauses(&sb, where, order, q.Limit)
	return Statement{SQL: sb.String(), Binder: b}, nil
}

// Aggregate assembles SELECT <scalar> FROM <table> [WHERE] for a Count,
// Average or Sum projection.
func Aggregate(d Dialect, m *meta.EntityMetadata, scalar expr.Node, q Query) (Statement, error) {
	b := NewBinder(d)
	ctx := q.context(m, b)

	proj, err := sqlexpr.CompileScalar(ctx, scalar)
	if err != nil {
		return Statement{}, fmt.Errorf("compile projection: %w", err)
	}
	if proj == "" {
		return Statement{}, fmt.Errorf("compile projection: empty aggregate")
	}
	where, err := sqlexpr.CompilePredicate(ctx, q.Where)
	if err != nil {
		return Statement{}, fmt.Errorf("compile where: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(proj)
	sb.WriteString(" FROM ")
	sb.WriteString(m.TableName())
	writeClauses(&sb, where, "", 0)
	return Statement{SQL: sb.String(), Binder: b}, nil
}

// Count assembles SELECT COUNT(1) FROM <table> [WHERE].
func Count(d Dialect, m *meta.EntityMetadata, q Query) (Statement, error) {
	return Aggregate(d, m, expr.Call(expr.Root(m.SourceType()), "Count"), q)
}

// Get assembles a SELECT of the row addressed by primary key, bound from
// RowParams.
func Get(d Dialect, m *meta.EntityMetadata) (Statement, error) {
	keys, err := keyPredicate(m)
	if err != nil {
		return Statement{}, err
	}
	return Select(d, m, Query{Where: keys, ParamType: RowParams})
}

// Insert assembles an INSERT of every mapped column except the identity.
// Dialects with Returning append RETURNING <identity column>.
func Insert(d Dialect, m *meta.EntityMetadata) (Statement, error) {
	b := NewBinder(d)

	var cols, vals []string
	for _, f := range m.Fields() {
		if f.IsIdentity {
			continue
		}
		cols = append(cols, f.ColumnName)
		vals = append(vals, b.Marker(f.MemberName))
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(m.TableName())
	if len(cols) == 0 {
		sb.WriteString(" DEFAULT VALUES")
	} else {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(cols, ", "))
		sb.WriteString(") VALUES (")
		sb.WriteString(strings.Join(vals, ", "))
		sb.WriteString(")")
	}

	st := Statement{Binder: b}
	if id, ok := m.Identity(); ok {
		st.Returning = id.MemberName
		if d.Returning() {
			sb.WriteString(" RETURNING ")
			sb.WriteString(id.ColumnName)
		}
	}
	st.SQL = sb.String()
	return st, nil
}

// Update assembles an UPDATE of every non-key column, keyed by primary key.
func Update(d Dialect, m *meta.EntityMetadata) (Statement, error) {
	keys, err := keyPredicate(m)
	if err != nil {
		return Statement{}, err
	}
	set := m.NonKeys()
	if len(set) == 0 {
		return Statement{}, fmt.Errorf("update %s: no non-key columns", m.SourceType())
	}

	b := NewBinder(d)
	assignments := make([]string, len(set))
	for i, f := range set {
		assignments[i] = f.ColumnName + " = " + b.Marker(f.MemberName)
	}
	where, err := sqlexpr.CompilePredicate(sqlexpr.Context{Metadata: m, ParamType: RowParams, Marker: b.Marker}, keys)
	if err != nil {
		return Statement{}, fmt.Errorf("compile key: %w", err)
	}

	sql := "UPDATE " + m.TableName() + " SET " + strings.Join(assignments, ", ") + " WHERE " + where
	return Statement{SQL: sql, Binder: b}, nil
}

// Delete assembles a DELETE of the row addressed by primary key.
func Delete(d Dialect, m *meta.EntityMetadata) (Statement, error) {
	keys, err := keyPredicate(m)
	if err != nil {
		return Statement{}, err
	}
	return DeleteWhere(d, m, Query{Where: keys, ParamType: RowParams})
}

// DeleteWhere assembles DELETE FROM <table> [WHERE].
func DeleteWhere(d Dialect, m *meta.EntityMetadata, q Query) (Statement, error) {
	b := NewBinder(d)
	where, err := sqlexpr.CompilePredicate(q.context(m, b), q.Where)
	if err != nil {
		return Statement{}, fmt.Errorf("compile where: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(m.TableName())
	writeClauses(&sb, where, "", 0)
	return Statement{SQL: sb.String(), Binder: b}, nil
}

func keyPredicate(m *meta.EntityMetadata) (expr.Node, error) {
	keys := m.Keys()
	if len(keys) == 0 {
		return nil, fmt.Errorf("%s: %w", m.SourceType(), ErrNoKey)
	}
	members := make([]string, len(keys))
	for i, k := range keys {
		members[i] = k.MemberName
	}
	return expr.KeyEquals(m.SourceType(), RowParams, members...), nil
}

func writeClauses(sb *strings.Builder, where, order string, limit int) {
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if order != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(order)
	}
	if limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(limit))
	}
}
