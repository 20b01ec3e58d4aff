package exprparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/ir"
	"github.com/roach88/exprsql/internal/meta"
	"github.com/roach88/exprsql/internal/sqlexpr"
)

const (
	student ir.TypeID = "Student"
	key     ir.TypeID = "StudentKey"
)

func studentMetadata(t *testing.T) *meta.EntityMetadata {
	t.Helper()
	d := meta.Entity(student).
		Field("Cource", meta.PrimaryKey(), meta.OfKind(ir.KindInt)).
		Field("Letter", meta.PrimaryKey(), meta.OfKind(ir.KindChar)).
		Field("LocalId", meta.Column("local_id"), meta.PrimaryKey(), meta.OfKind(ir.KindInt)).
		Field("FirstName", meta.Column("first_name"), meta.OfKind(ir.KindString)).
		Field("SecondName", meta.Column("second_name"), meta.OfKind(ir.KindString)).
		Field("Birthday", meta.OfKind(ir.KindTime))
	m, err := meta.NewResolver().Resolve(d)
	require.NoError(t, err)
	return m
}

func options(t *testing.T) Options {
	return Options{Metadata: studentMetadata(t), ParamType: key}
}

func col(member string, kind ir.Kind) expr.MemberRef {
	return expr.MemberOf(student, member, kind)
}

func TestParse_Trees(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want expr.Node
	}{
		{
			name: "equality",
			src:  "e => e.Cource == 1",
			want: expr.Eq(col("Cource", ir.KindInt), expr.Const(int64(1))),
		},
		{
			name: "parameter",
			src:  "e => e.Cource >= @Cource",
			want: expr.Ge(col("Cource", ir.KindInt), expr.Member(key, "Cource")),
		},
		{
			name: "captured variable",
			src:  "e => e.Cource < $limit",
			want: expr.Lt(col("Cource", ir.KindInt), expr.Member(LocalsType, "limit")),
		},
		{
			name: "char conversion",
			src:  "e => int(e.Letter) == 65",
			want: expr.Eq(expr.Convert(col("Letter", ir.KindChar), ir.KindInt), expr.Const(int64(65))),
		},
		{
			name: "char literal",
			src:  "e => e.Letter == 'A'",
			want: expr.Eq(col("Letter", ir.KindChar), expr.Char('A')),
		},
		{
			name: "method call",
			src:  `e => e.FirstName.StartsWith("Iv")`,
			want: expr.Call(col("FirstName", ir.KindString), "StartsWith", expr.Const("Iv")),
		},
		{
			name: "and binds tighter than or",
			src:  `e => e.Cource == 1 || e.Cource == 2 && e.FirstName == "x"`,
			want: expr.Or(
				expr.Eq(col("Cource", ir.KindInt), expr.Const(int64(1))),
				expr.And(
					expr.Eq(col("Cource", ir.KindInt), expr.Const(int64(2))),
					expr.Eq(col("FirstName", ir.KindString), expr.Const("x")),
				),
			),
		},
		{
			name: "not over group",
			src:  "e => !(e.Birthday == null)",
			want: expr.Not(expr.Eq(col("Birthday", ir.KindTime), expr.Null())),
		},
		{
			name: "arithmetic is left associative",
			src:  "e => e.Cource == 10 - 2 - 1",
			want: expr.Eq(col("Cource", ir.KindInt),
				expr.Binary(expr.Binary(expr.Const(int64(10)), expr.OpSub, expr.Const(int64(2))), expr.OpSub, expr.Const(int64(1)))),
		},
		{
			name: "constructor",
			src:  "e => e.Birthday > time(2000, 1, 2)",
			want: expr.Gt(col("Birthday", ir.KindTime),
				expr.New(ir.KindTime, expr.Const(int64(2000)), expr.Const(int64(1)), expr.Const(int64(2)))),
		},
		{
			name: "order chain",
			src:  "e => e.OrderBy(x => x.Birthday).OrderByDescending(x => x.SecondName)",
			want: expr.Call(
				expr.Call(expr.Root(student), "OrderBy", expr.Lambda1(student, col("Birthday", ir.KindTime))),
				"OrderByDescending", expr.Lambda1(student, col("SecondName", ir.KindString)),
			),
		},
		{
			name: "receiverless aggregate",
			src:  "Average(x => x.Cource)",
			want: expr.Call(expr.Root(student), "Average", expr.Lambda1(student, col("Cource", ir.KindInt))),
		},
		{
			name: "static function",
			src:  `e => e.FirstName == Concat("I", "van")`,
			want: expr.Eq(col("FirstName", ir.KindString),
				expr.MethodCall{Method: "Concat", Args: []expr.Node{expr.Const("I"), expr.Const("van")}}),
		},
		{
			name: "unknown member keeps unknown kind",
			src:  "e => e.Missing == true",
			want: expr.Eq(col("Missing", ir.KindUnknown), expr.Const(true)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.src, options(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", "e => e.Cource =="},
		{"unbalanced", "e => (e.Cource == 1"},
		{"unknown identifier", "e => x.Cource == 1"},
		{"member access on call", `e => e.FirstName.Trim().Length == 1`},
		{"conversion arity", "e => int(e.Cource, 1) == 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src, options(t))
			require.Error(t, err)
			assert.True(t, IsParseError(err), "want ParseError, got %T: %v", err, err)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse("e => y.Cource == 1", options(t))
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Line)
	assert.Equal(t, 6, pe.Column)
	assert.Contains(t, pe.Error(), `unknown identifier "y"`)
}

func TestParse_RequiresMetadata(t *testing.T) {
	_, err := Parse("e => e.Cource == 1", Options{})
	require.Error(t, err)
	assert.False(t, IsParseError(err))
}

func TestParse_DefaultTypes(t *testing.T) {
	got, err := Parse("e => e.Cource == @Cource", Options{Metadata: studentMetadata(t)})
	require.NoError(t, err)
	assert.Equal(t, expr.Eq(col("Cource", ir.KindInt), expr.Member(DefaultParamType, "Cource")), got)
}

// Parsed trees compile to the same SQL as the hand-built ones.
func TestParse_Compiles(t *testing.T) {
	m := studentMetadata(t)
	env := (&expr.Env{}).Bind(LocalsType, "v", "v")
	ctx := sqlexpr.Context{Metadata: m, ParamType: key, Env: env}

	tests := []struct {
		name    string
		src     string
		compile func(sqlexpr.Context, expr.Node) (string, error)
		want    string
	}{
		{
			name:    "key equality",
			src:     "e => e.Cource == @Cource && e.Letter == @Letter && e.LocalId == @LocalId",
			compile: sqlexpr.CompilePredicate,
			want:    "cource = @Cource AND letter = @Letter AND local_id = @LocalId",
		},
		{
			name:    "starts with",
			src:     `e => e.FirstName.StartsWith("Iv")`,
			compile: sqlexpr.CompilePredicate,
			want:    "first_name like 'Iv%'",
		},
		{
			name:    "mixed logic with char",
			src:     `e => e.Cource == 1 || (int(e.Letter) == 65 && e.SecondName == "Ivan")`,
			compile: sqlexpr.CompilePredicate,
			want:    "cource = 1 OR (letter = 'A' AND second_name = 'Ivan')",
		},
		{
			name:    "captured contains",
			src:     "e => e.Cource == @Cource || (e.FirstName.Contains($v) && !(e.Birthday == null))",
			compile: sqlexpr.CompilePredicate,
			want:    "cource = @Cource OR (first_name like '%v%' AND NOT (birthday IS NULL))",
		},
		{
			name:    "order",
			src:     "e => e.OrderBy(x => x.Birthday).OrderByDescending(x => x.SecondName)",
			compile: sqlexpr.CompileOrder,
			want:    "birthday, second_name DESC",
		},
		{
			name:    "average",
			src:     "i => i.Average(x => x.Cource)",
			compile: sqlexpr.CompileScalar,
			want:    "AVG(cource)",
		},
		{
			name:    "count",
			src:     "Count()",
			compile: sqlexpr.CompileScalar,
			want:    "COUNT(1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse(tt.src, ctxOptions(ctx))
			require.NoError(t, err)
			got, err := tt.compile(ctx, n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func ctxOptions(ctx sqlexpr.Context) Options {
	return Options{Metadata: ctx.Metadata, ParamType: ctx.ParamType}
}
