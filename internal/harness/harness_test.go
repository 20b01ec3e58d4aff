package harness

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprsql/internal/meta"
)

func ptr(s string) *string { return &s }

func studentEntity() EntityDef {
	return EntityDef{
		Type: "Student",
		Fields: []FieldDef{
			{Member: "Cource", Key: true, Kind: "int"},
			{Member: "FirstName", Column: "first_name", Kind: "string"},
		},
	}
}

func TestRun_Passing(t *testing.T) {
	scenario := &Scenario{
		Name:     "inline",
		Entities: []EntityDef{studentEntity()},
		Cases: []Case{
			{Name: "eq", Entity: "Student", Kind: KindPredicate, Expr: "e => e.Cource == 2", Want: ptr("cource = 2")},
			{Name: "param", Entity: "Student", Kind: KindPredicate, Expr: "e => e.Cource == @Cource", Want: ptr("cource = @Cource"), WantParams: []string{"Cource"}},
			{Name: "all", Entity: "Student", Kind: KindSelect, Want: ptr("SELECT cource, first_name FROM student")},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
	require.Len(t, result.Cases, 3)
	assert.Equal(t, []string{"Cource"}, result.Cases[1].Params)
	assert.Equal(t, "SELECT cource, first_name FROM student", result.Cases[2].SQL)
}

func TestRun_Mismatches(t *testing.T) {
	scenario := &Scenario{
		Name:     "mismatch",
		Entities: []EntityDef{studentEntity()},
		Cases: []Case{
			{Name: "wrong_sql", Entity: "Student", Kind: KindPredicate, Expr: "e => e.Cource == 2", Want: ptr("cource = 3")},
			{Name: "unexpected_error", Entity: "Student", Kind: KindPredicate, Expr: "e => e.Nope == 2", Want: ptr("nope = 2")},
			{Name: "wrong_code", Entity: "Student", Kind: KindPredicate, Expr: "e => e.Nope == 2", Error: "PARSE_ERROR"},
			{Name: "missing_error", Entity: "Student", Kind: KindPredicate, Expr: "e => e.Cource == 2", Error: "UNKNOWN_FIELD"},
			{Name: "wrong_params", Entity: "Student", Kind: KindPredicate, Expr: "e => e.Cource == @A", Want: ptr("cource = @A"), WantParams: []string{"B"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], `Expected: "cource = 3"`)
	assert.Contains(t, result.Errors[0], `Actual: "cource = 2"`)
	assert.Contains(t, result.Errors[1], "Actual: error UNKNOWN_FIELD")
	assert.Contains(t, result.Errors[1], "Error: ")
	assert.Contains(t, result.Errors[2], "Expected: PARSE_ERROR")
	assert.Contains(t, result.Errors[3], `Actual: "cource = 2"`)
	assert.Contains(t, result.Errors[4], "Assertion failed: params (case wrong_params)")
}

func TestRun_InvalidEntity(t *testing.T) {
	scenario := &Scenario{
		Name:     "bad",
		Entities: []EntityDef{{Type: "Empty"}},
		Cases:    []Case{{Name: "a", Entity: "Empty", Kind: KindSelect, Want: ptr("")}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity Empty")
}

func TestRun_MissingSchema(t *testing.T) {
	scenario := &Scenario{
		Name:   "bad",
		Schema: filepath.Join(t.TempDir(), "absent"),
		Cases:  []Case{{Name: "a", Entity: "Book", Kind: KindSelect, Want: ptr("")}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load schema")
}

func TestRun_UnknownDialect(t *testing.T) {
	scenario := &Scenario{
		Name:     "dialect",
		Dialect:  "oracle",
		Entities: []EntityDef{studentEntity()},
		Cases:    []Case{{Name: "a", Entity: "Student", Kind: KindPredicate, Expr: "e => e.Cource == 1", Error: ErrCodeFailed}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
	assert.Contains(t, result.Cases[0].Detail, "oracle")
}

func TestHarness_Options(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	entity := EntityDef{
		Type: "Student",
		Fields: []FieldDef{
			{Member: "Cource", Key: true, Kind: "int"},
			{Member: "SecondName", Kind: "string"},
		},
	}
	scenario := &Scenario{
		Name:     "snake",
		Entities: []EntityDef{entity},
		Cases: []Case{
			{Name: "snake", Entity: "Student", Kind: KindSelect, Want: ptr("SELECT cource, second_name FROM student")},
			{Name: "column", Entity: "Student", Kind: KindPredicate, Expr: "e => e.Cource == 1", Want: ptr("cource = 1")},
		},
	}

	result, err := New(WithLogger(logger), WithNaming(meta.NamingSnake)).Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
	assert.Contains(t, logs.String(), "case compiled")
	assert.Contains(t, logs.String(), "case=snake")
}

func TestFindScenarios(t *testing.T) {
	files, err := FindScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "scenarios", "library.yaml"),
		filepath.Join("testdata", "scenarios", "students.yaml"),
	}, files)

	single, err := FindScenarios(files[0])
	require.NoError(t, err)
	assert.Equal(t, files[:1], single)

	_, err = FindScenarios(filepath.Join("testdata", "missing"))
	var nf *ScenarioNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestHarness_CompileWithResolver(t *testing.T) {
	r := meta.NewResolver()
	_, err := r.Register(studentEntity().Descriptor())
	require.NoError(t, err)

	h := New(WithResolver(r))

	got := h.Compile(Case{Name: "pg", Entity: "Student", Kind: KindPredicate, Expr: "e => e.Cource == @Cource"}, "postgres")
	assert.Equal(t, CaseResult{Name: "pg", SQL: "cource = $1", Params: []string{"Cource"}}, got)

	got = h.Compile(Case{Name: "own", Entity: "Student", Kind: KindPredicate, Dialect: "mysql", Expr: "e => e.Cource == @Cource"}, "postgres")
	assert.Equal(t, "cource = ?", got.SQL)

	got = h.Compile(Case{Name: "missing", Entity: "Teacher", Kind: KindCount}, "")
	assert.Equal(t, meta.ErrCodeConfiguration, got.Error)
	assert.NotEmpty(t, got.Detail)
}

func TestCase_Validate(t *testing.T) {
	assert.NoError(t, Case{Entity: "Student", Kind: KindSelect}.Validate())
	assert.ErrorContains(t, Case{Kind: KindSelect}.Validate(), "entity is required")
	assert.ErrorContains(t, Case{Entity: "Student", Kind: "update"}.Validate(), `invalid kind "update"`)
	assert.ErrorContains(t, Case{Entity: "Student", Kind: KindOrder}.Validate(), "expr is required")
	assert.ErrorContains(t, Case{Entity: "Student", Kind: KindSelect, Limit: -1}.Validate(), "limit")
}
