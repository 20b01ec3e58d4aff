package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePredicate(t *testing.T) {
	out, err := execute(t, NewCompileCommand(schoolOptions("text")),
		"Student", "e => e.Cource == 2 && e.Letter == 'B'")
	require.NoError(t, err)
	assert.Equal(t, "cource = 2 AND letter = 'B'\n", out)
}

func TestCompileParams(t *testing.T) {
	out, err := execute(t, NewCompileCommand(schoolOptions("text")),
		"Student", "e => e.Cource == @Cource || e.LocalId == @Cource")
	require.NoError(t, err)
	assert.Equal(t, "cource = @Cource OR local_id = @Cource\nparams: Cource\n", out)
}

func TestCompileVars(t *testing.T) {
	out, err := execute(t, NewCompileCommand(schoolOptions("text")),
		"Student", "e => e.Cource == $c", "--var", "c=3")
	require.NoError(t, err)
	assert.Equal(t, "cource = 3\n", out)
}

func TestCompileKinds(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "order",
			args: []string{"Student", "e => e.OrderBy(x => x.Cource).ThenByDescending(x => x.LocalId)", "--kind", "order"},
			want: "cource, local_id DESC\n",
		},
		{
			name: "select",
			args: []string{"Book", "e => e.ID > 10", "--kind", "select", "--limit", "5"},
			want: "SELECT id, ref, title FROM books WHERE id > 10 LIMIT 5\n",
		},
		{
			name: "count without predicate",
			args: []string{"Book", "--kind", "count"},
			want: "SELECT COUNT(1) FROM books\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewCompileCommand(schoolOptions("text")), tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestCompileJSON(t *testing.T) {
	out, err := execute(t, NewCompileCommand(schoolOptions("json")),
		"Student", "e => e.FirstName == @Name")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, CompilationResult{
		Entity:  "Student",
		Kind:    "predicate",
		Dialect: "sqlite",
		SQL:     "first_name = @Name",
		Params:  []string{"Name"},
	}, resp.Data)
}

func TestCompileOutputToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sql")
	_, err := execute(t, NewCompileCommand(schoolOptions("text")),
		"Student", "e => e.Cource == 1", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cource = 1\n", string(data))
}

func TestCompileRejected(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		code     string
		exitCode int
	}{
		{name: "unknown member", args: []string{"Student", "e => e.Nope == 1"}, code: "UNKNOWN_FIELD", exitCode: ExitFailure},
		{name: "syntax", args: []string{"Student", "e => e.Cource =="}, code: "PARSE_ERROR", exitCode: ExitFailure},
		{name: "unknown entity", args: []string{"Teacher", "e => e.Cource == 1"}, code: "CONFIGURATION", exitCode: ExitFailure},
		{name: "missing expr", args: []string{"Student"}, code: "FAILED", exitCode: ExitCommandError},
		{name: "bad kind", args: []string{"Student", "e => e.Cource == 1", "--kind", "delete"}, code: "FAILED", exitCode: ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewCompileCommand(schoolOptions("text")), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestCompileMissingSchema(t *testing.T) {
	opts := schoolOptions("text")
	opts.Config.SchemaDir = filepath.Join(t.TempDir(), "absent")

	out, err := execute(t, NewCompileCommand(opts), "Student", "e => e.Cource == 1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E211]")
}
