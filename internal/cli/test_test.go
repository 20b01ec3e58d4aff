package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: grades
entities:
  - type: Grade
    fields:
      - { member: ID, key: true, kind: int }
      - { member: Score, kind: float }
cases:
  - name: high
    entity: Grade
    kind: predicate
    expr: "g => g.Score >= @Min"
    want: "score >= @Min"
    want_params: [Min]
`

const failingScenario = `
name: broken
entities:
  - type: Grade
    fields:
      - { member: ID, key: true, kind: int }
cases:
  - name: wrong
    entity: Grade
    kind: predicate
    expr: "g => g.ID == 1"
    want: "id = 2"
`

func writeScenarios(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentPath(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios path not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), t.TempDir())
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandPassing(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"grades.yaml": passingScenario})

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ grades")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFailing(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"grades.yaml": passingScenario,
		"broken.yaml": failingScenario,
	})

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, `Expected: "id = 2"`)
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFailingJSON(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"broken.yaml": failingScenario})

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommandFilter(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"grades.yaml": passingScenario,
		"broken.yaml": failingScenario,
	})

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--filter", "grade*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")
	assert.NotContains(t, out, "broken")
}

func TestTestCommandGolden(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"grades.yaml": passingScenario})
	golden := filepath.Join(dir, "golden", "grades.golden")

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ grades (golden updated)")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t,
		`{"cases":[{"name":"high","params":["Min"],"sql":"score >= @Min"}],"scenario_name":"grades"}`,
		string(data))

	_, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, bytes.Replace(data, []byte(">="), []byte(">"), 1), 0644))
	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "golden file mismatch")
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}),
		filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ library")
	assert.Contains(t, out, "✓ students")
}

func TestTestHelpText(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "scenarios")
	assert.Contains(t, out, "--update")
	assert.Contains(t, out, "--filter")
}

func TestFilterScenarios(t *testing.T) {
	files := []string{"a/cart-add.yaml", "a/cart-test.yml", "a/inventory.yaml"}

	got, err := filterScenarios(files, "cart-*")
	require.NoError(t, err)
	assert.Equal(t, files[:2], got)

	got, err = filterScenarios(files, "")
	require.NoError(t, err)
	assert.Equal(t, files, got)

	_, err = filterScenarios(files, "[")
	require.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"/path/to/scenario.yaml", "/path/to/golden/scenario.golden"},
		{"/path/to/scenario.yml", "/path/to/golden/scenario.golden"},
		{"scenarios/test.yaml", "scenarios/golden/test.golden"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, goldenFilePath(tc.input))
	}
}
