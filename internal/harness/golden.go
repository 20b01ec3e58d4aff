package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/exprsql/internal/ir"
)

// Snapshot captures every case outcome of a scenario execution.
// Serialized with canonical JSON for deterministic comparison.
type Snapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Cases        []CaseResult `json:"cases"`
}

// toCanonicalMap converts a Snapshot to an IR object for canonical JSON serialization.
// Errored cases carry their code instead of SQL.
func (s *Snapshot) toCanonicalMap() ir.IRObject {
	cases := make(ir.IRArray, len(s.Cases))
	for i, c := range s.Cases {
		obj := ir.IRObject{"name": ir.IRString(c.Name)}
		if c.Error != "" {
			obj["error"] = ir.IRString(c.Error)
		} else {
			obj["sql"] = ir.IRString(c.SQL)
		}
		if len(c.Params) > 0 {
			params := make(ir.IRArray, len(c.Params))
			for j, p := range c.Params {
				params[j] = ir.IRString(p)
			}
			obj["params"] = params
		}
		cases[i] = obj
	}

	return ir.IRObject{
		"scenario_name": ir.IRString(s.ScenarioName),
		"cases":         cases,
	}
}

// RunWithGolden executes a scenario and compares its outcomes against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the outcomes don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}

// SnapshotJSON renders the canonical JSON snapshot of a result.
func SnapshotJSON(scenarioName string, result *Result) ([]byte, error) {
	snapshot := Snapshot{ScenarioName: scenarioName, Cases: result.Cases}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}
