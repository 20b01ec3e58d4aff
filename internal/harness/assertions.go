package harness

import (
	"fmt"
	"slices"
	"strings"
)

// Assertion kinds reported by AssertionError.
const (
	AssertSQL    = "sql"
	AssertParams = "params"
	AssertError  = "error"
)

// AssertionError is returned when a case outcome differs from its
// expectation. It includes detailed context to help debug the failure.
type AssertionError struct {
	Case     string // Case name
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Detail   string // Full compile error text, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s (case %s)\n", e.Type, e.Case)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Detail != "" {
		fmt.Fprintf(&buf, "  Error: %s\n", e.Detail)
	}

	return buf.String()
}

// assertCase compares one outcome with its case expectation.
func assertCase(c Case, got CaseResult) error {
	if c.Error != "" {
		if got.Error != c.Error {
			return &AssertionError{
				Case:     c.Name,
				Type:     AssertError,
				Expected: c.Error,
				Actual:   describe(got),
				Detail:   got.Detail,
			}
		}
		return nil
	}

	if got.Error != "" {
		return &AssertionError{
			Case:     c.Name,
			Type:     AssertSQL,
			Expected: fmt.Sprintf("%q", *c.Want),
			Actual:   describe(got),
			Detail:   got.Detail,
		}
	}
	if got.SQL != *c.Want {
		return &AssertionError{
			Case:     c.Name,
			Type:     AssertSQL,
			Expected: fmt.Sprintf("%q", *c.Want),
			Actual:   fmt.Sprintf("%q", got.SQL),
		}
	}
	if c.WantParams != nil && !slices.Equal(c.WantParams, got.Params) {
		return &AssertionError{
			Case:     c.Name,
			Type:     AssertParams,
			Expected: fmt.Sprint(c.WantParams),
			Actual:   fmt.Sprint(got.Params),
		}
	}
	return nil
}

func describe(got CaseResult) string {
	if got.Error != "" {
		return "error " + got.Error
	}
	return fmt.Sprintf("%q", got.SQL)
}

// EvaluateCases compares outcomes with their cases pairwise.
// Returns a slice of error messages for failed cases.
func EvaluateCases(cases []Case, results []CaseResult) []string {
	var errors []string

	if len(cases) != len(results) {
		return []string{fmt.Sprintf("expected %d case results, got %d", len(cases), len(results))}
	}
	for i, c := range cases {
		if err := assertCase(c, results[i]); err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
