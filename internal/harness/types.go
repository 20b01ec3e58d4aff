package harness

// CaseResult is the observed outcome of one case.
type CaseResult struct {
	Name   string   `json:"name"`
	SQL    string   `json:"sql,omitempty"`
	Params []string `json:"params,omitempty"`
	Error  string   `json:"error,omitempty"` // Error code; empty on success
	Detail string   `json:"-"`               // Full error text, not part of snapshots
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every case matched its expectation.
	Pass bool `json:"pass"`

	// Cases holds one entry per scenario case, in order.
	Cases []CaseResult `json:"cases"`

	// Errors contains expectation mismatches.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCase records the outcome of a case.
func (r *Result) AddCase(c CaseResult) {
	r.Cases = append(r.Cases, c)
}
