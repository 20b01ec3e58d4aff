package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/exprsql/internal/ir"
	"github.com/roach88/exprsql/internal/meta"
)

// Scenario is a set of compile cases over a shared set of entities.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is an optional directory of CUE entity declarations.
	// Relative paths are resolved against the scenario file location.
	Schema string `yaml:"schema,omitempty"`

	// Dialect is the default dialect of every case. Empty means sqlite.
	Dialect string `yaml:"dialect,omitempty"`

	// Entities declares entities inline, in addition to Schema.
	Entities []EntityDef `yaml:"entities,omitempty"`

	// Cases are compiled in order.
	Cases []Case `yaml:"cases"`
}

// EntityDef is the YAML form of a meta.Descriptor.
type EntityDef struct {
	Type     string     `yaml:"type"`
	Table    string     `yaml:"table,omitempty"`
	Identity string     `yaml:"identity,omitempty"`
	Fields   []FieldDef `yaml:"fields"`
}

// FieldDef is the YAML form of a meta.FieldDef.
type FieldDef struct {
	Member    string `yaml:"member"`
	Column    string `yaml:"column,omitempty"`
	Key       bool   `yaml:"key,omitempty"`
	Identity  bool   `yaml:"identity,omitempty"`
	Ignore    bool   `yaml:"ignore,omitempty"`
	Kind      string `yaml:"kind,omitempty"`
	Generated string `yaml:"generated,omitempty"`
}

// Case compiles one expression and states the expected outcome.
type Case struct {
	Name string `yaml:"name"`

	// Entity is the type id the expression ranges over.
	Entity string `yaml:"entity"`

	// Params is the parameter type owning @Name references.
	Params string `yaml:"params,omitempty"`

	// Kind is one of predicate, order, scalar, select, count.
	Kind string `yaml:"kind"`

	// Expr is the expression text. For select and count it is the WHERE
	// predicate and may be empty.
	Expr string `yaml:"expr,omitempty"`

	// Order is the order chain of a select.
	Order string `yaml:"order,omitempty"`

	// Limit caps a select.
	Limit int `yaml:"limit,omitempty"`

	// Dialect overrides the scenario dialect.
	Dialect string `yaml:"dialect,omitempty"`

	// Vars are captured variables, referenced as $name.
	Vars map[string]any `yaml:"vars,omitempty"`

	// Want is the expected SQL. Exactly one of Want and Error is set.
	Want *string `yaml:"want,omitempty"`

	// WantParams optionally checks the bind parameter names in order.
	WantParams []string `yaml:"want_params,omitempty"`

	// Error is the expected error code, e.g. UNSUPPORTED_EXPRESSION.
	Error string `yaml:"error,omitempty"`
}

// Case kinds.
const (
	KindPredicate = "predicate"
	KindOrder     = "order"
	KindScalar    = "scalar"
	KindSelect    = "select"
	KindCount     = "count"
)

var caseKinds = map[string]bool{
	KindPredicate: true,
	KindOrder:     true,
	KindScalar:    true,
	KindSelect:    true,
	KindCount:     true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative Schema is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}
	return scenario, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Entities) == 0 && s.Schema == "" {
		return fmt.Errorf("entities or schema is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for i, e := range s.Entities {
		if e.Type == "" {
			return fmt.Errorf("entities[%d]: type is required", i)
		}
		for j, f := range e.Fields {
			if f.Member == "" {
				return fmt.Errorf("entities[%d].fields[%d]: member is required", i, j)
			}
			if _, err := ir.ParseKind(f.Kind); err != nil {
				return fmt.Errorf("entities[%d].fields[%d]: %w", i, j, err)
			}
		}
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true
		if err := c.Validate(); err != nil {
			return fmt.Errorf("cases[%d] (%s): %w", i, c.Name, err)
		}
		if (c.Want == nil) == (c.Error == "") {
			return fmt.Errorf("cases[%d] (%s): exactly one of want and error is required", i, c.Name)
		}
	}
	return nil
}

// Validate checks the compile inputs of a case. Expectations are not
// checked.
func (c Case) Validate() error {
	if c.Entity == "" {
		return fmt.Errorf("entity is required")
	}
	if !caseKinds[c.Kind] {
		return fmt.Errorf("invalid kind %q", c.Kind)
	}
	if c.Expr == "" && (c.Kind == KindPredicate || c.Kind == KindOrder || c.Kind == KindScalar) {
		return fmt.Errorf("expr is required for kind %s", c.Kind)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	return nil
}

// Descriptor converts the YAML entity into a meta.Descriptor.
func (e EntityDef) Descriptor() *meta.Descriptor {
	d := &meta.Descriptor{
		Type:           ir.TypeID(e.Type),
		Table:          e.Table,
		IdentityMember: e.Identity,
		Fields:         make([]meta.FieldDef, len(e.Fields)),
	}
	for i, f := range e.Fields {
		kind, _ := ir.ParseKind(f.Kind) // checked by validateScenario
		d.Fields[i] = meta.FieldDef{
			Member:    f.Member,
			Column:    f.Column,
			Key:       f.Key,
			Identity:  f.Identity,
			Ignore:    f.Ignore,
			Kind:      kind,
			Generated: meta.Generation(f.Generated),
		}
	}
	return d
}
