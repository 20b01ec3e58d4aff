package meta

import (
	"fmt"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NamingPolicy derives default table and column names from type and member
// names. Explicit aliases bypass the policy.
type NamingPolicy string

const (
	// NamingLower lower-cases names: FirstName → firstname.
	NamingLower NamingPolicy = "lower"

	// NamingAsIs keeps names unchanged: FirstName → FirstName.
	NamingAsIs NamingPolicy = "asis"

	// NamingSnake converts names to snake case: FirstName → first_name.
	NamingSnake NamingPolicy = "snake"
)

// ValidNamingPolicies lists the accepted policy names.
var ValidNamingPolicies = []NamingPolicy{NamingLower, NamingAsIs, NamingSnake}

// ParseNamingPolicy validates a policy name. The empty string selects
// NamingLower.
func ParseNamingPolicy(s string) (NamingPolicy, error) {
	if s == "" {
		return NamingLower, nil
	}
	for _, p := range ValidNamingPolicies {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid naming policy %q: must be one of %v", s, ValidNamingPolicies)
}

// Apply returns the default name for the given type or member name.
func (p NamingPolicy) Apply(name string) string {
	switch p {
	case NamingAsIs:
		return name
	case NamingSnake:
		return inflect.Underscore(name)
	default:
		// cases.Caser is stateful; a fresh one per call keeps Apply reentrant.
		return cases.Lower(language.Und).String(name)
	}
}
