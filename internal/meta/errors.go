package meta

import (
	"errors"
	"fmt"

	"github.com/roach88/exprsql/internal/ir"
)

// ErrCodeConfiguration categorizes invalid or absent descriptors.
const ErrCodeConfiguration = "CONFIGURATION"

// ConfigurationError reports an absent or inconsistent entity descriptor.
// It is fatal to the resolution call and never retried: resolution is
// deterministic, so retrying reproduces the same failure.
type ConfigurationError struct {
	// Type is the descriptor's type id, empty when no descriptor was given.
	Type ir.TypeID

	// Member names the offending field, if any.
	Member string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	switch {
	case e.Type != "" && e.Member != "":
		return fmt.Sprintf("%s: %s (type=%s, member=%s)", ErrCodeConfiguration, e.Message, e.Type, e.Member)
	case e.Type != "":
		return fmt.Sprintf("%s: %s (type=%s)", ErrCodeConfiguration, e.Message, e.Type)
	default:
		return fmt.Sprintf("%s: %s", ErrCodeConfiguration, e.Message)
	}
}

// IsConfigurationError returns true if err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func configErr(typ ir.TypeID, member, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Type:    typ,
		Member:  member,
		Message: fmt.Sprintf(format, args...),
	}
}
