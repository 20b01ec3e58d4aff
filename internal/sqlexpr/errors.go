package sqlexpr

import (
	"errors"
	"fmt"

	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/ir"
)

const (
	// ErrCodeUnknownField indicates a member missing from resolved metadata.
	ErrCodeUnknownField = "UNKNOWN_FIELD"

	// ErrCodeUnsupportedExpression indicates a node shape with no compile rule.
	ErrCodeUnsupportedExpression = "UNSUPPORTED_EXPRESSION"
)

// UnknownFieldError reports a member reference on the entity type that has
// no field mapping, typically because the member is ignored.
type UnknownFieldError struct {
	Type   ir.TypeID
	Member string
}

// Error implements the error interface.
func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("%s: %s.%s is not a mapped field", ErrCodeUnknownField, e.Type, e.Member)
}

// UnsupportedExpressionError reports a node the compiler has no rule for.
type UnsupportedExpressionError struct {
	// Expr is the diagnostic form of the offending node.
	Expr string

	// Message describes why the node was rejected.
	Message string

	// Err is the underlying cause, e.g. a host evaluation failure.
	Err error
}

// Error implements the error interface.
func (e *UnsupportedExpressionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s in %s: %v", ErrCodeUnsupportedExpression, e.Message, e.Expr, e.Err)
	}
	return fmt.Sprintf("%s: %s in %s", ErrCodeUnsupportedExpression, e.Message, e.Expr)
}

// Unwrap returns the underlying cause.
func (e *UnsupportedExpressionError) Unwrap() error { return e.Err }

// IsUnknownField returns true if err is or wraps an UnknownFieldError.
func IsUnknownField(err error) bool {
	var ue *UnknownFieldError
	return errors.As(err, &ue)
}

// IsUnsupportedExpression returns true if err is or wraps an
// UnsupportedExpressionError.
func IsUnsupportedExpression(err error) bool {
	var ue *UnsupportedExpressionError
	return errors.As(err, &ue)
}

// Code returns the stable error code for compiler errors and "" otherwise.
func Code(err error) string {
	switch {
	case IsUnknownField(err):
		return ErrCodeUnknownField
	case IsUnsupportedExpression(err):
		return ErrCodeUnsupportedExpression
	default:
		return ""
	}
}

func unsupported(n expr.Node, format string, args ...any) *UnsupportedExpressionError {
	return &UnsupportedExpressionError{
		Expr:    expr.Format(n),
		Message: fmt.Sprintf(format, args...),
	}
}
