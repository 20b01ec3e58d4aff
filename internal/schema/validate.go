package schema

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/roach88/exprsql/internal/ir"
	"github.com/roach88/exprsql/internal/meta"
)

// Validation error codes (E201-E209)
const (
	ErrNoFields          = "E201" // entity declares no persisted fields
	ErrInvalidIdentifier = "E202" // table or column is not a plain SQL identifier
	ErrDuplicateColumn   = "E203" // two members map to the same explicit column
	ErrIdentityConflict  = "E204" // more than one identity, or identity names no field
	ErrIdentityIgnored   = "E205" // identity member is ignored
	ErrGeneratedKind     = "E206" // uuid generation on a non-uuid, non-string field
)

// ValidationError represents a descriptor validation error.
type ValidationError struct {
	Entity  string `json:"entity"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s.%s: %s", e.Code, e.Entity, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Entity, e.Message)
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks a descriptor against the rules the resolver and SQL
// rendering rely on. Returns all errors found (does not fail-fast).
func Validate(d *meta.Descriptor) []ValidationError {
	var errs []ValidationError
	entity := string(d.Type)
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{
			Entity:  entity,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	// E202: table names are rendered verbatim
	if d.Table != "" && !identifierRe.MatchString(d.Table) {
		add(ErrInvalidIdentifier, "table", "table %q is not a plain SQL identifier", d.Table)
	}
	if !identifierRe.MatchString(entity) {
		add(ErrInvalidIdentifier, "", "type name %q is not a plain SQL identifier", entity)
	}

	identities := map[string]bool{}
	if d.IdentityMember != "" {
		identities[d.IdentityMember] = true
	}

	persisted := 0
	members := map[string]meta.FieldDef{}
	columns := map[string]string{}
	for _, f := range d.Fields {
		members[f.Member] = f
		if f.Identity {
			identities[f.Member] = true
		}
		if f.Ignore {
			continue
		}
		persisted++

		if !identifierRe.MatchString(f.Member) {
			add(ErrInvalidIdentifier, f.Member, "member %q is not a plain SQL identifier", f.Member)
		}
		if f.Column != "" {
			if !identifierRe.MatchString(f.Column) {
				add(ErrInvalidIdentifier, f.Member, "column %q is not a plain SQL identifier", f.Column)
			}
			if other, dup := columns[f.Column]; dup {
				add(ErrDuplicateColumn, f.Member, "column %q already mapped by %s", f.Column, other)
			}
			columns[f.Column] = f.Member
		}

		// E206: generated values need a uuid-compatible field
		if f.Generated == meta.GenerateUUID && f.Kind != ir.KindUnknown && f.Kind != ir.KindUUID && f.Kind != ir.KindString {
			add(ErrGeneratedKind, f.Member, "uuid generation needs kind uuid or string, got %s", f.Kind)
		}
	}

	// E201: at least one persisted field
	if persisted == 0 {
		add(ErrNoFields, "", "entity declares no persisted fields")
	}

	// E204/E205: identity rules
	if len(identities) > 1 {
		add(ErrIdentityConflict, "", "more than one identity member (%d)", len(identities))
	}
	identityMembers := make([]string, 0, len(identities))
	for member := range identities {
		identityMembers = append(identityMembers, member)
	}
	slices.Sort(identityMembers)
	for _, member := range identityMembers {
		f, ok := members[member]
		switch {
		case !ok:
			add(ErrIdentityConflict, member, "identity member is not a declared field")
		case f.Ignore:
			add(ErrIdentityIgnored, member, "identity member cannot be ignored")
		}
	}

	return errs
}
