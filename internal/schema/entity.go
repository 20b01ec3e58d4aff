package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/exprsql/internal/ir"
	"github.com/roach88/exprsql/internal/meta"
)

// CompileEntity parses one entity struct into a descriptor.
//
// The CUE value should be the entity struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`entity: Student: { fields: { ... } }`)
//	d, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Student")))
func CompileEntity(v cue.Value) (*meta.Descriptor, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	d := &meta.Descriptor{}

	// Entity type from struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		d.Type = ir.TypeID(labels[len(labels)-1].String())
	}

	var err error
	if d.Table, err = optionalString(v, "table"); err != nil {
		return nil, err
	}
	if d.IdentityMember, err = optionalString(v, "identity"); err != nil {
		return nil, err
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{Field: "fields", Message: "fields is required", Pos: v.Pos()}
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		f, err := compileField(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		d.Fields = append(d.Fields, f)
	}
	if len(d.Fields) == 0 {
		return nil, &CompileError{Field: "fields", Message: "at least one field is required", Pos: v.Pos()}
	}

	return d, nil
}

func compileField(member string, v cue.Value) (meta.FieldDef, error) {
	f := meta.FieldDef{Member: member}

	var err error
	if f.Column, err = optionalString(v, "column"); err != nil {
		return f, err
	}
	if f.Key, err = optionalBool(v, "key"); err != nil {
		return f, err
	}
	if f.Identity, err = optionalBool(v, "identity"); err != nil {
		return f, err
	}
	if f.Ignore, err = optionalBool(v, "ignore"); err != nil {
		return f, err
	}

	kind, err := optionalString(v, "kind")
	if err != nil {
		return f, err
	}
	if kind != "" {
		if f.Kind, err = ir.ParseKind(kind); err != nil {
			return f, &CompileError{Field: "kind", Message: err.Error(), Pos: v.Pos()}
		}
	}

	gen, err := optionalString(v, "generated")
	if err != nil {
		return f, err
	}
	f.Generated = meta.Generation(gen)

	return f, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, path string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// CompileError reports a malformed entity declaration.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
