package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/exprsql/internal/ir"
	"github.com/roach88/exprsql/internal/meta"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	d := meta.Entity("Student").
		Field("Cource", meta.PrimaryKey()).
		Field("LocalId", meta.Column("local_id"), meta.PrimaryKey()).
		Field("Nickname", meta.Ignored()).
		Descriptor()
	assert.Empty(t, Validate(d))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		d    *meta.Descriptor
		want []string
	}{
		{
			name: "no fields",
			d:    meta.Entity("A").Field("X", meta.Ignored()).Descriptor(),
			want: []string{ErrNoFields},
		},
		{
			name: "bad table",
			d:    meta.Entity("A").Table("a; drop table b").Field("X").Descriptor(),
			want: []string{ErrInvalidIdentifier},
		},
		{
			name: "bad column",
			d:    meta.Entity("A").Field("X", meta.Column("x y")).Descriptor(),
			want: []string{ErrInvalidIdentifier},
		},
		{
			name: "duplicate column",
			d:    meta.Entity("A").Field("X", meta.Column("c")).Field("Y", meta.Column("c")).Descriptor(),
			want: []string{ErrDuplicateColumn},
		},
		{
			name: "two identities",
			d:    meta.Entity("A").Identity("X").Field("X").Field("Y", meta.AutoIdentity()).Descriptor(),
			want: []string{ErrIdentityConflict},
		},
		{
			name: "identity not declared",
			d:    meta.Entity("A").Identity("Id").Field("X").Descriptor(),
			want: []string{ErrIdentityConflict},
		},
		{
			name: "identity ignored",
			d:    meta.Entity("A").Field("X").Field("Id", meta.AutoIdentity(), meta.Ignored()).Descriptor(),
			want: []string{ErrIdentityIgnored},
		},
		{
			name: "generated int",
			d:    meta.Entity("A").Field("X", meta.OfKind(ir.KindInt), meta.GeneratedUUID()).Descriptor(),
			want: []string{ErrGeneratedKind},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codes(Validate(tt.d)))
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Entity: "A", Field: "X", Message: "bad", Code: ErrDuplicateColumn}
	assert.Equal(t, "[E203] A.X: bad", e.Error())

	e.Field = ""
	assert.Equal(t, "[E203] A: bad", e.Error())
}
