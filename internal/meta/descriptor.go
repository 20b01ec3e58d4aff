package meta

import "github.com/roach88/exprsql/internal/ir"

// Generation names a strategy for filling a field on insert when it holds
// its zero value.
type Generation string

const (
	// GenerateNone leaves the field as supplied by the caller.
	GenerateNone Generation = ""

	// GenerateUUID fills a zero uuid.UUID field with a time-ordered UUIDv7.
	GenerateUUID Generation = "uuid"
)

// FieldDef declares one persisted member of an entity.
type FieldDef struct {
	Member    string     `json:"member"`
	Column    string     `json:"column,omitempty"` // Explicit alias; empty = naming policy
	Key       bool       `json:"key,omitempty"`
	Identity  bool       `json:"identity,omitempty"`
	Ignore    bool       `json:"ignore,omitempty"`
	Kind      ir.Kind    `json:"-"`
	Generated Generation `json:"generated,omitempty"`
}

// Descriptor is the explicit mapping description of one record type.
//
// Field order is significant: it becomes the order of EntityMetadata.Fields
// and therefore of column lists in generated statements.
type Descriptor struct {
	Type  ir.TypeID
	Table string // Explicit table alias; empty = naming policy on Type

	// IdentityMember names the member satisfying the identity-key capability.
	// Empty unless the type exposes that capability.
	IdentityMember string

	Fields []FieldDef
}

// Source is anything that can describe an entity.
// *Descriptor and *Mapping[T] both implement it.
type Source interface {
	Descriptor() *Descriptor
}

// Descriptor implements Source.
func (d *Descriptor) Descriptor() *Descriptor { return d }

// FieldOption configures a FieldDef.
type FieldOption func(*FieldDef)

// Column sets an explicit column alias.
func Column(name string) FieldOption {
	return func(f *FieldDef) { f.Column = name }
}

// PrimaryKey marks the field as part of the primary key.
func PrimaryKey() FieldOption {
	return func(f *FieldDef) { f.Key = true }
}

// AutoIdentity marks the field as the database-generated identity key.
func AutoIdentity() FieldOption {
	return func(f *FieldDef) { f.Identity = true }
}

// Ignored excludes the member from persistence entirely.
func Ignored() FieldOption {
	return func(f *FieldDef) { f.Ignore = true }
}

// OfKind records the member's value kind.
func OfKind(k ir.Kind) FieldOption {
	return func(f *FieldDef) { f.Kind = k }
}

// GeneratedUUID fills the field with a UUIDv7 on insert when it is zero.
func GeneratedUUID() FieldOption {
	return func(f *FieldDef) {
		f.Generated = GenerateUUID
		f.Kind = ir.KindUUID
	}
}

// Builder assembles a Descriptor fluently.
//
// Example:
//
//	d := meta.Entity("Student").
//		Field("Cource", meta.PrimaryKey(), meta.OfKind(ir.KindInt)).
//		Field("LocalId", meta.Column("local_id"), meta.PrimaryKey()).
//		Descriptor()
type Builder struct {
	d Descriptor
}

// Entity starts a descriptor for the given type id.
func Entity(typ ir.TypeID) *Builder {
	return &Builder{d: Descriptor{Type: typ}}
}

// Table sets an explicit table alias.
func (b *Builder) Table(name string) *Builder {
	b.d.Table = name
	return b
}

// Identity declares the identity-key capability on the named member.
func (b *Builder) Identity(member string) *Builder {
	b.d.IdentityMember = member
	return b
}

// Field appends a member definition.
func (b *Builder) Field(member string, opts ...FieldOption) *Builder {
	f := FieldDef{Member: member}
	for _, opt := range opts {
		opt(&f)
	}
	b.d.Fields = append(b.d.Fields, f)
	return b
}

// Descriptor returns a copy of the assembled descriptor.
func (b *Builder) Descriptor() *Descriptor {
	if b == nil {
		return nil
	}
	d := b.d
	d.Fields = append([]FieldDef(nil), b.d.Fields...)
	return &d
}
