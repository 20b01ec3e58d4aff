package meta

import "github.com/roach88/exprsql/internal/ir"

// Identifiable is the identity-key capability. A record type whose value or
// pointer implements it is an identity entity keyed by the returned member.
type Identifiable interface {
	IdentityMember() string
}

// Mapping is a typed descriptor for the Go struct T.
//
// Each field carries an accessor returning a pointer into a *T. The pointer
// serves both as a bind-parameter value (database/sql dereferences it) and
// as a Scan destination, so no reflection over T is needed.
//
// Example:
//
//	var students = meta.Map[Student]("Student").
//		Field("Cource", func(s *Student) any { return &s.Cource }, meta.PrimaryKey()).
//		Field("FirstName", func(s *Student) any { return &s.FirstName }, meta.Column("first_name"))
type Mapping[T any] struct {
	b    *Builder
	ptrs map[string]func(*T) any
}

// Map starts a typed mapping for T under the given type id.
// If T or *T implements Identifiable, the identity member is recorded.
func Map[T any](typ ir.TypeID) *Mapping[T] {
	m := &Mapping[T]{
		b:    Entity(typ),
		ptrs: make(map[string]func(*T) any),
	}
	if id, ok := any(new(T)).(Identifiable); ok {
		m.b.Identity(id.IdentityMember())
	} else if id, ok := any(*new(T)).(Identifiable); ok {
		m.b.Identity(id.IdentityMember())
	}
	return m
}

// Table sets an explicit table alias.
func (m *Mapping[T]) Table(name string) *Mapping[T] {
	m.b.Table(name)
	return m
}

// Field appends a member with its pointer accessor.
func (m *Mapping[T]) Field(member string, ptr func(*T) any, opts ...FieldOption) *Mapping[T] {
	m.b.Field(member, opts...)
	m.ptrs[member] = ptr
	return m
}

// Type returns the mapped type id.
func (m *Mapping[T]) Type() ir.TypeID { return m.b.d.Type }

// Descriptor implements Source.
func (m *Mapping[T]) Descriptor() *Descriptor {
	if m == nil {
		return nil
	}
	return m.b.Descriptor()
}

// Ptr returns the pointer to member inside rec, or false when the member has
// no accessor.
func (m *Mapping[T]) Ptr(rec *T, member string) (any, bool) {
	fn, ok := m.ptrs[member]
	if !ok {
		return nil, false
	}
	return fn(rec), true
}

// Values returns member → pointer for every mapped member of rec.
// The result can be passed to a dialect binder as parameter values.
func (m *Mapping[T]) Values(rec *T) map[string]any {
	out := make(map[string]any, len(m.ptrs))
	for member, fn := range m.ptrs {
		out[member] = fn(rec)
	}
	return out
}
