package meta

import (
	"encoding/json"

	"github.com/roach88/exprsql/internal/ir"
)

// FieldMapping maps one entity member onto a column.
type FieldMapping struct {
	MemberName   string     `json:"member_name"`
	ColumnName   string     `json:"column_name"`
	IsPrimaryKey bool       `json:"is_primary_key"`
	IsIdentity   bool       `json:"is_identity"`
	Kind         ir.Kind    `json:"-"`
	Generated    Generation `json:"generated,omitempty"`
}

// EntityMetadata is the resolved description of one entity.
//
// Values are created once per TypeID by a Resolver and never modified.
// Accessors return copies so callers cannot mutate shared state.
type EntityMetadata struct {
	sourceType       ir.TypeID
	tableName        string
	fields           []FieldMapping
	byMember         map[string]int
	isIdentityEntity bool
	fingerprint      string
}

// SourceType returns the type id the metadata was resolved from.
func (m *EntityMetadata) SourceType() ir.TypeID { return m.sourceType }

// TableName returns the mapped table name.
func (m *EntityMetadata) TableName() string { return m.tableName }

// IsIdentityEntity reports whether exactly one field is a generated identity key.
func (m *EntityMetadata) IsIdentityEntity() bool { return m.isIdentityEntity }

// Fields returns the field mappings in declaration order.
func (m *EntityMetadata) Fields() []FieldMapping {
	return append([]FieldMapping(nil), m.fields...)
}

// Len returns the number of persisted fields.
func (m *EntityMetadata) Len() int { return len(m.fields) }

// Field looks up a mapping by exact member name.
func (m *EntityMetadata) Field(member string) (FieldMapping, bool) {
	i, ok := m.byMember[member]
	if !ok {
		return FieldMapping{}, false
	}
	return m.fields[i], true
}

// Keys returns the primary key fields in declaration order.
func (m *EntityMetadata) Keys() []FieldMapping {
	var keys []FieldMapping
	for _, f := range m.fields {
		if f.IsPrimaryKey {
			keys = append(keys, f)
		}
	}
	return keys
}

// NonKeys returns the fields that are not part of the primary key.
func (m *EntityMetadata) NonKeys() []FieldMapping {
	var out []FieldMapping
	for _, f := range m.fields {
		if !f.IsPrimaryKey {
			out = append(out, f)
		}
	}
	return out
}

// Identity returns the identity field of an identity entity.
func (m *EntityMetadata) Identity() (FieldMapping, bool) {
	if !m.isIdentityEntity {
		return FieldMapping{}, false
	}
	for _, f := range m.fields {
		if f.IsIdentity {
			return f, true
		}
	}
	return FieldMapping{}, false
}

// Columns returns the column names in declaration order.
func (m *EntityMetadata) Columns() []string {
	cols := make([]string, len(m.fields))
	for i, f := range m.fields {
		cols[i] = f.ColumnName
	}
	return cols
}

// Fingerprint returns a content hash over table name and field mappings.
// Two metadata values with equal fingerprints describe the same mapping.
func (m *EntityMetadata) Fingerprint() string { return m.fingerprint }

// Equal reports value equality of two metadata values.
func (m *EntityMetadata) Equal(other *EntityMetadata) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	return m.sourceType == other.sourceType && m.fingerprint == other.fingerprint
}

// canonical returns the IR form hashed into the fingerprint.
func (m *EntityMetadata) canonical() ir.IRObject {
	fields := make(ir.IRArray, len(m.fields))
	for i, f := range m.fields {
		fields[i] = ir.IRObject{
			"member":    ir.IRString(f.MemberName),
			"column":    ir.IRString(f.ColumnName),
			"key":       ir.IRBool(f.IsPrimaryKey),
			"identity":  ir.IRBool(f.IsIdentity),
			"kind":      ir.IRString(f.Kind.String()),
			"generated": ir.IRString(string(f.Generated)),
		}
	}
	return ir.IRObject{
		"type":     ir.IRString(string(m.sourceType)),
		"table":    ir.IRString(m.tableName),
		"identity": ir.IRBool(m.isIdentityEntity),
		"fields":   fields,
	}
}

// metadataJSON is the exported JSON shape used by the CLI.
type metadataJSON struct {
	SourceType       ir.TypeID   `json:"source_type"`
	TableName        string      `json:"table_name"`
	IsIdentityEntity bool        `json:"is_identity_entity"`
	Fields           []fieldJSON `json:"fields"`
	Fingerprint      string      `json:"fingerprint"`
}

type fieldJSON struct {
	FieldMapping
	Kind string `json:"kind,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m *EntityMetadata) MarshalJSON() ([]byte, error) {
	out := metadataJSON{
		SourceType:       m.sourceType,
		TableName:        m.tableName,
		IsIdentityEntity: m.isIdentityEntity,
		Fields:           make([]fieldJSON, len(m.fields)),
		Fingerprint:      m.fingerprint,
	}
	for i, f := range m.fields {
		out.Fields[i] = fieldJSON{FieldMapping: f}
		if f.Kind != ir.KindUnknown {
			out.Fields[i].Kind = f.Kind.String()
		}
	}
	return json.Marshal(out)
}
