package ir

import "fmt"

// TypeID identifies a record type (entity or parameter object).
//
// Two member references belong to the same type iff their TypeIDs are equal.
// TypeIDs are chosen by whoever registers the type, typically the Go type
// name ("Student") or the CUE entity label.
type TypeID string

// String implements fmt.Stringer.
func (t TypeID) String() string { return string(t) }

// IsZero reports whether the type id is empty.
func (t TypeID) IsZero() bool { return t == "" }

// Kind is the value kind of a member or constant.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNull
	KindString
	KindChar
	KindInt
	KindFloat
	KindDecimal
	KindBool
	KindTime
	KindUUID
	KindArray
	KindObject
)

var kindNames = map[Kind]string{
	KindUnknown: "unknown",
	KindNull:    "null",
	KindString:  "string",
	KindChar:    "char",
	KindInt:     "int",
	KindFloat:   "float",
	KindDecimal: "decimal",
	KindBool:    "bool",
	KindTime:    "time",
	KindUUID:    "uuid",
	KindArray:   "array",
	KindObject:  "object",
}

// String returns the lower-case kind name used in descriptors and JSON.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind converts a kind name back into a Kind.
// The empty string maps to KindUnknown.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindUnknown, nil
	}
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown kind %q", s)
}

// IsTextual reports whether literals of this kind are rendered quoted.
func (k Kind) IsTextual() bool {
	switch k {
	case KindString, KindChar, KindTime, KindUUID:
		return true
	default:
		return false
	}
}
