package ir

import (
	"fmt"
	"slices"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
)

// IRValue is a sealed interface representing constant values.
// Only the IR* types in this package implement it.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents an absent value.
type IRNull struct{}

func (IRNull) irValue() {}

// IRString represents a string value.
type IRString string

func (IRString) irValue() {}

// IRChar represents a single character value.
type IRChar rune

func (IRChar) irValue() {}

// IRInt represents an integer value.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat represents a binary floating-point value.
type IRFloat float64

func (IRFloat) irValue() {}

// IRDecimal represents an exact decimal number in its textual form
// (e.g. "12.50"). It is never converted through float64.
type IRDecimal string

func (IRDecimal) irValue() {}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRTime represents a point in time.
type IRTime time.Time

func (IRTime) irValue() {}

// IRUUID represents a UUID value.
type IRUUID uuid.UUID

func (IRUUID) irValue() {}

// IRArray represents an array of IRValue elements.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject represents a map of string keys to IRValue elements.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// KindOf returns the Kind of v. A nil interface is KindNull.
func KindOf(v IRValue) Kind {
	switch v.(type) {
	case nil, IRNull:
		return KindNull
	case IRString:
		return KindString
	case IRChar:
		return KindChar
	case IRInt:
		return KindInt
	case IRFloat:
		return KindFloat
	case IRDecimal:
		return KindDecimal
	case IRBool:
		return KindBool
	case IRTime:
		return KindTime
	case IRUUID:
		return KindUUID
	case IRArray:
		return KindArray
	case IRObject:
		return KindObject
	default:
		return KindUnknown
	}
}

// FromGo converts a Go value into an IRValue.
//
// Supported inputs are the IR types themselves, nil, string, all integer
// types, float32/64, bool, time.Time, uuid.UUID, []any and map[string]any.
// A Go rune is an int32 and therefore becomes IRInt; wrap it in IRChar to
// keep character semantics. Pointers are not dereferenced.
func FromGo(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case int:
		return IRInt(val), nil
	case int8:
		return IRInt(val), nil
	case int16:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint:
		return IRInt(val), nil
	case uint8:
		return IRInt(val), nil
	case uint16:
		return IRInt(val), nil
	case uint32:
		return IRInt(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("uint64 %d overflows int64", val)
		}
		return IRInt(val), nil
	case float32:
		return IRFloat(val), nil
	case float64:
		return IRFloat(val), nil
	case bool:
		return IRBool(val), nil
	case time.Time:
		return IRTime(val), nil
	case uuid.UUID:
		return IRUUID(val), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			irElem, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = irElem
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToGo converts an IRValue back into a plain Go value suitable for use as a
// database/sql argument. IRChar becomes a one-character string.
func ToGo(v IRValue) any {
	switch val := v.(type) {
	case nil, IRNull:
		return nil
	case IRString:
		return string(val)
	case IRChar:
		return string(rune(val))
	case IRInt:
		return int64(val)
	case IRFloat:
		return float64(val)
	case IRDecimal:
		return string(val)
	case IRBool:
		return bool(val)
	case IRTime:
		return time.Time(val)
	case IRUUID:
		return uuid.UUID(val).String()
	case IRArray:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case IRObject:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToGo(elem)
		}
		return out
	default:
		return nil
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// If all compared units are equal, shorter string comes first
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
