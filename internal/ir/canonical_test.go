package ir

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"empty string", IRString(""), `""`},
		{"char", IRChar('A'), `"A"`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-100), "-100"},
		{"max int64", IRInt(9223372036854775807), "9223372036854775807"},
		{"float", IRFloat(1.5), "1.5"},
		{"integral float", IRFloat(3), "3"},
		{"large float", IRFloat(1e21), "1e+21"},
		{"decimal", IRDecimal("12.50"), "12.50"},
		{"bool true", IRBool(true), "true"},
		{"null", IRNull{}, "null"},
		{"nil", nil, "null"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"array of ints", IRArray{IRInt(1), IRInt(2), IRInt(3)}, "[1,2,3]"},
		{"simple object", IRObject{"a": IRInt(1)}, `{"a":1}`},
		{"plain go map", map[string]any{"b": true, "a": "x"}, `{"a":"x","b":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := IRObject{
		"zebra": IRInt(1),
		"alpha": IRInt(2),
		"beta":  IRInt(3),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalTimeAndUUID(t *testing.T) {
	ts := time.Date(2024, 3, 5, 10, 0, 0, 0, time.FixedZone("X", 3600))
	id := uuid.MustParse("0190b1a2-7c3d-7e4f-8a5b-6c7d8e9f0a1b")

	result, err := MarshalCanonical(IRArray{IRTime(ts), IRUUID(id)})
	require.NoError(t, err)
	assert.Equal(t, `["2024-03-05T09:00:00Z","0190b1a2-7c3d-7e4f-8a5b-6c7d8e9f0a1b"]`, string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(IRString("a<b>&c"))
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(result))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical(IRString("x\u2028y\u2029z"))
	require.NoError(t, err)
	assert.Equal(t, "\"x\u2028y\u2029z\"", string(result))

	// Literal backslash followed by the text u2028 stays escaped.
	result, err = MarshalCanonical(IRString(`\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// e + combining acute accent normalizes to the precomposed form.
	result, err := MarshalCanonical(IRString("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(IRFloat(math.NaN()))
	assert.Error(t, err)
	_, err = MarshalCanonical(IRFloat(math.Inf(1)))
	assert.Error(t, err)
}

func TestMarshalCanonicalRejectsUnsupported(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	assert.Error(t, err)
}
