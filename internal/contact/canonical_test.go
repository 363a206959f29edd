package contact

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int64", int64(-100), "-100"},
		{"bool true", true, "true"},
		{"null", nil, "null"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"json number", json.Number("7"), "7"},
		{"simple object", map[string]any{"a": 1}, `{"a":1}`},
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
	obj := map[string]any{
		"zebra": 1,
		"alpha": 2,
		"beta":  map[string]any{"y": 1, "x": 2},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":{"x":2,"y":1},"zebra":1}`, string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical("<a&b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(result))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))

	// An escaped backslash followed by "u2028" is ordinary text.
	result, err = MarshalCanonical(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	result, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-integer")
}

func TestMarshalCanonicalStruct(t *testing.T) {
	p := Properties{
		DisplayName: "Jane Doe",
		Name:        Name{GivenName: "Jane", FamilyName: "Doe"},
		Emails:      []Entry{{Type: TypeWork, Value: "jane@example.com"}},
	}

	result, err := MarshalCanonical(p)
	require.NoError(t, err)
	assert.Equal(t,
		`{"displayName":"Jane Doe","emails":[{"type":"work","value":"jane@example.com"}],"name":{"familyName":"Doe","givenName":"Jane"}}`,
		string(result))
}

func TestMarshalCanonicalStable(t *testing.T) {
	p := Properties{
		DisplayName: "X",
		Categories:  []Entry{{Value: "friends"}},
		Accounts:    []Account{{Domain: "twitter.com", UserID: "x"}},
	}
	first, err := MarshalCanonical(p)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(p)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompareUTF16(t *testing.T) {
	// U+FF61 sorts after U+1F600 in UTF-8 byte order but before it in
	// UTF-16 code unit order (surrogates are 0xD8xx).
	assert.Less(t, compareUTF16("\U0001F600", "\uFF61"), 0)
	assert.Equal(t, 0, compareUTF16("abc", "abc"))
	assert.Less(t, compareUTF16("ab", "abc"), 0)
}
