package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rolodex/internal/contact"
)

func jane() contact.Record {
	return contact.Record{
		ID: "1",
		Properties: contact.Properties{
			DisplayName: "Jane Doe",
			Name:        contact.Name{GivenName: "Jane", FamilyName: "Doe"},
			Emails: []contact.Entry{
				{Type: contact.TypeHome, Value: "jane@home.example"},
				{Type: contact.TypeWork, Value: "jdoe@work.example"},
			},
		},
	}
}

func bob() contact.Record {
	return contact.Record{
		ID: "2",
		Properties: contact.Properties{
			DisplayName: "Bob Smith",
			Name:        contact.Name{GivenName: "Bob", FamilyName: "Smith"},
		},
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	r := jane()

	assert.True(t, Search{Query: "jane", Fields: []string{"displayName"}}.Match(r))
	assert.True(t, Search{Query: "DOE", Fields: []string{"displayName"}}.Match(r))
	assert.False(t, Search{Query: "smith", Fields: []string{"displayName"}}.Match(r))
}

func TestSearch_OrAcrossFields(t *testing.T) {
	r := jane()
	s := Search{Query: "work.example", Fields: []string{"displayName", "emails"}}
	assert.True(t, s.Match(r))
}

func TestSearch_RepeatedFieldsJoined(t *testing.T) {
	r := jane()
	// The query spans the boundary between two joined email values.
	s := Search{Query: "example jdoe", Fields: []string{"emails"}}
	assert.True(t, s.Match(r))
}

func TestSearch_MissingFieldNeverMatches(t *testing.T) {
	r := bob()
	assert.False(t, Search{Query: "", Fields: []string{"nickname"}}.Match(r))
	assert.False(t, Search{Query: "x", Fields: []string{"emails", "phoneNumbers"}}.Match(r))
}

func TestFilter_AllTermsMustMatch(t *testing.T) {
	r := jane()

	assert.True(t, Filter{{Field: "familyName", Value: "Doe"}}.Match(r))
	assert.True(t, Filter{
		{Field: "familyName", Value: "Doe"},
		{Field: "emails", Value: "jdoe@work.example"},
	}.Match(r))
	assert.False(t, Filter{
		{Field: "familyName", Value: "Doe"},
		{Field: "givenName", Value: "John"},
	}.Match(r))
	// Exact match, not case-folded.
	assert.False(t, Filter{{Field: "familyName", Value: "doe"}}.Match(r))
	assert.True(t, Filter{}.Match(r))
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"empty", Options{}, false},
		{"filter", Options{Filter: Filter{{Field: "id", Value: "1"}}}, false},
		{"search", Options{Search: &Search{Query: "x", Fields: []string{"displayName"}}}, false},
		{"both", Options{
			Filter: Filter{{Field: "id", Value: "1"}},
			Search: &Search{Query: "x", Fields: []string{"displayName"}},
		}, true},
		{"unknown filter field", Options{Filter: Filter{{Field: "shoeSize", Value: "9"}}}, true},
		{"search without fields", Options{Search: &Search{Query: "x"}}, true},
		{"unknown search field", Options{Search: &Search{Query: "x", Fields: []string{"zzz"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, contact.IsKind(err, contact.InvalidArgument))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateFields(t *testing.T) {
	err := ValidateFields(nil)
	require.Error(t, err)
	assert.True(t, contact.IsKind(err, contact.InvalidArgument))

	assert.NoError(t, ValidateFields([]string{"displayName", "emails"}))
	assert.True(t, contact.IsKind(ValidateFields([]string{"bogus"}), contact.InvalidArgument))
}

func TestApply_DoesNotMutate(t *testing.T) {
	in := []contact.Record{jane(), bob()}
	out := Apply(in, Options{Search: &Search{Query: "o", Fields: []string{"givenName"}}})

	require.Len(t, out, 1)
	assert.Equal(t, "2", out[0].ID)
	assert.Equal(t, "Jane Doe", in[0].Properties.DisplayName)
	assert.Len(t, in, 2)

	assert.Len(t, Apply(in, Options{}), 2)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter([]string{"familyName=Doe", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, Filter{{Field: "familyName", Value: "Doe"}, {Field: "note", Value: "a=b"}}, f)

	_, err = ParseFilter([]string{"nokey"})
	assert.True(t, contact.IsKind(err, contact.InvalidArgument))
}
