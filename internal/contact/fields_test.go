package contact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalField(t *testing.T) {
	f, ok := CanonicalField("familyName")
	assert.True(t, ok)
	assert.Equal(t, FieldFamilyName, f)

	f, ok = CanonicalField("emails")
	assert.True(t, ok)
	assert.Equal(t, FieldEmails, f)

	_, ok = CanonicalField("shoeSize")
	assert.False(t, ok)
}

func TestRecord_Values(t *testing.T) {
	published := time.Date(2011, 3, 4, 5, 6, 7, 0, time.UTC)
	r := Record{
		ID:        "id-1",
		Published: published,
		Properties: Properties{
			DisplayName: "Jane Doe",
			Name:        Name{GivenName: "Jane", FamilyName: "Doe"},
			Emails:      []Entry{{Value: "jane@home"}, {Value: "jane@work"}},
			Accounts:    []Account{{Domain: "twitter.com", UserID: "jd"}},
		},
		Frecency: 2,
	}

	tests := []struct {
		field string
		want  []string
	}{
		{"id", []string{"id-1"}},
		{"displayName", []string{"Jane Doe"}},
		{"givenName", []string{"Jane"}},
		{"name.familyName", []string{"Doe"}},
		{"emails", []string{"jane@home", "jane@work"}},
		{"accounts", []string{"twitter.com:jd"}},
		{"published", []string{"2011-03-04T05:06:07Z"}},
		{"frecency", []string{"2"}},
		{"nickname", nil},
		{"phoneNumbers", nil},
		{"updated", nil},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, ok := r.Values(tt.field)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := r.Values("unknown")
	assert.False(t, ok)
}

func TestParseTime_RoundTrip(t *testing.T) {
	ts := time.Date(2020, 1, 2, 3, 4, 5, 600, time.FixedZone("x", 3600))
	parsed, err := ParseTime(FormatTime(ts))
	assert.NoError(t, err)
	assert.True(t, ts.Equal(parsed))
	assert.Equal(t, time.UTC, parsed.Location())
}
