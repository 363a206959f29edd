package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_DropsEmptyEntries(t *testing.T) {
	p := Properties{
		Emails: []Entry{
			{Type: TypeHome, Value: "a@x"},
			{Type: TypeWork, Value: ""},
			{Type: TypeOther, Value: "   "},
		},
		PhoneNumbers: []Entry{{Type: TypeMobile, Value: ""}},
		Accounts:     []Account{{Domain: "twitter.com"}, {Domain: "github.com", UserID: "jd"}},
	}

	p.Normalize()

	assert.Equal(t, []Entry{{Type: TypeHome, Value: "a@x"}}, p.Emails)
	assert.Nil(t, p.PhoneNumbers)
	assert.Equal(t, []Account{{Domain: "github.com", UserID: "jd"}}, p.Accounts)
}

func TestNormalize_DerivesDisplayName(t *testing.T) {
	p := Properties{Name: Name{GivenName: "Jane", FamilyName: "Doe"}}
	p.Normalize()
	assert.Equal(t, "Jane Doe", p.DisplayName)

	p = Properties{Name: Name{FamilyName: "Doe"}}
	p.Normalize()
	assert.Equal(t, "Doe", p.DisplayName)

	p = Properties{}
	p.Normalize()
	assert.Equal(t, "", p.DisplayName)
}

func TestNormalize_KeepsExplicitDisplayName(t *testing.T) {
	p := Properties{DisplayName: "JD", Name: Name{GivenName: "Jane", FamilyName: "Doe"}}
	p.Normalize()
	assert.Equal(t, "JD", p.DisplayName)
}

func TestValidate_RejectsUnknownType(t *testing.T) {
	p := Properties{PhoneNumbers: []Entry{{Type: "pager", Value: "123"}}}
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, IsKind(err, InvalidArgument))
	assert.Contains(t, err.Error(), "phoneNumbers[0]")

	p = Properties{Emails: []Entry{{Value: "untyped@x"}, {Type: TypeWork, Value: "w@x"}}}
	assert.NoError(t, p.Validate())
}
